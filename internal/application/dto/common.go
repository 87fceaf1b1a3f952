package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListMeta metadatos de los listados (los listados del ledger no se paginan).
type ListMeta struct {
	Total int `json:"total"`
}
