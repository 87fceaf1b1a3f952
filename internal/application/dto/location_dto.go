package dto

import "time"

// CreateLocationRequest entrada para registrar una ubicación.
type CreateLocationRequest struct {
	ID          string `json:"id" validate:"required,max=50"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// UpdateLocationRequest entrada para actualizar una ubicación.
type UpdateLocationRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LocationListResponse lista de ubicaciones ordenada por ID.
type LocationListResponse struct {
	Items []LocationResponse `json:"items"`
	Meta  ListMeta           `json:"meta"`
}

// LocationDetailResponse ubicación con movimientos entrantes, salientes y saldos por producto.
type LocationDetailResponse struct {
	Location LocationResponse   `json:"location"`
	Incoming []MovementResponse `json:"incoming"`
	Outgoing []MovementResponse `json:"outgoing"`
	Balances []BalanceRow       `json:"balances"`
}
