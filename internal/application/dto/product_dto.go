package dto

import "time"

// CreateProductRequest entrada para registrar un producto. El ID lo asigna el cliente.
type CreateProductRequest struct {
	ID          string `json:"id" validate:"required,max=50"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// UpdateProductRequest entrada para actualizar un producto (el ID no cambia).
type UpdateProductRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductListResponse lista de productos ordenada por ID.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Meta  ListMeta          `json:"meta"`
}

// ProductDetailResponse producto con su historial de movimientos y saldos por ubicación.
type ProductDetailResponse struct {
	Product    ProductResponse    `json:"product"`
	Movements  []MovementResponse `json:"movements"`
	Balances   []BalanceRow       `json:"balances"`
	TotalStock int64              `json:"total_stock"`
}
