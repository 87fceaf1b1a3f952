package dto

import "time"

// Clasificación de un movimiento según sus ubicaciones.
const (
	MovementKindInflow   = "inflow"   // sin origen: entra desde fuera
	MovementKindOutflow  = "outflow"  // sin destino: sale hacia fuera
	MovementKindTransfer = "transfer" // entre dos ubicaciones registradas
)

// RecordMovementRequest body para POST /api/movements.
// from_location / to_location vacíos significan fuente o destino externo.
type RecordMovementRequest struct {
	ID           string     `json:"id" validate:"required,max=50"`
	ProductID    string     `json:"product_id" validate:"max=50"`
	FromLocation string     `json:"from_location,omitempty" validate:"max=50"`
	ToLocation   string     `json:"to_location,omitempty" validate:"max=50"`
	Qty          int64      `json:"qty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"` // nil = ahora
}

// AmendMovementRequest body para PUT /api/movements/:id. Reemplaza todos los campos menos el ID.
type AmendMovementRequest struct {
	ProductID    string     `json:"product_id" validate:"max=50"`
	FromLocation string     `json:"from_location,omitempty" validate:"max=50"`
	ToLocation   string     `json:"to_location,omitempty" validate:"max=50"`
	Qty          int64      `json:"qty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"` // nil = conserva el timestamp actual
}

// MovementFilter filtro de listado: vacío = todos; ProductID y/o LocationID restringen.
type MovementFilter struct {
	ProductID  string `query:"product_id"`
	LocationID string `query:"location_id"`
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	ProductID    string    `json:"product_id"`
	FromLocation string    `json:"from_location,omitempty"`
	ToLocation   string    `json:"to_location,omitempty"`
	Qty          int64     `json:"qty"`
	Kind         string    `json:"kind"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MovementListResponse lista de movimientos, más reciente primero.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Meta  ListMeta           `json:"meta"`
}

// MovementRevisionResponse una enmienda aplicada sobre un movimiento.
type MovementRevisionResponse struct {
	ID        string           `json:"id"`
	Previous  MovementResponse `json:"previous"`
	Current   MovementResponse `json:"current"`
	AmendedAt time.Time        `json:"amended_at"`
	AmendedBy string           `json:"amended_by,omitempty"`
}
