package dto

import "time"

// BalanceResponse saldo de un producto en una ubicación.
type BalanceResponse struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
}

// BalanceRow fila del reporte de saldos (solo saldos distintos de cero).
type BalanceRow struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	Quantity     int64  `json:"quantity"`
}

// BalanceReport reporte completo de saldos. Epoch y Version identifican el estado del ledger usado.
type BalanceReport struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Epoch       string       `json:"epoch"`
	Version     int64        `json:"version"`
	Strategy    string       `json:"strategy"`
	Rows        []BalanceRow `json:"rows"`
}

// BalanceMismatch par cuyo saldo agregado difiere del recalculado desde el historial.
type BalanceMismatch struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Aggregated int64  `json:"aggregated"`
	Recomputed int64  `json:"recomputed"`
}

// VerifyResponse resultado de la verificación de integridad del agregado.
type VerifyResponse struct {
	Consistent       bool              `json:"consistent"`
	CheckedMovements int               `json:"checked_movements"`
	Mismatches       []BalanceMismatch `json:"mismatches"`
	Version          int64             `json:"version"`
}

// BalanceFilter filtro de GET /api/balances. Con ambos campos devuelve el saldo puntual
// (incluso si es cero); con uno o ninguno devuelve las filas distintas de cero que coinciden.
type BalanceFilter struct {
	ProductID  string `query:"product_id"`
	LocationID string `query:"location_id"`
}

// RebuildResponse resultado de reconstruir el agregado desde el historial.
type RebuildResponse struct {
	Movements int   `json:"movements"`
	Pairs     int   `json:"pairs"`
	Version   int64 `json:"version"`
}
