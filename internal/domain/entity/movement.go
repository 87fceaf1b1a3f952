package entity

import "time"

// MaxQuantity cota de Qty por movimiento. Con ella hacen falta más de nueve millones de
// movimientos al máximo sobre un mismo par para desbordar un saldo int64.
const MaxQuantity int64 = 1_000_000_000_000

// TimestampPrecision resolución con la que se guardan las marcas de tiempo (la de TIMESTAMPTZ).
const TimestampPrecision = time.Microsecond

// Movement representa una transferencia de Qty unidades de un producto.
// FromLocation vacío = entrada externa; ToLocation vacío = salida externa.
type Movement struct {
	ID           string
	Seq          int64 // orden de inserción, desempata movimientos con igual Timestamp
	Timestamp    time.Time
	ProductID    string
	FromLocation string
	ToLocation   string
	Qty          int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsInflow indica si el movimiento trae stock desde fuera de las ubicaciones registradas.
func (m *Movement) IsInflow() bool { return m.FromLocation == "" && m.ToLocation != "" }

// IsOutflow indica si el movimiento saca stock fuera de las ubicaciones registradas.
func (m *Movement) IsOutflow() bool { return m.ToLocation == "" && m.FromLocation != "" }

// IsSelfTransfer indica origen y destino iguales (no cambia ningún saldo).
func (m *Movement) IsSelfTransfer() bool {
	return m.FromLocation != "" && m.FromLocation == m.ToLocation
}

// MovementRevision guarda los valores previos y nuevos de un movimiento enmendado.
type MovementRevision struct {
	ID         string
	MovementID string
	Previous   Movement
	Current    Movement
	AmendedAt  time.Time
	AmendedBy  string
}
