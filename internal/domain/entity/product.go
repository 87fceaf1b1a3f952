package entity

import "time"

// Product representa un producto del catálogo. El ID lo asigna quien lo registra y no cambia.
type Product struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
