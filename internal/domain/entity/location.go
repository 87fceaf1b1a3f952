package entity

import "time"

// Location representa una ubicación física (bodega, tienda, oficina) donde se guarda stock.
type Location struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
