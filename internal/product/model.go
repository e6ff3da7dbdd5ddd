package product

import "time"

type Product struct {
	ID        uint
	Name      string
	Price     float64
	Stock     int
	Available bool
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
