package favorites

import "time"

// Entry es un par único (usuario, mascota) en la wishlist.
type Entry struct {
	UserID    string
	PetID     string
	CreatedAt time.Time
}
