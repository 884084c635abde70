package cart

import "time"

type Category string

const (
	CategoryFood        Category = "food"
	CategoryToys        Category = "toys"
	CategoryAccessories Category = "accessories"
	CategoryHealth      Category = "health"
	CategoryOther       Category = "other"
)

func validCategory(c Category) bool {
	switch c {
	case CategoryFood, CategoryToys, CategoryAccessories, CategoryHealth, CategoryOther:
		return true
	default:
		return false
	}
}

// Product es un artículo de la tienda. Los montos van en centavos.
type Product struct {
	ID             string
	Name           string
	Category       Category
	PetType        string
	PriceCents     int64
	SalePriceCents int64 // 0 = sin oferta; se muestra pero no cambia el total
	Description    string
	ImageURL       string
	Stock          int
	CreatedAt      time.Time
}

// Item es una fila del carrito de un usuario.
type Item struct {
	UserID    string
	ProductID string
	Quantity  int
	AddedAt   time.Time
}

type Line struct {
	Product        Product
	Quantity       int
	LineTotalCents int64
}

type Cart struct {
	UserID     string
	Lines      []Line
	ItemCount  int
	TotalCents int64
}
