package notify

import (
	"context"
	"time"
)

// OrderLine es una línea del pedido tal como se manda por email.
type OrderLine struct {
	ProductID      string
	ProductName    string
	Quantity       int
	UnitPriceCents int64
	LineTotalCents int64
}

type Order struct {
	ID         string
	UserID     string
	UserEmail  string
	Lines      []OrderLine
	TotalCents int64
	PlacedAt   time.Time
}

// OrderDispatcher manda un email por pedido. Fire-and-forget: no reintenta;
// el error vuelve al checkout.
type OrderDispatcher interface {
	DispatchOrder(ctx context.Context, o Order) error
}

// PasswordResetDispatcher entrega el token de reseteo al usuario.
type PasswordResetDispatcher interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}
