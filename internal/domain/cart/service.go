package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/platform/metrics"
	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/notify"
	"pet-adoption-marketplace/internal/ports/recordstore"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("item not in cart")
	ErrForbidden       = errors.New("forbidden")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrCheckoutFailed  = errors.New("checkout failed")
)

const maxQuantity = 99

type Deps struct {
	Products ProductRepository
	Items    Repository
	Orders   notify.OrderDispatcher
	Log      logger.Logger
}

type Service struct {
	products ProductRepository
	items    Repository
	orders   notify.OrderDispatcher
	log      logger.Logger
	now      func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		products: d.Products,
		items:    d.Items,
		orders:   d.Orders,
		log:      d.Log,
		now:      time.Now,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	return s
}

type CreateProductInput struct {
	Name           string
	Category       string
	PetType        string
	PriceCents     int64
	SalePriceCents int64
	Description    string
	ImageURL       string
	Stock          int
}

func (s *Service) CreateProduct(ctx context.Context, sess *auth.Session, in CreateProductInput) (Product, error) {
	if err := sess.Require(); err != nil {
		return Product{}, err
	}
	if !sess.Admin {
		return Product{}, ErrForbidden
	}

	name := strings.TrimSpace(in.Name)
	cat := Category(strings.ToLower(strings.TrimSpace(in.Category)))
	if name == "" || !validCategory(cat) || in.PriceCents <= 0 || in.SalePriceCents < 0 || in.Stock < 0 {
		return Product{}, ErrInvalidInput
	}
	if in.SalePriceCents > 0 && in.SalePriceCents >= in.PriceCents {
		return Product{}, ErrInvalidInput
	}
	petType := strings.ToLower(strings.TrimSpace(in.PetType))
	if petType == "" {
		petType = "all"
	}

	p := Product{
		ID:             uuid.NewString(),
		Name:           name,
		Category:       cat,
		PetType:        petType,
		PriceCents:     in.PriceCents,
		SalePriceCents: in.SalePriceCents,
		Description:    strings.TrimSpace(in.Description),
		ImageURL:       strings.TrimSpace(in.ImageURL),
		Stock:          in.Stock,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return Product{}, recordstore.Wrap("insert product", err)
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context, category string) ([]Product, error) {
	cat := Category(strings.ToLower(strings.TrimSpace(category)))
	if cat != "" && !validCategory(cat) {
		return nil, ErrInvalidInput
	}
	items, err := s.products.ListProducts(ctx, cat)
	if err != nil {
		return nil, recordstore.Wrap("list products", err)
	}
	return items, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := s.products.GetProduct(ctx, strings.TrimSpace(id))
	if errors.Is(err, recordstore.ErrNotFound) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, recordstore.Wrap("get product", err)
	}
	return p, nil
}

// Get arma el carrito con productos y total. Las filas de productos que ya
// no existen se omiten.
func (s *Service) Get(ctx context.Context, sess *auth.Session) (Cart, error) {
	if err := sess.Require(); err != nil {
		return Cart{}, err
	}
	items, err := s.items.ListItems(ctx, sess.UserID)
	if err != nil {
		return Cart{}, recordstore.Wrap("list cart items", err)
	}

	c := Cart{UserID: sess.UserID, Lines: make([]Line, 0, len(items))}
	for _, it := range items {
		p, err := s.products.GetProduct(ctx, it.ProductID)
		if errors.Is(err, recordstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return Cart{}, recordstore.Wrap("get product", err)
		}
		line := Line{Product: p, Quantity: it.Quantity, LineTotalCents: p.PriceCents * int64(it.Quantity)}
		c.Lines = append(c.Lines, line)
		c.ItemCount += it.Quantity
		c.TotalCents += line.LineTotalCents
	}
	return c, nil
}

// Add suma quantity (mínimo 1) al producto; si no estaba, lo agrega.
func (s *Service) Add(ctx context.Context, sess *auth.Session, productID string, quantity int) (Cart, error) {
	if err := sess.Require(); err != nil {
		return Cart{}, err
	}
	if quantity <= 0 {
		quantity = 1
	}
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return Cart{}, err
	}

	it, err := s.items.GetItem(ctx, sess.UserID, p.ID)
	switch {
	case errors.Is(err, recordstore.ErrNotFound):
		it = Item{UserID: sess.UserID, ProductID: p.ID, AddedAt: s.now().UTC()}
	case err != nil:
		return Cart{}, recordstore.Wrap("get cart item", err)
	}

	it.Quantity += quantity
	if it.Quantity > maxQuantity {
		it.Quantity = maxQuantity
	}
	if err := s.items.SaveItem(ctx, it); err != nil {
		return Cart{}, recordstore.Wrap("save cart item", err)
	}
	return s.Get(ctx, sess)
}

// UpdateQuantity fija la cantidad; menos de 1 es inválido (para sacar, Remove).
func (s *Service) UpdateQuantity(ctx context.Context, sess *auth.Session, productID string, quantity int) (Cart, error) {
	if err := sess.Require(); err != nil {
		return Cart{}, err
	}
	if quantity < 1 || quantity > maxQuantity {
		return Cart{}, ErrInvalidInput
	}

	it, err := s.items.GetItem(ctx, sess.UserID, strings.TrimSpace(productID))
	if errors.Is(err, recordstore.ErrNotFound) {
		return Cart{}, ErrItemNotFound
	}
	if err != nil {
		return Cart{}, recordstore.Wrap("get cart item", err)
	}
	it.Quantity = quantity
	if err := s.items.SaveItem(ctx, it); err != nil {
		return Cart{}, recordstore.Wrap("save cart item", err)
	}
	return s.Get(ctx, sess)
}

func (s *Service) Remove(ctx context.Context, sess *auth.Session, productID string) (Cart, error) {
	if err := sess.Require(); err != nil {
		return Cart{}, err
	}
	if err := s.items.RemoveItem(ctx, sess.UserID, strings.TrimSpace(productID)); err != nil {
		return Cart{}, recordstore.Wrap("remove cart item", err)
	}
	return s.Get(ctx, sess)
}

func (s *Service) Clear(ctx context.Context, sess *auth.Session) error {
	if err := sess.Require(); err != nil {
		return err
	}
	if err := s.items.Clear(ctx, sess.UserID); err != nil {
		return recordstore.Wrap("clear cart", err)
	}
	return nil
}

// Checkout manda un único email con la orden y, si salió, vacía el carrito.
// Si el envío falla el carrito queda intacto y no se reintenta.
func (s *Service) Checkout(ctx context.Context, sess *auth.Session) (notify.Order, error) {
	c, err := s.Get(ctx, sess)
	if err != nil {
		return notify.Order{}, err
	}
	if len(c.Lines) == 0 {
		return notify.Order{}, ErrEmptyCart
	}
	if s.orders == nil {
		metrics.RecordCheckout(false)
		return notify.Order{}, fmt.Errorf("%w: no order dispatcher configured", ErrCheckoutFailed)
	}

	order := notify.Order{
		ID:         uuid.NewString(),
		UserID:     sess.UserID,
		UserEmail:  sess.Email,
		TotalCents: c.TotalCents,
		PlacedAt:   s.now().UTC(),
		Lines:      make([]notify.OrderLine, 0, len(c.Lines)),
	}
	for _, l := range c.Lines {
		order.Lines = append(order.Lines, notify.OrderLine{
			ProductID:      l.Product.ID,
			ProductName:    l.Product.Name,
			Quantity:       l.Quantity,
			UnitPriceCents: l.Product.PriceCents,
			LineTotalCents: l.LineTotalCents,
		})
	}

	if err := s.orders.DispatchOrder(ctx, order); err != nil {
		metrics.RecordCheckout(false)
		s.log.Error("order dispatch failed", map[string]any{"order_id": order.ID, "user_id": sess.UserID, "err": err})
		return notify.Order{}, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}
	metrics.RecordCheckout(true)

	if err := s.items.Clear(ctx, sess.UserID); err != nil {
		// La orden ya salió; el carrito se puede vaciar a mano.
		s.log.Warn("cart clear after checkout failed", map[string]any{"order_id": order.ID, "err": err})
	}
	return order, nil
}
