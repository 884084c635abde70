package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"pet-adoption-marketplace/internal/middleware"
	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/notify"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/products", listProductsHandler(svc))
	r.Get("/products/{productID}", getProductHandler(svc))
	r.Post("/admin/products", createProductHandler(svc))

	r.Get("/me/cart", getCartHandler(svc))
	r.Post("/me/cart/items", addItemHandler(svc))
	r.Patch("/me/cart/items/{productID}", updateItemHandler(svc))
	r.Delete("/me/cart/items/{productID}", removeItemHandler(svc))
	r.Delete("/me/cart", clearCartHandler(svc))
	r.Post("/me/cart/checkout", checkoutHandler(svc))
}

type productResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	PetType        string `json:"petType"`
	PriceCents     int64  `json:"priceCents"`
	SalePriceCents int64  `json:"salePriceCents,omitempty"`
	Description    string `json:"description"`
	ImageURL       string `json:"imageUrl"`
	Stock          int    `json:"stock"`
}

type createProductRequest struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	PetType        string `json:"petType"`
	PriceCents     int64  `json:"priceCents"`
	SalePriceCents int64  `json:"salePriceCents"`
	Description    string `json:"description"`
	ImageURL       string `json:"imageUrl"`
	Stock          int    `json:"stock"`
}

type lineResponse struct {
	Product        productResponse `json:"product"`
	Quantity       int             `json:"quantity"`
	LineTotalCents int64           `json:"lineTotalCents"`
}

type cartResponse struct {
	Items      []lineResponse `json:"items"`
	ItemCount  int            `json:"itemCount"`
	TotalCents int64          `json:"totalCents"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type orderResponse struct {
	ID         string `json:"id"`
	TotalCents int64  `json:"totalCents"`
	ItemCount  int    `json:"itemCount"`
}

func listProductsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListProducts(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]productResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toProductResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetProduct(r.Context(), chi.URLParam(r, "productID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProductResponse(p))
	}
}

func createProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		p, err := svc.CreateProduct(r.Context(), middleware.Session(r.Context()), CreateProductInput(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProductResponse(p))
	}
}

// getCartHandler godoc
// @Summary Mi carrito
// @Tags cart
// @Produce json
// @Success 200 {object} cartResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/cart [get]
func getCartHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.Get(r.Context(), middleware.Session(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartResponse(c))
	}
}

func addItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		c, err := svc.Add(r.Context(), middleware.Session(r.Context()), req.ProductID, req.Quantity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartResponse(c))
	}
}

func updateItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		c, err := svc.UpdateQuantity(r.Context(), middleware.Session(r.Context()), chi.URLParam(r, "productID"), req.Quantity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartResponse(c))
	}
}

func removeItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.Remove(r.Context(), middleware.Session(r.Context()), chi.URLParam(r, "productID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartResponse(c))
	}
}

func clearCartHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), middleware.Session(r.Context())); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// checkoutHandler godoc
// @Summary Confirmar la compra (envía la orden por email y vacía el carrito)
// @Tags cart
// @Produce json
// @Success 201 {object} orderResponse
// @Failure 400 {string} string "cart is empty"
// @Failure 502 {string} string "checkout failed"
// @Router /me/cart/checkout [post]
func checkoutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.Checkout(r.Context(), middleware.Session(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toOrderResponse(order))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrEmptyCart):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrCheckoutFailed):
		http.Error(w, "checkout failed, please try again", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toProductResponse(p Product) productResponse {
	return productResponse{
		ID:             p.ID,
		Name:           p.Name,
		Category:       string(p.Category),
		PetType:        p.PetType,
		PriceCents:     p.PriceCents,
		SalePriceCents: p.SalePriceCents,
		Description:    p.Description,
		ImageURL:       p.ImageURL,
		Stock:          p.Stock,
	}
}

func toCartResponse(c Cart) cartResponse {
	out := cartResponse{
		Items:      make([]lineResponse, 0, len(c.Lines)),
		ItemCount:  c.ItemCount,
		TotalCents: c.TotalCents,
	}
	for _, l := range c.Lines {
		out.Items = append(out.Items, lineResponse{
			Product:        toProductResponse(l.Product),
			Quantity:       l.Quantity,
			LineTotalCents: l.LineTotalCents,
		})
	}
	return out
}

func toOrderResponse(o notify.Order) orderResponse {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return orderResponse{ID: o.ID, TotalCents: o.TotalCents, ItemCount: n}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
