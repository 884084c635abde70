package remoteidp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/platform/httpclient"
	"pet-adoption-marketplace/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("identity provider not configured")
	ErrUnauthorized  = errors.New("identity provider unauthorized")
	ErrUpstream      = errors.New("identity provider upstream error")
)

// userPath es el endpoint estilo GoTrue que devuelve el usuario dueño del token.
const userPath = "/auth/v1/user"

// Config del proveedor externo de sesiones.
// BaseURL y APIKey vienen de IDP_URL / IDP_API_KEY.
type Config struct {
	BaseURL string
	APIKey  string

	// Si está vacío, se usa "apikey".
	APIKeyHeader string

	Timeout   time.Duration
	Transport http.RoundTripper // opcional, para tests
}

type Client struct {
	http       *httpclient.Client
	configured bool
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "apikey"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.NewFromConfig(httpclient.Config{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		APIKeyHeader: h,
		Timeout:      timeout,
		Transport:    cfg.Transport,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		http:       hc,
		configured: hc.BaseURL != "" && strings.TrimSpace(cfg.APIKey) != "",
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.configured
}

// User es lo que el proveedor devuelve del dueño del token.
type User struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	AppMetadata map[string]any `json:"app_metadata,omitempty"`
}

// FetchUser pregunta al proveedor quién es el dueño del token.
func (c *Client) FetchUser(ctx context.Context, token string) (User, error) {
	if !c.IsConfigured() {
		return User{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, ErrUnauthorized
	}

	var out User
	err := c.http.DoJSON(ctx, http.MethodGet, userPath, map[string]string{
		"Authorization": "Bearer " + token,
	}, nil, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden) {
			return User{}, ErrUnauthorized
		}
		return User{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.ID = strings.TrimSpace(out.ID)
	if out.ID == "" {
		return User{}, fmt.Errorf("%w: response missing user id", ErrUpstream)
	}
	out.Email = strings.TrimSpace(out.Email)
	return out, nil
}

// adminFromMetadata: app_metadata.role = "admin" (lo setea el panel del proveedor).
func adminFromMetadata(u User) bool {
	role, _ := u.AppMetadata["role"].(string)
	return strings.EqualFold(role, auth.RoleAdmin)
}
