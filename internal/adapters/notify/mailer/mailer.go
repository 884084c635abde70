package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"pet-adoption-marketplace/internal/platform/httpclient"
	"pet-adoption-marketplace/internal/ports/notify"
)

var ErrNoRecipient = errors.New("mailer: owner email not configured")

const messagesPath = "/v1/messages"

// Message es el payload que acepta el proveedor de email transaccional.
type Message struct {
	To      string `json:"to"`
	ReplyTo string `json:"replyTo,omitempty"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Mailer manda órdenes al dueño de la tienda y tokens de reseteo al usuario.
// Un intento por mensaje; si falla, el error vuelve al caller.
type Mailer struct {
	client     *httpclient.Client
	ownerEmail string
	resetURL   string
}

type Config struct {
	BaseURL    string
	APIKey     string
	OwnerEmail string
	// ResetURL es el link del front; se le agrega ?token=.
	ResetURL string
}

func New(cfg Config) (*Mailer, error) {
	c, err := httpclient.NewFromConfig(httpclient.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}
	if c.BaseURL == "" {
		return nil, errors.New("mailer: base url required")
	}
	return &Mailer{
		client:     c,
		ownerEmail: strings.TrimSpace(cfg.OwnerEmail),
		resetURL:   strings.TrimSpace(cfg.ResetURL),
	}, nil
}

func (m *Mailer) DispatchOrder(ctx context.Context, o notify.Order) error {
	if m.ownerEmail == "" {
		return ErrNoRecipient
	}
	body, err := renderOrder(o)
	if err != nil {
		return err
	}
	return m.send(ctx, Message{
		To:      m.ownerEmail,
		ReplyTo: o.UserEmail,
		Subject: "New Order Received",
		HTML:    body,
	})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, email, token string) error {
	var buf bytes.Buffer
	if err := resetTmpl.Execute(&buf, struct {
		Link  string
		Token string
	}{Link: m.resetURL, Token: token}); err != nil {
		return fmt.Errorf("mailer: render reset: %w", err)
	}
	return m.send(ctx, Message{
		To:      email,
		Subject: "Reset your password",
		HTML:    buf.String(),
	})
}

func (m *Mailer) send(ctx context.Context, msg Message) error {
	if err := m.client.PostJSON(ctx, messagesPath, msg, nil); err != nil {
		return fmt.Errorf("mailer: send %q: %w", msg.Subject, err)
	}
	return nil
}

var orderTmpl = template.Must(template.New("order").Funcs(template.FuncMap{
	"money": formatCents,
}).Parse(`<h2>New Order Received</h2>
<p>Order from: {{.UserEmail}}</p>
<p>Order ID: {{.ID}}</p>
<h3>Order Details:</h3>
<ul>
{{- range .Lines}}
  <li>{{.ProductName}} - Quantity: {{.Quantity}} - Price: {{money .LineTotalCents}}</li>
{{- end}}
</ul>
<p>Total: {{money .TotalCents}}</p>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`<h2>Reset your password</h2>
{{- if .Link}}
<p><a href="{{.Link}}?token={{.Token}}">Choose a new password</a></p>
{{- else}}
<p>Your reset code: <code>{{.Token}}</code></p>
{{- end}}
<p>The link expires in one hour. If you did not ask for it, ignore this email.</p>
`))

func renderOrder(o notify.Order) (string, error) {
	var buf bytes.Buffer
	if err := orderTmpl.Execute(&buf, o); err != nil {
		return "", fmt.Errorf("mailer: render order: %w", err)
	}
	return buf.String(), nil
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, c/100, c%100)
}
