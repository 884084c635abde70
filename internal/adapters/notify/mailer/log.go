package mailer

import (
	"context"

	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/ports/notify"
)

// LogDispatcher reemplaza al mailer en dev: deja la orden en el log.
type LogDispatcher struct {
	log logger.Logger
}

func NewLogDispatcher(log logger.Logger) *LogDispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogDispatcher{log: log.With(map[string]any{"component": "mailer"})}
}

func (d *LogDispatcher) DispatchOrder(_ context.Context, o notify.Order) error {
	d.log.Info("order dispatched (log only)", map[string]any{
		"order_id":    o.ID,
		"user_email":  o.UserEmail,
		"lines":       len(o.Lines),
		"total_cents": o.TotalCents,
	})
	return nil
}
