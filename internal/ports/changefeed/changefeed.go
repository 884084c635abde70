// Package changefeed modela las notificaciones de cambio del record store
// como una suscripción cancelable que produce una secuencia de eventos.
package changefeed

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrDropped: la conexión del feed se cortó; el consumidor puede resuscribirse.
	ErrDropped = errors.New("changefeed: subscription dropped")

	// ErrSlowConsumer: el buffer del suscriptor se llenó y se lo desconectó.
	ErrSlowConsumer = errors.New("changefeed: consumer too slow")

	ErrClosed = errors.New("changefeed: closed")
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

const TableAdoptionApplications = "adoption_applications"

// Change describe una fila que cambió. No trae la fila: el consumidor la re-lee.
type Change struct {
	Table    string    `json:"table"`
	Op       Op        `json:"op"`
	RecordID string    `json:"record_id"`
	UserID   string    `json:"user_id"`
	At       time.Time `json:"at"`
}

// Filter selecciona cambios por tabla y, opcionalmente, por usuario.
type Filter struct {
	Table  string
	UserID string
}

func (f Filter) Match(c Change) bool {
	if f.Table != "" && f.Table != c.Table {
		return false
	}
	if uid := strings.TrimSpace(f.UserID); uid != "" && uid != c.UserID {
		return false
	}
	return true
}

// Subscription entrega eventos en el orden en que el feed los emitió.
// Events() se cierra cuando la suscripción termina; Err() dice por qué
// (nil si la cerró el consumidor con Close).
type Subscription interface {
	Events() <-chan Change
	Err() error
	Close() error
}

type Feed interface {
	Publish(ctx context.Context, c Change) error
	Subscribe(ctx context.Context, f Filter) (Subscription, error)
}
