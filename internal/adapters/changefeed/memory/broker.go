package memory

import (
	"context"
	"sync"

	"pet-adoption-marketplace/internal/ports/changefeed"
)

const defaultBuffer = 64

// Broker es un change feed in-process. Publish nunca bloquea: si el buffer de
// un suscriptor está lleno, ese suscriptor se corta con ErrSlowConsumer.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
	buffer int
	closed bool
}

func NewBroker() *Broker {
	return NewBrokerWithBuffer(defaultBuffer)
}

func NewBrokerWithBuffer(buffer int) *Broker {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broker{
		subs:   make(map[int]*subscription),
		buffer: buffer,
	}
}

func (b *Broker) Publish(ctx context.Context, c changefeed.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return changefeed.ErrClosed
	}

	for id, s := range b.subs {
		if !s.filter.Match(c) {
			continue
		}
		select {
		case s.ch <- c:
		default:
			delete(b.subs, id)
			s.end(changefeed.ErrSlowConsumer)
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, f changefeed.Filter) (changefeed.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, changefeed.ErrClosed
	}
	id := b.nextID
	b.nextID++
	s := &subscription{
		broker: b,
		id:     id,
		filter: f,
		ch:     make(chan changefeed.Change, b.buffer),
		done:   make(chan struct{}),
	}
	b.subs[id] = s
	b.mu.Unlock()

	// Cancelar el ctx equivale a Close().
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	return s, nil
}

// DropAll corta todas las suscripciones como si se cayera la conexión.
func (b *Broker) DropAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, s := range b.subs {
		delete(b.subs, id)
		s.end(changefeed.ErrDropped)
	}
}

// Subscribers devuelve cuántas suscripciones siguen abiertas.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close corta todo y rechaza nuevos Publish/Subscribe.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for id, s := range b.subs {
		delete(b.subs, id)
		s.end(changefeed.ErrClosed)
	}
	return nil
}

type subscription struct {
	broker *Broker
	id     int
	filter changefeed.Filter
	ch     chan changefeed.Change
	done   chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

func (s *subscription) Events() <-chan changefeed.Change { return s.ch }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()

	delete(s.broker.subs, s.id)
	s.end(nil)
	return nil
}

// end debe llamarse con broker.mu tomado (serializa con los envíos de Publish).
func (s *subscription) end(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.ch)
		close(s.done)
	})
}
