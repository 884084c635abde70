// Package redisfeed reparte los cambios entre instancias vía Redis pub/sub.
// Un canal por tabla; el filtro por usuario se aplica del lado del suscriptor.
package redisfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/ports/changefeed"

	"github.com/go-redis/redis/v8"
)

const (
	defaultPrefix = "petadopt:changes:"
	bufferSize    = 64
)

type Feed struct {
	client *redis.Client
	prefix string
	log    logger.Logger
}

// Open parsea REDIS_URL, crea el cliente y verifica conexión.
func Open(ctx context.Context, url string, log logger.Logger) (*Feed, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(client, log), nil
}

func New(client *redis.Client, log logger.Logger) *Feed {
	if log == nil {
		log = logger.Nop()
	}
	return &Feed{client: client, prefix: defaultPrefix, log: log}
}

func (f *Feed) Close() error {
	return f.client.Close()
}

func (f *Feed) channel(table string) string {
	return f.prefix + table
}

func (f *Feed) Publish(ctx context.Context, c changefeed.Change) error {
	payload, err := encode(c)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, f.channel(c.Table), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (f *Feed) Subscribe(ctx context.Context, filter changefeed.Filter) (changefeed.Subscription, error) {
	if strings.TrimSpace(filter.Table) == "" {
		return nil, fmt.Errorf("redisfeed: table required")
	}

	ps := f.client.Subscribe(ctx, f.channel(filter.Table))
	// Esperar confirmación para que los Publish posteriores no se pierdan.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	s := &subscription{
		ps:     ps,
		filter: filter,
		out:    make(chan changefeed.Change, bufferSize),
		stop:   make(chan struct{}),
		log:    f.log,
	}
	s.wg.Add(1)
	go s.pump(ctx)
	return s, nil
}

type subscription struct {
	ps     *redis.PubSub
	filter changefeed.Filter
	out    chan changefeed.Change
	stop   chan struct{}
	log    logger.Logger

	wg   sync.WaitGroup
	once sync.Once

	mu  sync.Mutex
	err error
}

func (s *subscription) Events() <-chan changefeed.Change { return s.out }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		err = s.ps.Close()
		s.wg.Wait()
	})
	return err
}

func (s *subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *subscription) pump(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.out)

	msgs := s.ps.Channel()
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				// Channel() se cierra cuando el PubSub muere sin Close() nuestro.
				select {
				case <-s.stop:
				default:
					s.setErr(changefeed.ErrDropped)
				}
				return
			}
			c, err := decode(msg.Payload)
			if err != nil {
				s.log.Warn("changefeed: bad payload", map[string]any{"channel": msg.Channel, "err": err})
				continue
			}
			if !s.filter.Match(c) {
				continue
			}
			select {
			case s.out <- c:
			default:
				s.setErr(changefeed.ErrSlowConsumer)
				return
			}
		}
	}
}

func encode(c changefeed.Change) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode change: %w", err)
	}
	return b, nil
}

func decode(payload string) (changefeed.Change, error) {
	var c changefeed.Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return changefeed.Change{}, fmt.Errorf("decode change: %w", err)
	}
	if c.Table == "" || c.RecordID == "" {
		return changefeed.Change{}, fmt.Errorf("decode change: missing table or record_id")
	}
	switch c.Op {
	case changefeed.OpInsert, changefeed.OpUpdate, changefeed.OpDelete:
	default:
		return changefeed.Change{}, fmt.Errorf("decode change: unknown op %q", c.Op)
	}
	return c, nil
}
