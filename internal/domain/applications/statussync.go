package applications

import (
	"context"
	"errors"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/platform/metrics"
	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/changefeed"
)

var errSyncStarted = errors.New("status sync: already started")

// Loader son las lecturas que hace el sync. Lo implementa Service.
type Loader interface {
	ListByUserWithPet(ctx context.Context, userID string) ([]ApplicationWithPet, error)
	GetWithPet(ctx context.Context, id string) (ApplicationWithPet, error)
}

type SyncOptions struct {
	MinBackoff time.Duration // default 250ms
	MaxBackoff time.Duration // default 10s
	Log        logger.Logger
}

// StatusSync mantiene en memoria las solicitudes de un usuario, más nuevas
// primero, aplicando los cambios del feed. Si la suscripción se cae marca la
// caché como vieja, se resuscribe con backoff y vuelve a leer todo.
type StatusSync struct {
	loader Loader
	feed   changefeed.Feed
	userID string
	log    logger.Logger

	minBackoff time.Duration
	maxBackoff time.Duration

	mu    sync.RWMutex
	items []ApplicationWithPet
	err   error
	stale bool

	changes chan struct{}

	started   bool
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func NewStatusSync(sess *auth.Session, loader Loader, feed changefeed.Feed, opts SyncOptions) (*StatusSync, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = 250 * time.Millisecond
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = 10 * time.Second
		if opts.MaxBackoff < opts.MinBackoff {
			opts.MaxBackoff = opts.MinBackoff
		}
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	return &StatusSync{
		loader:     loader,
		feed:       feed,
		userID:     sess.UserID,
		log:        opts.Log.With(map[string]any{"user_id": sess.UserID}),
		minBackoff: opts.MinBackoff,
		maxBackoff: opts.MaxBackoff,
		changes:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}, nil
}

// Start abre la suscripción, hace la lectura inicial y procesa eventos en
// segundo plano hasta Close o hasta que ctx termine. Las fallas de lectura o
// suscripción quedan en Err(); no cortan el sync.
func (s *StatusSync) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		cancel()
		return changefeed.ErrClosed
	case s.started:
		s.mu.Unlock()
		cancel()
		return errSyncStarted
	}
	s.started = true
	s.cancel = cancel
	s.mu.Unlock()

	// Suscribir antes de leer: lo que cambie durante la lectura queda en el buffer.
	sub, err := s.feed.Subscribe(runCtx, s.filter())
	if err != nil {
		s.markStale(&SyncError{Op: "subscribe", Err: err})
	}
	s.reload(runCtx, "initial read", sub != nil)

	metrics.SyncOpened()
	go s.run(runCtx, sub)
	return nil
}

// Close corta la suscripción y espera a que termine el loop.
func (s *StatusSync) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		started, cancel := s.started, s.cancel
		s.mu.Unlock()
		if !started {
			close(s.done)
			return
		}
		cancel()
		<-s.done
		metrics.SyncClosed()
	})
	return nil
}

// Done se cierra cuando el loop terminó.
func (s *StatusSync) Done() <-chan struct{} { return s.done }

// Snapshot devuelve una copia de la caché.
func (s *StatusSync) Snapshot() []ApplicationWithPet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ApplicationWithPet, len(s.items))
	copy(out, s.items)
	return out
}

// Err es la última falla de sincronización (nil si está al día).
func (s *StatusSync) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *StatusSync) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// Changes recibe una señal (coalescida) cada vez que cambia la caché o su estado.
func (s *StatusSync) Changes() <-chan struct{} { return s.changes }

func (s *StatusSync) filter() changefeed.Filter {
	return changefeed.Filter{Table: changefeed.TableAdoptionApplications, UserID: s.userID}
}

func (s *StatusSync) run(ctx context.Context, sub changefeed.Subscription) {
	defer close(s.done)

	for {
		if sub == nil {
			sub = s.resubscribe(ctx)
			if sub == nil {
				return
			}
			s.reload(ctx, "reconcile", true)
		}

		select {
		case <-ctx.Done():
			_ = sub.Close()
			return

		case c, ok := <-sub.Events():
			if !ok {
				if ctx.Err() != nil {
					return
				}
				cause := sub.Err()
				if cause == nil {
					cause = changefeed.ErrDropped
				}
				s.log.Warn("status subscription dropped", map[string]any{"err": cause})
				s.markStale(&SyncError{Op: "subscription", Err: cause})
				sub = nil
				continue
			}
			s.apply(ctx, c)
		}
	}
}

// resubscribe reintenta con backoff exponencial acotado. Devuelve nil si ctx terminó.
func (s *StatusSync) resubscribe(ctx context.Context) changefeed.Subscription {
	delay := s.minBackoff
	for {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}

		sub, err := s.feed.Subscribe(ctx, s.filter())
		if err == nil {
			return sub
		}
		if ctx.Err() != nil {
			return nil
		}
		s.markStale(&SyncError{Op: "subscribe", Err: err})

		delay *= 2
		if delay > s.maxBackoff {
			delay = s.maxBackoff
		}
	}
}

// reload reemplaza la caché con una lectura masiva. Si falla deja la caché
// como estaba (vacía en la lectura inicial) y registra el error. Sin
// suscripción viva la caché sigue marcada como vieja aunque la lectura ande.
func (s *StatusSync) reload(ctx context.Context, op string, subscribed bool) {
	items, err := s.loader.ListByUserWithPet(ctx, s.userID)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("status sync read failed", map[string]any{"op": op, "err": err})
		}
		s.markStale(&SyncError{Op: op, Err: err})
		return
	}

	s.mu.Lock()
	s.items = dedupe(items)
	if subscribed {
		s.err = nil
		s.stale = false
	}
	s.mu.Unlock()
	s.signal()
}

func (s *StatusSync) apply(ctx context.Context, c changefeed.Change) {
	if c.UserID != s.userID || c.RecordID == "" {
		return
	}

	switch c.Op {
	case changefeed.OpDelete:
		s.remove(c.RecordID)

	case changefeed.OpInsert, changefeed.OpUpdate:
		a, err := s.loader.GetWithPet(ctx, c.RecordID)
		if errors.Is(err, ErrNotFound) {
			s.remove(c.RecordID)
			return
		}
		if err != nil {
			s.markStale(&SyncError{Op: "refetch", Err: err})
			return
		}
		if a.UserID != s.userID {
			return
		}
		s.upsert(a)
	}
}

// upsert reemplaza en el lugar o agrega al principio (se asume que lo nuevo es lo más reciente).
func (s *StatusSync) upsert(a ApplicationWithPet) {
	s.mu.Lock()
	replaced := false
	for i := range s.items {
		if s.items[i].ID == a.ID {
			s.items[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		s.items = append([]ApplicationWithPet{a}, s.items...)
	}
	s.mu.Unlock()
	s.signal()
}

func (s *StatusSync) remove(id string) {
	s.mu.Lock()
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.mu.Unlock()
	s.signal()
}

func (s *StatusSync) markStale(err error) {
	s.mu.Lock()
	s.err = err
	s.stale = true
	s.mu.Unlock()
	s.signal()
}

func (s *StatusSync) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func dedupe(items []ApplicationWithPet) []ApplicationWithPet {
	seen := make(map[string]struct{}, len(items))
	out := make([]ApplicationWithPet, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
