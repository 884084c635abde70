// Package dashboard arma los números del panel admin a partir de los otros módulos.
package dashboard

import (
	"context"
	"fmt"

	"pet-adoption-marketplace/internal/domain/applications"
	"pet-adoption-marketplace/internal/ports/auth"

	"golang.org/x/sync/errgroup"
)

// RecentApplications es cuántas solicitudes nuevas muestra el panel.
const RecentApplications = 5

// ApplicationSummarizer también hace el chequeo de admin.
type ApplicationSummarizer interface {
	Summarize(ctx context.Context, sess *auth.Session, recent int) (applications.Summary, error)
}

type CountFunc func(ctx context.Context) (int, error)

type Deps struct {
	Applications ApplicationSummarizer
	Pets         CountFunc
	Shelters     CountFunc
	Products     CountFunc // opcional
}

type Service struct {
	apps     ApplicationSummarizer
	pets     CountFunc
	shelters CountFunc
	products CountFunc
}

func NewService(d Deps) *Service {
	return &Service{
		apps:     d.Applications,
		pets:     d.Pets,
		shelters: d.Shelters,
		products: d.Products,
	}
}

type Stats struct {
	Applications applications.Summary
	Pets         int
	Shelters     int
	Products     int
}

// Stats devuelve los totales del panel. Falla entero si falla cualquier conteo.
func (s *Service) Stats(ctx context.Context, sess *auth.Session) (Stats, error) {
	sum, err := s.apps.Summarize(ctx, sess, RecentApplications)
	if err != nil {
		return Stats{}, err
	}
	out := Stats{Applications: sum}

	g, gctx := errgroup.WithContext(ctx)
	count := func(name string, fn CountFunc, dst *int) {
		if fn == nil {
			return
		}
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			*dst = n
			return nil
		})
	}
	count("pets", s.pets, &out.Pets)
	count("shelters", s.shelters, &out.Shelters)
	count("products", s.products, &out.Products)

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return out, nil
}
