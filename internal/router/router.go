package router

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"pet-adoption-marketplace/internal/adapters/auth/remoteidp"
	memfeed "pet-adoption-marketplace/internal/adapters/changefeed/memory"
	"pet-adoption-marketplace/internal/adapters/notify/mailer"
	mem "pet-adoption-marketplace/internal/adapters/storage/memory"
	pg "pet-adoption-marketplace/internal/adapters/storage/postgres"
	"pet-adoption-marketplace/internal/domain/applications"
	"pet-adoption-marketplace/internal/domain/cart"
	"pet-adoption-marketplace/internal/domain/dashboard"
	"pet-adoption-marketplace/internal/domain/favorites"
	"pet-adoption-marketplace/internal/domain/identity"
	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/shelters"
	"pet-adoption-marketplace/internal/middleware"
	"pet-adoption-marketplace/internal/platform/config"
	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/platform/metrics"
	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/ports/changefeed"
	"pet-adoption-marketplace/internal/ports/notify"

	_ "pet-adoption-marketplace/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Config config.Config
	Log    logger.Logger // opcional

	// Opcional: si viene, usa Postgres. Si no, in-memory con catálogo de ejemplo.
	DB *sql.DB

	// Opcional: sin feed se usa el broker in-process (una sola instancia).
	Feed changefeed.Feed

	// AuthVerifier extra (además del JWT propio y del IDP configurado).
	AuthVerifier auth.AuthVerifier

	// Opcionales; si faltan se arman desde Config (MAILER_URL) o se loguean.
	Orders notify.OrderDispatcher
	Resets notify.PasswordResetDispatcher
}

type repos struct {
	shelters     shelters.Repository
	pets         pets.Repository
	applications applications.Repository
	favorites    favorites.Repository
	identity     identity.Repository
	products     cart.ProductRepository
	cart         cart.Repository
}

func NewRouter(opts Options) (http.Handler, error) {
	cfg := opts.Config
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	rp, err := buildRepos(opts.DB, log)
	if err != nil {
		return nil, err
	}

	feed := opts.Feed
	if feed == nil {
		feed = memfeed.NewBroker()
	}

	tokens, err := buildTokens(cfg, rp.identity, log)
	if err != nil {
		return nil, err
	}
	verifier, err := buildVerifier(cfg, tokens, opts.AuthVerifier)
	if err != nil {
		return nil, err
	}

	orders, resets, err := buildDispatchers(cfg, opts, log)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Instrument)

	r.Use(middleware.AuthContext(verifier, cfg.DevAuth))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Services por módulo
	sheltersSvc := shelters.NewService(rp.shelters, shelters.WithPetCount(func(ctx context.Context, shelterID string) (int, error) {
		return rp.pets.Count(ctx, pets.ListFilter{ShelterID: shelterID})
	}))
	petsSvc := pets.NewService(rp.pets, sheltersSvc)
	identitySvc := identity.NewService(identity.Deps{
		Repo:   rp.identity,
		Tokens: tokens,
		Admins: cfg.IsAdminEmail,
		Resets: resets,
		Log:    log.With(map[string]any{"module": "identity"}),
	})
	appsSvc := applications.NewService(applications.Deps{
		Repo:       rp.applications,
		Pets:       petsSvc,
		Applicants: applicantsFrom(identitySvc),
		Feed:       feed,
		Log:        log.With(map[string]any{"module": "applications"}),
		Wizards:    applications.NewWizardStore(cfg.WizardTTL),
	})
	favSvc := favorites.NewService(rp.favorites, petsSvc)
	cartSvc := cart.NewService(cart.Deps{
		Products: rp.products,
		Items:    rp.cart,
		Orders:   orders,
		Log:      log.With(map[string]any{"module": "cart"}),
	})
	countPets := func(ctx context.Context) (int, error) { return petsSvc.Count(ctx, "") }
	countProducts := func(ctx context.Context) (int, error) {
		items, err := cartSvc.ListProducts(ctx, "")
		return len(items), err
	}
	dashSvc := dashboard.NewService(dashboard.Deps{
		Applications: appsSvc,
		Pets:         countPets,
		Shelters:     sheltersSvc.Count,
		Products:     countProducts,
	})

	rps, burst := cfg.RateLimitRPS, cfg.RateLimitBurst
	if rps <= 0 || burst <= 0 {
		rps, burst = 5, 10
	}
	limiter := middleware.NewRateLimiter(rps, burst, log)

	// Rutas por módulo
	shelters.RegisterRoutes(r, sheltersSvc)
	pets.RegisterRoutes(r, petsSvc)
	applications.RegisterRoutes(r, appsSvc)
	favorites.RegisterRoutes(r, favSvc)
	identity.RegisterRoutes(r, identitySvc, limiter.Handler)
	cart.RegisterRoutes(r, cartSvc)
	dashboard.RegisterRoutes(r, dashSvc)

	return r, nil
}

func buildRepos(db *sql.DB, log logger.Logger) (repos, error) {
	if db != nil {
		return repos{
			shelters:     pg.NewSheltersRepo(db),
			pets:         pg.NewPetsRepo(db),
			applications: pg.NewApplicationsRepo(db),
			favorites:    pg.NewFavoritesRepo(db),
			identity:     pg.NewIdentityRepo(db),
			products:     pg.NewProductsRepo(db),
			cart:         pg.NewCartRepo(db),
		}, nil
	}

	rp := repos{
		shelters:     mem.NewShelterRepo(),
		pets:         mem.NewPetRepo(),
		applications: mem.NewApplicationRepo(),
		favorites:    mem.NewFavoriteRepo(),
		identity:     mem.NewIdentityRepo(),
		products:     mem.NewProductRepo(),
		cart:         mem.NewCartRepo(),
	}
	if err := mem.Seed(context.Background(), rp.shelters, rp.pets, rp.products, time.Now().UTC()); err != nil {
		return repos{}, fmt.Errorf("seed memory store: %w", err)
	}
	log.Info("using in-memory store", map[string]any{"seeded": true})
	return rp, nil
}

// applicantsFrom expone los perfiles de identity como solicitantes.
func applicantsFrom(svc *identity.Service) applications.ApplicantLookup {
	return func(ctx context.Context, userID string) (applications.Applicant, error) {
		p, err := svc.ProfileOf(ctx, userID)
		if err != nil {
			return applications.Applicant{}, err
		}
		return applications.Applicant{FullName: p.FullName, Phone: p.Phone}, nil
	}
}

// Sin JWT_SECRET se genera uno efímero: los tokens no sobreviven un reinicio.
func buildTokens(cfg config.Config, store identity.RevocationStore, log logger.Logger) (*identity.Tokens, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		secret = hex.EncodeToString(b)
		log.Warn("JWT_SECRET not set, using an ephemeral secret", nil)
	}
	tokens, err := identity.NewTokens(secret, cfg.JWTTTL, store)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	return tokens, nil
}

func buildVerifier(cfg config.Config, tokens *identity.Tokens, extra auth.AuthVerifier) (auth.AuthVerifier, error) {
	verifiers := []auth.AuthVerifier{tokens, extra}
	if cfg.IDPURL != "" {
		client, err := remoteidp.NewClient(remoteidp.Config{BaseURL: cfg.IDPURL, APIKey: cfg.IDPAPIKey})
		if err != nil {
			return nil, fmt.Errorf("identity provider: %w", err)
		}
		verifiers = append(verifiers, remoteidp.NewVerifier(client, cfg.IsAdminEmail))
	}
	return auth.FirstOf(verifiers...), nil
}

func buildDispatchers(cfg config.Config, opts Options, log logger.Logger) (notify.OrderDispatcher, notify.PasswordResetDispatcher, error) {
	orders, resets := opts.Orders, opts.Resets
	if cfg.MailerURL != "" && (orders == nil || resets == nil) {
		m, err := mailer.New(mailer.Config{
			BaseURL:    cfg.MailerURL,
			APIKey:     cfg.MailerAPIKey,
			OwnerEmail: cfg.OwnerEmail,
		})
		if err != nil {
			return nil, nil, err
		}
		if orders == nil {
			orders = m
		}
		if resets == nil {
			resets = m
		}
	}
	if orders == nil {
		orders = mailer.NewLogDispatcher(log)
	}
	// resets nil: identity devuelve el token en la respuesta (dev).
	return orders, resets, nil
}
