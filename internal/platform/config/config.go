package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config agrupa todo lo que el servicio lee del entorno.
// Sin DB_DSN se usan repos in-memory; sin REDIS_URL el change feed es local al proceso.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	AppName string `env:"APP_NAME" envDefault:"pet-adoption-marketplace"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	DBDSN    string `env:"DB_DSN"`
	RedisURL string `env:"REDIS_URL"`

	JWTSecret   string        `env:"JWT_SECRET"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"24h"`
	AdminEmails []string      `env:"ADMIN_EMAILS" envSeparator:","`

	// DevAuth habilita X-Debug-User-ID / X-Debug-Admin (solo dev y tests).
	DevAuth bool `env:"DEV_AUTH" envDefault:"false"`

	// Proveedor externo de sesiones (opcional, además del JWT propio).
	IDPURL    string `env:"IDP_URL"`
	IDPAPIKey string `env:"IDP_API_KEY"`

	MailerURL    string `env:"MAILER_URL"`
	MailerAPIKey string `env:"MAILER_API_KEY"`
	OwnerEmail   string `env:"OWNER_EMAIL"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	WizardTTL time.Duration `env:"WIZARD_TTL" envDefault:"2h"`
}

// Load lee la configuración desde variables de entorno.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Port = strings.TrimPrefix(strings.TrimSpace(cfg.Port), ":")
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.JWTTTL <= 0 {
		return Config{}, fmt.Errorf("JWT_TTL must be positive")
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	admins := make([]string, 0, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			admins = append(admins, e)
		}
	}
	cfg.AdminEmails = admins

	return cfg, nil
}

// Addr devuelve la dirección de escucha para http.Server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// IsAdminEmail indica si el email figura en ADMIN_EMAILS.
func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range c.AdminEmails {
		if a == email {
			return true
		}
	}
	return false
}
