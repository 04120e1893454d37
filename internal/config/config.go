package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bibliotecacth/sessiongate/internal/crypto"
	"github.com/bibliotecacth/sessiongate/internal/log"
	"github.com/bibliotecacth/sessiongate/internal/policy"
	"github.com/bibliotecacth/sessiongate/internal/urlutil"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrConfiguration marks configuration that prevents the gateway from starting.
var ErrConfiguration = errors.New("configuration error")

// Ledger backends
const (
	LedgerMemory    = "memory"
	LedgerFirestore = "firestore"
)

// sessionSecretMinLen is the shortest SESSION_SECRET accepted.
const sessionSecretMinLen = 16

// Config holds all environment-based configuration for the gateway.
type Config struct {
	// Google OAuth client. The secret is only needed for the redirect flow
	// but the redirect flow is always served.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret Secret `env:"GOOGLE_CLIENT_SECRET"`

	// Trusted public origin, e.g. https://bibliotecacth.netlify.app.
	// The OAuth redirect_uri and landing redirects are built from it,
	// never from request headers.
	SiteOrigin string `env:"SITE_ORIGIN"`

	// Key for session signatures. When empty a random secret is generated
	// at startup and every session is lost on restart.
	SessionSecret Secret `env:"SESSION_SECRET"`

	// Access policy
	AllowedDomain string `env:"ALLOWED_DOMAIN"`
	AllowedEmails string `env:"ALLOWED_EMAILS"`

	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"8h"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Mount point for the auth routes, e.g. /.netlify/functions/auth
	BasePath   string `env:"BASE_PATH"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Environment controls the cookie Secure flag
	Environment string `env:"ENVIRONMENT" envDefault:"production"`

	// Loan ledger
	LedgerBackend       string `env:"LEDGER_BACKEND" envDefault:"memory"`
	GCPProject          string `env:"GCP_PROJECT"`
	FirestoreDatabase   string `env:"FIRESTORE_DATABASE" envDefault:"(default)"`
	FirestoreCollection string `env:"FIRESTORE_COLLECTION" envDefault:"biblioteca_prestamos"`

	// Logging, applied to the process logger by Load
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// EphemeralSecret is set when SessionSecret was generated at startup.
	EphemeralSecret bool `env:"-"`
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing environment: %v", ErrConfiguration, err)
	}

	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	// LOG_* may come from .env, which init-time logger setup never sees.
	if err := log.Configure(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("%w: LOG_LEVEL: %v", ErrConfiguration, err)
	}

	if err := cfg.ensureSessionSecret(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.SiteOrigin = strings.TrimRight(strings.TrimSpace(c.SiteOrigin), "/")
	c.BasePath = strings.TrimRight(strings.TrimSpace(c.BasePath), "/")
	c.AllowedDomain = strings.ToLower(strings.TrimSpace(c.AllowedDomain))
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.LedgerBackend = strings.ToLower(strings.TrimSpace(c.LedgerBackend))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

func (c *Config) validate() error {
	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	if c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET is required")
	}

	if c.SiteOrigin == "" {
		return fmt.Errorf("SITE_ORIGIN is required")
	}
	origin, err := urlutil.ParseOrigin(c.SiteOrigin)
	if err != nil {
		return fmt.Errorf("SITE_ORIGIN: %w", err)
	}
	c.SiteOrigin = origin

	if c.SessionSecret != "" && len(c.SessionSecret) < sessionSecretMinLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters (got %d). Generate with: openssl rand -base64 32", sessionSecretMinLen, len(c.SessionSecret))
	}

	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("BASE_PATH must start with '/'")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT cannot be negative")
	}

	switch c.LedgerBackend {
	case LedgerMemory:
	case LedgerFirestore:
		if c.GCPProject == "" {
			return fmt.Errorf("GCP_PROJECT is required when LEDGER_BACKEND is firestore")
		}
		if c.FirestoreCollection == "" {
			return fmt.Errorf("FIRESTORE_COLLECTION is required when LEDGER_BACKEND is firestore")
		}
	default:
		return fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", LedgerMemory, LedgerFirestore, c.LedgerBackend)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", c.LogFormat)
	}

	return nil
}

// ensureSessionSecret generates an in-memory secret when none is configured.
// It is never written anywhere: persisting it is left to the operator.
func (c *Config) ensureSessionSecret() error {
	if c.SessionSecret != "" {
		return nil
	}
	secret, err := crypto.GenerateSecureToken()
	if err != nil {
		return fmt.Errorf("generating ephemeral session secret: %w", err)
	}
	c.SessionSecret = Secret(secret)
	c.EphemeralSecret = true

	log.LogWarnWithFields("config", "SESSION_SECRET not set, using an ephemeral secret; all sessions become invalid when the process restarts", nil)
	return nil
}

// Policy returns the access policy built from ALLOWED_DOMAIN and ALLOWED_EMAILS.
func (c *Config) Policy() policy.Policy {
	return policy.New(c.AllowedDomain, policy.ParseEmailList(c.AllowedEmails))
}

// IsDevelopment returns true when running locally, where cookies are sent over plain http.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// SecureCookies reports whether cookies carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return !c.IsDevelopment()
}

// RoutePath returns the server path for an auth route under BASE_PATH.
func (c *Config) RoutePath(name string) string {
	return c.BasePath + "/" + strings.TrimPrefix(name, "/")
}

// RedirectURI is the fixed OAuth callback URL registered with Google.
func (c *Config) RedirectURI() string {
	return urlutil.MustJoinPath(c.SiteOrigin, c.RoutePath("callback"))
}

// LandingURL returns the application page users land on after login or logout.
// outcome becomes a query flag, e.g. "login" yields /?login=ok.
func (c *Config) LandingURL(outcome string) string {
	landing := c.SiteOrigin + "/"
	if outcome == "" {
		return landing
	}
	flagged, err := urlutil.WithFlag(landing, outcome)
	if err != nil {
		return landing
	}
	return flagged
}
