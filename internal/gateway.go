package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibliotecacth/sessiongate/internal/auth"
	"github.com/bibliotecacth/sessiongate/internal/config"
	"github.com/bibliotecacth/sessiongate/internal/crypto"
	"github.com/bibliotecacth/sessiongate/internal/idp"
	"github.com/bibliotecacth/sessiongate/internal/ledger"
	"github.com/bibliotecacth/sessiongate/internal/log"
	"github.com/bibliotecacth/sessiongate/internal/server"
	"github.com/bibliotecacth/sessiongate/internal/session"
	"golang.org/x/sync/errgroup"
)

// stateKeyInfo separates the OAuth state key from the session key.
const stateKeyInfo = "sessiongate oauth state"

// stateTTL is how long a login attempt may take.
const stateTTL = 10 * time.Minute

// Gateway is the complete application: config, collaborators and HTTP server.
type Gateway struct {
	config     *config.Config
	handler    http.Handler
	httpServer *server.HTTPServer
	ledger     ledger.Recorder
}

// NewGateway builds every dependency from cfg.
func NewGateway(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	p := cfg.Policy()
	log.LogInfoWithFields("gateway", "Building session gateway", map[string]any{
		"siteOrigin":  cfg.SiteOrigin,
		"redirectURI": cfg.RedirectURI(),
		"policy":      string(p.Mode()),
		"sessionTTL":  cfg.SessionTTL.String(),
		"ledger":      cfg.LedgerBackend,
	})

	provider, err := idp.NewGoogleProvider(ctx, idp.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: string(cfg.GoogleClientSecret),
		RedirectURI:  cfg.RedirectURI(),
		HostedDomain: cfg.AllowedDomain,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create identity provider: %w", err)
	}
	log.LogInfoWithFields("gateway", "Identity provider ready", map[string]any{
		"provider":     provider.Type(),
		"hostedDomain": cfg.AllowedDomain,
	})

	codec, err := session.NewCodec(cfg.SessionSecret.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create session codec: %w", err)
	}

	stateKey, err := crypto.DeriveKey(cfg.SessionSecret.Bytes(), stateKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to derive state key: %w", err)
	}

	recorder, err := setupLedger(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup ledger: %w", err)
	}

	handler := server.NewHandler(server.Dependencies{
		Config: cfg,
		Flow:   auth.NewFlow(provider, codec, p, cfg.SessionTTL, cfg.ProviderTimeout),
		States: crypto.NewStateSigner(stateKey, stateTTL),
		Gate:   auth.NewGate(codec),
		Ledger: recorder,
	})

	return &Gateway{
		config:     cfg,
		handler:    handler,
		httpServer: server.NewHTTPServer(handler, cfg.ListenAddr),
		ledger:     recorder,
	}, nil
}

// Handler returns the root HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Run serves until ctx is cancelled, SIGINT/SIGTERM arrives or the server fails,
// then shuts down within SHUTDOWN_TIMEOUT.
func (g *Gateway) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := g.httpServer.Start(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		log.LogInfoWithFields("gateway", "Starting graceful shutdown", map[string]any{
			"timeout": g.config.ShutdownTimeout.String(),
		})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), g.config.ShutdownTimeout)
		defer cancel()
		return g.httpServer.Stop(shutdownCtx)
	})

	err := eg.Wait()

	if closer, ok := g.ledger.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			log.LogWarnWithFields("gateway", "Failed to close ledger", map[string]any{
				"error": cerr.Error(),
			})
		}
	}

	if err != nil {
		log.LogErrorWithFields("gateway", "Shut down due to error", map[string]any{
			"error": err.Error(),
		})
		return err
	}
	log.LogInfoWithFields("gateway", "Shutdown complete", nil)
	return nil
}

func setupLedger(ctx context.Context, cfg *config.Config) (ledger.Recorder, error) {
	switch cfg.LedgerBackend {
	case config.LedgerFirestore:
		return ledger.NewFirestoreLedger(ctx, cfg.GCPProject, cfg.FirestoreDatabase, cfg.FirestoreCollection)
	default:
		return ledger.NewMemoryLedger(ledger.DefaultMemoryCapacity), nil
	}
}
