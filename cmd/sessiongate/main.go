package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bibliotecacth/sessiongate/internal"
	"github.com/bibliotecacth/sessiongate/internal/config"
	"github.com/bibliotecacth/sessiongate/internal/log"
)

var BuildVersion = "dev"

const sampleEnv = `# Google OAuth client (APIs & Services > Credentials)
GOOGLE_CLIENT_ID=
GOOGLE_CLIENT_SECRET=

# Public origin of the library site; the redirect URI is SITE_ORIGIN + BASE_PATH + /callback
SITE_ORIGIN=https://bibliotecacth.netlify.app
BASE_PATH=/.netlify/functions/auth

# At least 16 characters. Leave empty only for local testing.
SESSION_SECRET=

# Access policy: an email list wins over the domain
ALLOWED_DOMAIN=theodoro.edu.co
ALLOWED_EMAILS=

SESSION_TTL=8h
PROVIDER_TIMEOUT=10s
LISTEN_ADDR=:8080
ENVIRONMENT=production

# memory or firestore
LEDGER_BACKEND=memory
GCP_PROJECT=
FIRESTORE_DATABASE=(default)
FIRESTORE_COLLECTION=biblioteca_prestamos

LOG_LEVEL=info
LOG_FORMAT=text
`

func generateEnvFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(sampleEnv), 0600); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}
	return nil
}

func validateConfig() error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Result: FAIL\n  - %v\n", err)
		return err
	}

	p := cfg.Policy()
	fmt.Printf("Site origin:  %s\n", cfg.SiteOrigin)
	fmt.Printf("Redirect URI: %s\n", cfg.RedirectURI())
	fmt.Printf("Policy:       %s\n", p.Mode())
	fmt.Printf("Ledger:       %s\n", cfg.LedgerBackend)
	if cfg.EphemeralSecret {
		fmt.Println("\nWarnings (1):\n  - SESSION_SECRET not set, sessions will not survive a restart")
		fmt.Println("\nResult: FAIL (warnings present)")
		return fmt.Errorf("validation failed: 0 error(s), 1 warning(s)")
	}
	fmt.Println("\nResult: PASS")
	return nil
}

func main() {
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	envInit := flag.String("env-init", "", "write a sample .env file at the specified path")
	validate := flag.Bool("validate", false, "validate environment configuration and exit")
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}
	if *envInit != "" {
		if err := generateEnvFile(*envInit); err != nil {
			log.LogError("Failed to generate env file: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Generated sample env file at: %s\n", *envInit)
		return
	}
	if *validate {
		if err := validateConfig(); err != nil {
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	log.LogInfoWithFields("main", "Starting sessiongate", map[string]any{
		"version": BuildVersion,
		"addr":    cfg.ListenAddr,
	})

	ctx := context.Background()
	gateway, err := internal.NewGateway(ctx, cfg)
	if err != nil {
		log.LogError("Failed to create gateway: %v", err)
		os.Exit(1)
	}

	if err := gateway.Run(ctx); err != nil {
		log.LogError("Server stopped: %v", err)
		os.Exit(1)
	}
}
