package idp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	emailutil "github.com/bibliotecacth/sessiongate/internal/emailutil"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// TokenValidator validates Google-signed ID tokens for an audience.
// *idtoken.Validator satisfies it.
type TokenValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleConfig configures a GoogleProvider.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// HostedDomain is sent as the hd hint on the consent screen.
	HostedDomain string

	// Optional overrides, used by tests.
	Endpoint   *oauth2.Endpoint
	Validator  TokenValidator
	HTTPClient *http.Client
}

// GoogleProvider implements the Provider interface for Google OAuth.
// Google has specific quirks like `hd` for hosted domain.
type GoogleProvider struct {
	config       oauth2.Config
	hostedDomain string
	validator    TokenValidator
	httpClient   *http.Client
}

// NewGoogleProvider creates a new Google OAuth provider.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("google client id is required")
	}

	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	validator := cfg.Validator
	if validator == nil {
		v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(httpClient))
		if err != nil {
			return nil, fmt.Errorf("failed to create id token validator: %w", err)
		}
		validator = v
	}

	return &GoogleProvider{
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		hostedDomain: emailutil.Normalize(cfg.HostedDomain),
		validator:    validator,
		httpClient:   httpClient,
	}, nil
}

// Type returns the provider type.
func (p *GoogleProvider) Type() string {
	return "google"
}

// AuthURL generates the authorization URL.
// A refresh token is requested with offline access and forced consent even
// though sessions never use it.
func (p *GoogleProvider) AuthURL(state string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	}
	if p.hostedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", p.hostedDomain))
	}
	return p.config.AuthCodeURL(state, opts...)
}

// ExchangeCode exchanges an authorization code for tokens.
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	return p.config.Exchange(ctx, code)
}

// VerifyIDToken validates the token against Google's keys with the client id as audience.
func (p *GoogleProvider) VerifyIDToken(ctx context.Context, rawIDToken string) (*Identity, error) {
	payload, err := p.validator.Validate(ctx, rawIDToken, p.config.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate id token: %w", err)
	}

	identity := &Identity{
		ProviderType:  "google",
		Subject:       payload.Subject,
		Email:         emailutil.Normalize(stringClaim(payload.Claims, "email")),
		EmailVerified: boolClaim(payload.Claims, "email_verified"),
		HostedDomain:  emailutil.Normalize(stringClaim(payload.Claims, "hd")),
		Name:          stringClaim(payload.Claims, "name"),
		Picture:       stringClaim(payload.Claims, "picture"),
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("id token has no email claim")
	}
	return identity, nil
}

func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}

// boolClaim accepts both JSON booleans and the "true"/"false" strings some
// Google tokens carry for email_verified.
func boolClaim(claims map[string]any, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}
