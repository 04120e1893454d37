package testutil

import (
	"context"

	"github.com/bibliotecacth/sessiongate/internal/idp"
	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"
)

// MockProvider is a testify mock of idp.Provider.
type MockProvider struct {
	mock.Mock
}

var _ idp.Provider = (*MockProvider)(nil)

func (m *MockProvider) Type() string {
	return "mock"
}

func (m *MockProvider) AuthURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth2.Token), args.Error(1)
}

func (m *MockProvider) VerifyIDToken(ctx context.Context, rawIDToken string) (*idp.Identity, error) {
	args := m.Called(ctx, rawIDToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Identity), args.Error(1)
}

// TokenWithIDToken builds a token endpoint response carrying rawIDToken.
func TokenWithIDToken(rawIDToken string) *oauth2.Token {
	token := &oauth2.Token{AccessToken: "access-token", TokenType: "Bearer"}
	return token.WithExtra(map[string]any{"id_token": rawIDToken})
}

// SchoolIdentity returns a verified identity in domain.
func SchoolIdentity(email, domain string) *idp.Identity {
	return &idp.Identity{
		ProviderType:  "google",
		Subject:       "1234567890",
		Email:         email,
		EmailVerified: true,
		HostedDomain:  domain,
		Name:          "Estudiante",
		Picture:       "https://lh3.googleusercontent.com/a/photo",
	}
}
