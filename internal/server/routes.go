package server

import (
	"net/http"

	"github.com/bibliotecacth/sessiongate/internal/auth"
	"github.com/bibliotecacth/sessiongate/internal/config"
	"github.com/bibliotecacth/sessiongate/internal/crypto"
	"github.com/bibliotecacth/sessiongate/internal/ledger"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Config *config.Config
	Flow   *auth.Flow
	States crypto.StateSigner
	Gate   *auth.Gate
	Ledger ledger.Recorder
}

// NewHandler registers every route on a fresh mux. Auth and loan routes are
// mounted under BASE_PATH; /health is always at the root.
func NewHandler(deps Dependencies) http.Handler {
	mux := http.NewServeMux()
	route := deps.Config.RoutePath

	cors := NewCORSMiddleware(deps.Config.SiteOrigin)
	logger := NewLoggerMiddleware("http")
	recoverer := NewRecoverMiddleware("http")
	sessionRequired := NewSessionMiddleware(deps.Gate)

	public := []MiddlewareFunc{cors, logger, recoverer}
	protected := []MiddlewareFunc{sessionRequired, cors, logger, recoverer}

	authHandlers := NewAuthHandlers(deps.Flow, deps.States, deps.Config)
	loanHandlers := NewLoanHandlers(deps.Ledger)

	mux.Handle("/health", NewHealthHandler())
	mux.Handle(route("login"), ChainMiddleware(http.HandlerFunc(authHandlers.LoginHandler), public...))
	mux.Handle(route("callback"), ChainMiddleware(http.HandlerFunc(authHandlers.CallbackHandler), public...))
	mux.Handle(route("verify"), ChainMiddleware(http.HandlerFunc(authHandlers.VerifyHandler), public...))
	mux.Handle(route("logout"), ChainMiddleware(http.HandlerFunc(authHandlers.LogoutHandler), public...))
	mux.Handle(route("me"), ChainMiddleware(http.HandlerFunc(authHandlers.MeHandler), protected...))
	mux.Handle(route("prestamo"), ChainMiddleware(loanHandlers, protected...))

	return mux
}
