// Package policy decides which verified identities may receive a session.
package policy

import (
	"strings"

	emailutil "github.com/bibliotecacth/sessiongate/internal/emailutil"
	"github.com/bibliotecacth/sessiongate/internal/idp"
)

// Mode names which rule a Policy applies.
type Mode string

const (
	ModeEmails        Mode = "emails"
	ModeDomain        Mode = "domain"
	ModeVerifiedEmail Mode = "verified-email"
)

// Policy is the organizational access policy. The zero value admits any
// identity whose email the provider has verified.
type Policy struct {
	AllowedDomain string
	AllowedEmails map[string]struct{}
}

// New builds a normalized policy.
func New(domain string, emails []string) Policy {
	p := Policy{AllowedDomain: emailutil.Normalize(domain)}
	for _, email := range emails {
		email = emailutil.Normalize(email)
		if email == "" {
			continue
		}
		if p.AllowedEmails == nil {
			p.AllowedEmails = make(map[string]struct{})
		}
		p.AllowedEmails[email] = struct{}{}
	}
	return p
}

// ParseEmailList splits a comma separated allow-list, dropping empty entries.
func ParseEmailList(csv string) []string {
	var emails []string
	for _, email := range strings.Split(csv, ",") {
		if email = emailutil.Normalize(email); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

// Mode returns the rule that IsAllowed will apply.
func (p Policy) Mode() Mode {
	switch {
	case len(p.AllowedEmails) > 0:
		return ModeEmails
	case p.AllowedDomain != "":
		return ModeDomain
	default:
		return ModeVerifiedEmail
	}
}

// IsAllowed evaluates the policy against verified identity claims.
//
// An explicit email list is exclusive: when configured, the domain is not
// consulted. Otherwise a configured domain matches either the hd claim or
// the email suffix. With nothing configured only verified emails pass.
func IsAllowed(identity idp.Identity, p Policy) bool {
	email := emailutil.Normalize(identity.Email)

	switch p.Mode() {
	case ModeEmails:
		_, ok := p.AllowedEmails[email]
		return ok
	case ModeDomain:
		if emailutil.Normalize(identity.HostedDomain) == p.AllowedDomain {
			return true
		}
		return emailutil.HasDomain(email, p.AllowedDomain)
	default:
		return identity.EmailVerified
	}
}
