package emailutil

import "strings"

// Normalize normalizes an email address for consistent comparison
// by converting to lowercase and trimming whitespace
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ExtractDomain returns the part after the single '@', or "" when the
// address has no '@' or more than one.
func ExtractDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// HasDomain reports whether email belongs to domain, ignoring case.
func HasDomain(email, domain string) bool {
	domain = Normalize(domain)
	if domain == "" {
		return false
	}
	return ExtractDomain(Normalize(email)) == domain
}
