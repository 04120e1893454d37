// Package urlutil builds the absolute URLs the gateway hands to browsers and Google.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrNotOrigin is returned for values that are not a bare scheme://host[:port].
var ErrNotOrigin = errors.New("not an http(s) origin")

// ParseOrigin validates an absolute http(s) origin and returns it without a
// trailing slash. Paths, queries, fragments and userinfo are rejected.
func ParseOrigin(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotOrigin, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrNotOrigin, raw)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return "", fmt.Errorf("%w: %q has a path, query, fragment or userinfo", ErrNotOrigin, raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

// JoinPath appends path segments to base. Duplicate slashes collapse and a
// trailing slash on the last segment is kept.
func JoinPath(base string, paths ...string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	u.Path = path.Join(append([]string{"/", u.Path}, paths...)...)
	if len(paths) > 0 && strings.HasSuffix(paths[len(paths)-1], "/") && u.Path != "/" {
		u.Path += "/"
	}
	return u.String(), nil
}

// MustJoinPath is like JoinPath but panics on error. Only for origins that
// already passed ParseOrigin.
func MustJoinPath(base string, paths ...string) string {
	result, err := JoinPath(base, paths...)
	if err != nil {
		panic(err)
	}
	return result
}

// WithFlag returns base with key=ok as its only query parameter, the form
// the site uses to show a login or logout notice.
func WithFlag(base, key string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.RawQuery = url.Values{key: {"ok"}}.Encode()
	return u.String(), nil
}
