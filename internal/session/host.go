package session

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidHost is returned by ParseHost for empty or malformed hosts.
var ErrInvalidHost = errors.New("invalid host")

// NormalizeHost turns a user-supplied host into a cache key.
//
// The key is case-insensitive and ignores the scheme and trailing
// slashes, so "https://NAS.local:5001/" and "nas.local:5001" share a key.
func NormalizeHost(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(h, "://"); i >= 0 {
		h = h[i+3:]
	}
	return strings.TrimRight(h, "/")
}

// ParseHost validates raw and returns the base URL of the service.
// A missing scheme defaults to https.
func ParseHost(raw string) (*url.URL, error) {
	h := strings.TrimSpace(raw)
	if h == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidHost)
	}
	if !strings.Contains(h, "://") {
		h = "https://" + h
	}
	u, err := url.Parse(strings.TrimRight(h, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHost, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidHost, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q has no host name", ErrInvalidHost, raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}
