package model

import (
	"strings"
	"time"
)

// Identity is the credential set for one login attempt.
//
// Secret and OTPCode live only in memory; nothing in this module writes
// them to disk.
type Identity struct {
	Account string
	Secret  string
	OTPCode string
}

// Complete reports whether both account and secret are known.
func (id Identity) Complete() bool {
	return strings.TrimSpace(id.Account) != "" && id.Secret != ""
}

// SessionRecord is the persisted, non-secret session state for one host.
type SessionRecord struct {
	// HostKey is the normalized host the record belongs to.
	HostKey string

	// SessionToken is the last session id issued by the service.
	// Empty when the session was invalidated.
	SessionToken string

	// Account is the last account name that logged in successfully.
	Account string

	// DefaultDestination is the last confirmed destination folder.
	DefaultDestination string

	// UpdatedAt is set by the store on every save.
	UpdatedAt time.Time
}

// HasToken reports whether the record carries a reusable session token.
func (r *SessionRecord) HasToken() bool {
	return r != nil && r.SessionToken != ""
}
