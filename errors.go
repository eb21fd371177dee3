package authstate

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// ErrAlreadyStarted is returned when Start is called twice on a store
var ErrAlreadyStarted = errors.New("store already started")

// ErrStoreClosed is returned when Start is called after Close
var ErrStoreClosed = errors.New("store is closed")

// ErrNoIdentityClient is returned when a store is built without a provider
var ErrNoIdentityClient = errors.New("identity client is required")

// ErrNoProfileStore is returned when a store is built without a profile table
var ErrNoProfileStore = errors.New("profile store is required")

// IsProfileNotFound reports whether err is the benign "no rows" condition
// for a profile lookup. Accounts mid-signup legitimately have no row yet.
func IsProfileNotFound(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.IsNotFound(err) || repository.IsRecordNotFound(err)
}
