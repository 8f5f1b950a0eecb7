package tracking

import (
	"errors"

	"quickapply-backend/internal/applications"
)

var (
	// ErrNotFound indicates the token is not bound to any application.
	ErrNotFound = applications.ErrNotFound

	// ErrPersistence indicates a datastore failure while resolving a token.
	ErrPersistence = applications.ErrPersistence

	// ErrIncompleteRecord means a stored application lacks a field every view must carry.
	// It is always wrapped in ErrPersistence.
	ErrIncompleteRecord = errors.New("incomplete application record")
)
