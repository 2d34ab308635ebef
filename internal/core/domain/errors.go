package domain

import "errors"

var (
	ErrNotAuthorized       = errors.New("user is not signed in or email is not verified")
	ErrItemUnknown         = errors.New("item is not part of the configured set")
	ErrItemMissing         = errors.New("item document does not exist")
	ErrTransactionConflict = errors.New("vote transaction failed")
	ErrVoteInFlight        = errors.New("a vote for this item is already in progress")

	ErrEmailDomain        = errors.New("email does not belong to the allowed domain")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrWeakPassword       = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyVerified    = errors.New("email is already verified")
)
