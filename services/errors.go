package services

import "errors"

var (
	// ErrSelfMessage rejects a send whose sender and recipient are the same
	// user, before anything is written.
	ErrSelfMessage = errors.New("cannot send a message to yourself")

	// ErrBlocked rejects a send when either party has blocked the other,
	// before anything is written.
	ErrBlocked = errors.New("messaging is not allowed between these users")
)
