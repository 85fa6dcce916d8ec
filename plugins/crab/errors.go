package crab

import "errors"

var (
	ErrNoActiveSpawn     = errors.New("no crab to catch in this channel")
	ErrAlreadyCaught     = errors.New("that crab was already caught")
	ErrInsufficientFunds = errors.New("not enough coins")
	ErrUnknownItem       = errors.New("no such item")
	ErrPermissionDenied  = errors.New("this command is for administrators only")
	ErrNotFound          = errors.New("not found")
	ErrBadPrefix         = errors.New("a prefix must be 1 to 5 characters with no spaces")
)
