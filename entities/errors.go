package entities

import "errors"

var (
	DuplicateIdentifier = errors.New("client identifier is already registered")
	UnknownClient       = errors.New("client identifier is not registered")
	UnknownPlayer       = errors.New("no player state for client identifier")
	PermissionDenied    = errors.New("watchers cannot submit gameplay requests")
	WrongPhase          = errors.New("request is not valid in the current phase")
	AlreadyInitialized  = errors.New("player store is already initialized")
)
