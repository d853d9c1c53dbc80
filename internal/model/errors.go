package model

import "errors"

// Error taxonomy shared by every layer. Callers classify with errors.Is,
// the HTTP layer maps each kind onto a status code.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrUnknownTransformation = errors.New("unknown transformation")
	ErrFactoryNotFound       = errors.New("pipeline step factory not found")
	ErrUpstream              = errors.New("upstream failure")
	ErrPartialFailure        = errors.New("partial failure")
	ErrUnauthorized          = errors.New("unauthorized")
)
