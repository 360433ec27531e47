package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAborted         = errors.New("generation aborted")
	ErrInvalidBrief    = errors.New("invalid brief")
	ErrProviderFailure = errors.New("provider failure")
	ErrNoProviders     = errors.New("no text generation provider available")
	ErrEmptyResponse   = errors.New("empty generation response")
)
