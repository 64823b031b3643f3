package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidPrompt    = errors.New("invalid prompt")
	ErrInvalidSize      = errors.New("invalid size")
	ErrUnsupportedModel = errors.New("unsupported model")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrHostNotAllowed   = errors.New("image host not allowed")
	ErrUpstreamStatus   = errors.New("upstream returned non-success status")
	ErrPayloadTooLarge  = errors.New("payload too large")
)
