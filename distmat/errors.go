package distmat

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrUnknownMethod = errors.New("unknown method")
)
