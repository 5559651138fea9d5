package server

import "errors"

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrMissingIdentity = errors.New("missing userId")
)
