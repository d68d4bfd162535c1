package client

import "errors"

var (
	ErrNotSupported = errors.New("operation not supported")
	ErrNotReady     = errors.New("application is not initialized")
)
