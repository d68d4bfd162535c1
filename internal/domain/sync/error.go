package sync

import "errors"

var (
	ErrSweepInProgress   = errors.New("sync already in progress")
	ErrUnsupportedAction = errors.New("unsupported action")
	ErrInvalidConfig     = errors.New("invalid sync config")
)
