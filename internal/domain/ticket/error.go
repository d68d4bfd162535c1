package ticket

import "errors"

var (
	ErrEmptyDevice   = errors.New("ticket device is required")
	ErrInvalidStatus = errors.New("invalid ticket status")
)
