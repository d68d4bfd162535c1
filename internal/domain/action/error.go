package action

import "errors"

var (
	ErrUnknownKind = errors.New("unknown pending action type")
	ErrEmptyID     = errors.New("pending action id is empty")
)
