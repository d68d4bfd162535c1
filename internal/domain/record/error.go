package record

import (
	"errors"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidData       = errors.New("invalid record data")
	ErrInvalidQuery      = errors.New("invalid query")
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrUnavailable - сеть недоступна, таймаут или 5xx.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrRejected - сервер отклонил запрос (4xx).
	ErrRejected = errors.New("backend rejected request")

	// ErrStoreFault - сбой локального хранилища, фатальный для текущей операции.
	ErrStoreFault = errors.New("local store fault")
)
