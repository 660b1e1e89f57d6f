package media

import "errors"

var (
	ErrUnclaimed      = errors.New("media: no controller")
	ErrNoProvider     = errors.New("media: no provider attached")
	ErrUnknownRequest = errors.New("media: unknown request type")
	ErrInvalidRequest = errors.New("media: invalid request detail")
)
