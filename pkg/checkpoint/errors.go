package checkpoint

import (
	"errors"
)

var (
	ErrNotStarted     = errors.New("checkpoint: not started")
	ErrAlreadyStarted = errors.New("checkpoint: already started")
	ErrStopped        = errors.New("checkpoint: stopped")
	ErrNoOffset       = errors.New("checkpoint: resumable has no offset")
	ErrNilCache       = errors.New("checkpoint: nil cache")
	ErrNilCodec       = errors.New("checkpoint: nil codec")
)
