package kafka

import (
	"errors"
)

var (
	ErrNotReady        = errors.New("kafka: not ready")
	ErrAlreadyClosed   = errors.New("kafka: already closed")
	ErrNoBrokers       = errors.New("kafka: no brokers")
	ErrEmptyTopic      = errors.New("kafka: empty topic")
	ErrUnknownProperty = errors.New("kafka: unknown property")
	ErrInvalidProperty = errors.New("kafka: invalid property")
	ErrConsumerBroken  = errors.New("kafka: consumer broken")
	ErrInvalidDSN      = errors.New("kafka: invalid dsn")
)
