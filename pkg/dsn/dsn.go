// Package dsn provides unified DSN scheme of the checkpoint stores.
package dsn

import (
	"errors"
	"strings"
)

var ErrIllegalDSN = errors.New("illegal DSN")

// Store schemes.
const (
	Kafka   = "kafka"   // kafka://host1:9092,host2:9092/topic?prop=val
	Mem     = "mem"     // mem://topic, in-memory log
	Discard = "discard" // discard://, nothing persisted
)

// Parse extracts a unified DSN string and returns the scheme of the dsn and
// the scheme specific uri.
//
// Samples dsn:
//    kafka://localhost:9092/offsets?acks=all
//    mem://offsets
func Parse(dsn string) (scheme string, uri string, err error) {
	tuples := strings.SplitN(dsn, "://", 2)
	if len(tuples) != 2 {
		err = ErrIllegalDSN
		return
	}

	scheme, uri = strings.ToLower(strings.TrimSpace(tuples[0])), strings.TrimSpace(tuples[1])
	switch scheme {
	case Kafka, Mem, Discard:
	default:
		err = ErrIllegalDSN
	}
	return
}
