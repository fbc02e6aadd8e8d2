// Package kafka implements checkpoint strategies that use a kafka topic as
// the durable record of offsets and a local cache for lookups.
package kafka

import (
	"errors"

	"github.com/kgibm/resume/pkg/checkpoint"
	"github.com/kgibm/resume/pkg/checkpoint/cache"
	"github.com/kgibm/resume/pkg/checkpoint/codec"
	kfk "github.com/kgibm/resume/pkg/kafka"
)

var ErrNilChannel = errors.New("checkpoint: nil channel")

// WriteOrder decides which side of an update is written first.
type WriteOrder int

const (
	// CacheFirst adds to the cache then produces. A failed produce leaves
	// the new value in the cache.
	CacheFirst WriteOrder = iota

	// LogFirst produces then adds to the cache once acknowledged.
	LogFirst
)

func (o WriteOrder) String() string {
	if o == LogFirst {
		return "log-first"
	}
	return "cache-first"
}

type Options[K comparable, V any] struct {
	// Name tags logs and metrics, defaults to the topic.
	Name string

	Channel kfk.Channel
	Cache   cache.Cache[K, V]

	// Adapter is optional.
	Adapter checkpoint.Adapter

	Keys   codec.Codec[K]
	Values codec.Codec[V]

	WriteOrder WriteOrder
}

func (o *Options[K, V]) validate() error {
	if o.Channel == nil {
		return ErrNilChannel
	}
	if o.Cache == nil {
		return checkpoint.ErrNilCache
	}
	if o.Keys == nil || o.Values == nil {
		return checkpoint.ErrNilCodec
	}

	if o.Name == "" {
		o.Name = o.Channel.Topic()
	}
	if o.Adapter == nil {
		o.Adapter = checkpoint.AdapterFunc(func() error { return nil })
	}

	return nil
}
