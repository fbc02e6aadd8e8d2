package kafka

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/kgibm/resume/pkg/checkpoint"
	kfk "github.com/kgibm/resume/pkg/kafka"
	log "github.com/sirupsen/logrus"
)

var (
	_ checkpoint.Strategy[string, int64] = (*SingleNode[string, int64])(nil)
	_ checkpoint.Manager[string, int64]  = (*SingleNode[string, int64])(nil)
)

// SingleNode rebuilds the cache from the topic on Start and writes every
// update through to the cache and the topic. Offsets published by other
// processes after Start are not seen.
type SingleNode[K comparable, V any] struct {
	opts Options[K, V]
	m    *strategyMetrics

	// mu serializes the state transitions, updates hold it shared
	mu     sync.RWMutex
	status atomic.Int32

	producer kfk.Sender
	consumer kfk.Poller
}

func NewSingleNode[K comparable, V any](opts Options[K, V]) (*SingleNode[K, V], error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &SingleNode[K, V]{
		opts: opts,
		m:    newStrategyMetrics(opts.Name),
	}, nil
}

func (s *SingleNode[K, V]) Name() string {
	return s.opts.Name
}

func (s *SingleNode[K, V]) Status() checkpoint.Status {
	return checkpoint.Status(s.status.Load())
}

func (s *SingleNode[K, V]) setStatus(st checkpoint.Status) {
	s.status.Store(int32(st))
}

// Start opens the producer and consumer and blocks until the consumer caught
// up with the topic. On failure everything opened is closed and the strategy
// can be started again.
func (s *SingleNode[K, V]) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.Status() {
	case checkpoint.Started:
		return checkpoint.ErrAlreadyStarted
	case checkpoint.Stopped:
		return checkpoint.ErrStopped
	}

	producer, err := s.opts.Channel.Producer()
	if err != nil {
		return fmt.Errorf("%s: open producer: %w", s.opts.Name, err)
	}

	consumer, err := s.opts.Channel.Consumer()
	if err != nil {
		closeQuietly(s.opts.Name, producer)
		return fmt.Errorf("%s: open consumer: %w", s.opts.Name, err)
	}

	n, err := s.load(ctx, consumer)
	if err != nil {
		closeQuietly(s.opts.Name, producer)
		closeQuietly(s.opts.Name, consumer)
		return fmt.Errorf("%s: load: %w", s.opts.Name, err)
	}

	s.producer, s.consumer = producer, consumer
	s.setStatus(checkpoint.Started)

	log.Infof("[%s] started, %d records loaded, %d keys", s.opts.Name, n, s.opts.Cache.Len())
	return nil
}

// load polls until a poll returns nothing.
func (s *SingleNode[K, V]) load(ctx context.Context, consumer kfk.Poller) (n int, err error) {
	timeout := s.opts.Channel.PollTimeout()
	for {
		batch, err := consumer.Poll(ctx, timeout)
		if err != nil {
			return n, err
		}
		if len(batch) == 0 {
			return n, nil
		}

		for _, r := range batch {
			if err = s.merge(r); err != nil {
				return n, err
			}
			n++
		}

		s.m.loaded.Inc(int64(len(batch)))
		log.Tracef("[%s] loaded %d", s.opts.Name, len(batch))
	}
}

// merge adds a record to the cache, records without value are skipped.
func (s *SingleNode[K, V]) merge(r *kfk.Record) error {
	if r.Value == nil {
		return nil
	}

	key, err := s.opts.Keys.Decode(r.Key)
	if err != nil {
		return fmt.Errorf("key of %s#%d@%d: %w", r.Topic, r.Partition, r.Offset, err)
	}
	val, err := s.opts.Values.Decode(r.Value)
	if err != nil {
		return fmt.Errorf("value of %s#%d@%d: %w", r.Topic, r.Partition, r.Offset, err)
	}

	s.opts.Cache.Add(key, val)
	return nil
}

// UpdateLastOffset records the last offset of r in the cache and the topic.
// A produce error is returned, with CacheFirst the cache keeps the new value.
func (s *SingleNode[K, V]) UpdateLastOffset(ctx context.Context, r checkpoint.Resumable[K, V]) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Status() {
	case checkpoint.Created:
		return checkpoint.ErrNotStarted
	case checkpoint.Stopped:
		return checkpoint.ErrStopped
	}

	offset, ok := r.LastOffset().Get()
	if !ok {
		return checkpoint.ErrNoOffset
	}

	key := r.Addressable()
	kb, err := s.opts.Keys.Encode(key)
	if err != nil {
		return fmt.Errorf("%s: encode key %v: %w", s.opts.Name, key, err)
	}
	vb, err := s.opts.Values.Encode(offset)
	if err != nil {
		return fmt.Errorf("%s: encode offset %v: %w", s.opts.Name, offset, err)
	}

	if s.opts.WriteOrder == CacheFirst {
		s.opts.Cache.Add(key, offset)
	}

	if err = s.producer.Send(ctx, kb, vb); err != nil {
		s.m.updateFail.Inc(1)
		return fmt.Errorf("%s: produce %v: %w", s.opts.Name, key, err)
	}

	if s.opts.WriteOrder == LogFirst {
		s.opts.Cache.Add(key, offset)
	}

	s.m.updateOk.Inc(1)
	log.Tracef("[%s] %v -> %v", s.opts.Name, key, offset)
	return nil
}

// LastOffset is a pure cache read.
func (s *SingleNode[K, V]) LastOffset(key K) (V, bool) {
	return s.opts.Cache.Get(key)
}

func (s *SingleNode[K, V]) ForEach(fn func(key K, value V) bool) {
	s.opts.Cache.ForEach(fn)
}

// Resume hands over the recovered offsets to the adapter.
func (s *SingleNode[K, V]) Resume() error {
	return s.opts.Adapter.Resume()
}

// Stop closes the producer and consumer, then calls of Stop return nil.
func (s *SingleNode[K, V]) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status() == checkpoint.Stopped {
		return nil
	}

	var result error
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close producer: %w", err))
		}
	}
	if s.consumer != nil {
		if err := s.consumer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close consumer: %w", err))
		}
	}
	s.producer, s.consumer = nil, nil
	s.setStatus(checkpoint.Stopped)

	log.Infof("[%s] stopped", s.opts.Name)
	return result
}

type closer interface {
	Close() error
}

func closeQuietly(name string, c closer) {
	if err := c.Close(); err != nil {
		log.Warnf("[%s] close: %v", name, err)
	}
}
