package kafka

import (
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kgibm/resume/pkg/checkpoint"
	log "github.com/sirupsen/logrus"
)

const defaultStopTimeout = time.Second * 5

var (
	_ checkpoint.Strategy[string, int64] = (*MultiNode[string, int64])(nil)
	_ checkpoint.Manager[string, int64]  = (*MultiNode[string, int64])(nil)
)

type MultiOptions struct {
	// Executor runs the refresher, defaults to checkpoint.GoExecutor.
	Executor checkpoint.Executor

	// GroupPrefix of the refresher consumer group, defaults to the name.
	GroupPrefix string

	// Restart policy of a failed refresher, nil means no restart.
	Restart backoff.BackOff

	// StopTimeout bounds how long Stop waits for the refresher.
	StopTimeout time.Duration
}

// MultiNode is a SingleNode plus a Refresher that runs from construction to
// Stop, so that the cache converges with the offsets of every peer.
type MultiNode[K comparable, V any] struct {
	*SingleNode[K, V]

	refresher   *Refresher[K, V]
	stopTimeout time.Duration
	once        sync.Once
}

func NewMultiNode[K comparable, V any](opts Options[K, V], mopts MultiOptions) (*MultiNode[K, V], error) {
	s, err := NewSingleNode(opts)
	if err != nil {
		return nil, err
	}

	if mopts.Executor == nil {
		mopts.Executor = checkpoint.GoExecutor{}
	}
	if mopts.GroupPrefix == "" {
		mopts.GroupPrefix = s.Name()
	}
	if mopts.StopTimeout <= 0 {
		mopts.StopTimeout = defaultStopTimeout
	}

	m := &MultiNode[K, V]{
		SingleNode:  s,
		refresher:   newRefresher(s, mopts.GroupPrefix, mopts.Restart),
		stopTimeout: mopts.StopTimeout,
	}

	if err = mopts.Executor.Submit(m.refresher.run); err != nil {
		m.refresher.cancel()
		return nil, fmt.Errorf("%s: submit refresher: %w", s.Name(), err)
	}

	return m, nil
}

func (m *MultiNode[K, V]) Refresher() *Refresher[K, V] {
	return m.refresher
}

// Healthy reports whether peers offsets are still being merged.
func (m *MultiNode[K, V]) Healthy() bool {
	return m.refresher.Running()
}

// Stop shuts down the refresher then closes the producer and consumer.
func (m *MultiNode[K, V]) Stop() error {
	m.once.Do(func() {
		if !m.refresher.stop(m.stopTimeout) {
			log.Warnf("[%s] refresher still running after %s", m.Name(), m.stopTimeout)
		}
	})

	return m.SingleNode.Stop()
}
