package kafka

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Refresher keeps consuming the topic under a group of its own and merges
// every record into the cache, so that offsets of peers become visible.
//
// Any error ends the refresher unless a restart policy is set.
type Refresher[K comparable, V any] struct {
	s       *SingleNode[K, V]
	prefix  string
	restart backoff.BackOff

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	running  atomic.Bool
	merged   atomic.Int64
	restarts atomic.Int64

	mu    sync.Mutex
	err   error
	group string
}

func newRefresher[K comparable, V any](s *SingleNode[K, V], prefix string, restart backoff.BackOff) *Refresher[K, V] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Refresher[K, V]{
		s:       s,
		prefix:  prefix,
		restart: restart,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Running reports whether the refresher is consuming right now.
func (r *Refresher[K, V]) Running() bool {
	return r.running.Load()
}

// Err returns the error that ended the last run.
func (r *Refresher[K, V]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Group returns the consumer group of the current or last run.
func (r *Refresher[K, V]) Group() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.group
}

// Done is closed when the refresher exits for good.
func (r *Refresher[K, V]) Done() <-chan struct{} {
	return r.done
}

// Merged returns the number of records merged into the cache.
func (r *Refresher[K, V]) Merged() int64 {
	return r.merged.Load()
}

func (r *Refresher[K, V]) Restarts() int64 {
	return r.restarts.Load()
}

func (r *Refresher[K, V]) run() {
	defer close(r.done)

	name := r.s.opts.Name
	log.Debugf("[%s] refresher started", name)
	for {
		err := r.refresh()
		if err == nil {
			log.Debugf("[%s] refresher stopped", name)
			return
		}

		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		log.Errorf("[%s] refresher: %v", name, err)

		if r.restart == nil {
			return
		}

		d := r.restart.NextBackOff()
		if d == backoff.Stop {
			log.Errorf("[%s] refresher gave up after %d restarts", name, r.restarts.Load())
			return
		}

		select {
		case <-r.ctx.Done():
			return
		case <-time.After(d):
		}

		r.restarts.Add(1)
		r.s.m.restarts.Inc(1)
		log.Warnf("[%s] refresher restarting in new group", name)
	}
}

// refresh returns nil only when canceled.
func (r *Refresher[K, V]) refresh() error {
	// a late scheduled run must not join a group after Stop
	if r.ctx.Err() != nil {
		return nil
	}

	group := fmt.Sprintf("%s-%s", r.prefix, uuid.NewString())
	r.mu.Lock()
	r.group = group
	r.mu.Unlock()

	consumer, err := r.s.opts.Channel.GroupConsumer(group)
	if err != nil {
		return fmt.Errorf("open group %s: %w", group, err)
	}
	defer closeQuietly(r.s.opts.Name, consumer)

	r.running.Store(true)
	defer r.running.Store(false)

	timeout := r.s.opts.Channel.PollTimeout()
	for {
		if r.ctx.Err() != nil {
			return nil
		}

		batch, err := consumer.Poll(r.ctx, timeout)
		if err != nil {
			if r.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("poll group %s: %w", group, err)
		}

		if r.restart != nil {
			r.restart.Reset()
		}

		for _, rec := range batch {
			if err = r.s.merge(rec); err != nil {
				return err
			}
		}

		if len(batch) > 0 {
			r.merged.Add(int64(len(batch)))
			r.s.m.merged.Inc(int64(len(batch)))
			log.Tracef("[%s] refresher merged %d", r.s.opts.Name, len(batch))
		}
	}
}

// stop cancels the refresher and waits up to timeout for it to exit.
func (r *Refresher[K, V]) stop(timeout time.Duration) bool {
	r.cancel()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-r.done:
		return true
	case <-t.C:
		return false
	}
}
