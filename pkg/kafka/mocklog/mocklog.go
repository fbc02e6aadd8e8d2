// Package mocklog is an in-memory partitioned log that behaves like a kafka
// topic for the checkpoint strategies. It is meant for tests and dry runs.
package mocklog

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/kgibm/resume/pkg/kafka"
)

const (
	defaultPollTimeout = time.Millisecond * 50
	maxPollRecords     = 500
)

var _ kafka.Channel = (*Log)(nil)

// Log is an append only topic held in memory. Every consumer, with or
// without a group, reads from the first record.
type Log struct {
	topic string

	mu          sync.Mutex
	parts       [][]*kafka.Record
	all         []*kafka.Record
	notify      chan struct{}
	pollTimeout time.Duration

	produceErr error
	pollErr    error
	openErr    error

	groups []string
	open   int
	closes int
}

// New creates the log of topic with the given number of partitions.
func New(topic string, partitions int) *Log {
	if partitions < 1 {
		partitions = 1
	}

	return &Log{
		topic:       topic,
		parts:       make([][]*kafka.Record, partitions),
		notify:      make(chan struct{}),
		pollTimeout: defaultPollTimeout,
	}
}

func (l *Log) Topic() string {
	return l.topic
}

func (l *Log) PollTimeout() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pollTimeout
}

func (l *Log) SetPollTimeout(d time.Duration) {
	l.mu.Lock()
	l.pollTimeout = d
	l.mu.Unlock()
}

// Append writes a record as if produced by another process.
func (l *Log) Append(key, value []byte) *kafka.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(key, value)
}

func (l *Log) appendLocked(key, value []byte) *kafka.Record {
	p := int32(xxhash.Sum64(key) % uint64(len(l.parts)))
	r := &kafka.Record{
		Topic:     l.topic,
		Key:       append([]byte(nil), key...),
		Partition: p,
		Offset:    int64(len(l.parts[p])),
		Timestamp: time.Now(),
	}
	if value != nil {
		r.Value = append([]byte(nil), value...)
	}

	l.parts[p] = append(l.parts[p], r)
	l.all = append(l.all, r)
	l.wakeupLocked()
	return r
}

func (l *Log) wakeupLocked() {
	close(l.notify)
	l.notify = make(chan struct{})
}

// FailProduce makes every Send fail with err, nil restores.
func (l *Log) FailProduce(err error) {
	l.mu.Lock()
	l.produceErr = err
	l.mu.Unlock()
}

// FailPoll makes every Poll of every consumer fail with err, including the
// ones blocked right now. nil restores.
func (l *Log) FailPoll(err error) {
	l.mu.Lock()
	l.pollErr = err
	l.wakeupLocked()
	l.mu.Unlock()
}

// FailOpen makes opening producers and consumers fail with err, nil restores.
func (l *Log) FailOpen(err error) {
	l.mu.Lock()
	l.openErr = err
	l.mu.Unlock()
}

// Records returns every record in append order.
func (l *Log) Records() []*kafka.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*kafka.Record(nil), l.all...)
}

// Groups returns the group ids of all the group consumers ever opened.
func (l *Log) Groups() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.groups...)
}

// OpenHandles returns the number of producers and consumers not closed yet.
func (l *Log) OpenHandles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

// Closes returns how many handles have been released.
func (l *Log) Closes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closes
}

func (l *Log) Producer() (kafka.Sender, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.openErr != nil {
		return nil, l.openErr
	}

	l.open++
	return &producer{handle: handle{log: l, done: make(chan struct{})}}, nil
}

func (l *Log) Consumer() (kafka.Poller, error) {
	return l.newConsumer("")
}

func (l *Log) GroupConsumer(groupID string) (kafka.Poller, error) {
	return l.newConsumer(groupID)
}

func (l *Log) newConsumer(group string) (kafka.Poller, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.openErr != nil {
		return nil, l.openErr
	}

	if group != "" {
		l.groups = append(l.groups, group)
	}
	l.open++
	return &consumer{
		handle:  handle{log: l, done: make(chan struct{})},
		cursors: make([]int, len(l.parts)),
	}, nil
}

type handle struct {
	log    *Log
	once   sync.Once
	done   chan struct{}
	closed bool // guarded by log.mu
}

func (h *handle) Close() error {
	err := kafka.ErrAlreadyClosed
	h.once.Do(func() {
		h.log.mu.Lock()
		h.closed = true
		h.log.open--
		h.log.closes++
		h.log.mu.Unlock()

		close(h.done)
		err = nil
	})

	return err
}

type producer struct {
	handle
}

func (p *producer) Send(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l := p.log
	l.mu.Lock()
	defer l.mu.Unlock()

	if p.closed {
		return kafka.ErrAlreadyClosed
	}
	if l.produceErr != nil {
		return l.produceErr
	}

	l.appendLocked(key, value)
	return nil
}

type consumer struct {
	handle

	cursors []int // guarded by log.mu
}

func (c *consumer) Poll(ctx context.Context, timeout time.Duration) ([]*kafka.Record, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	l := c.log
	for {
		l.mu.Lock()
		if c.closed {
			l.mu.Unlock()
			return nil, kafka.ErrAlreadyClosed
		}
		if l.pollErr != nil {
			err := l.pollErr
			l.mu.Unlock()
			return nil, err
		}

		batch := c.drainLocked()
		notify := l.notify
		l.mu.Unlock()

		if len(batch) > 0 {
			return batch, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.done:
			return nil, kafka.ErrAlreadyClosed
		case <-timer.C:
			return nil, nil
		case <-notify:
		}
	}
}

func (c *consumer) drainLocked() []*kafka.Record {
	var batch []*kafka.Record
	for p, records := range c.log.parts {
		for c.cursors[p] < len(records) && len(batch) < maxPollRecords {
			batch = append(batch, records[c.cursors[p]])
			c.cursors[p]++
		}
	}
	return batch
}
