package kafka

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kgibm/resume/pkg/checkpoint"
	"github.com/kgibm/resume/pkg/checkpoint/codec"
	"github.com/kgibm/resume/pkg/kafka/mocklog"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	waitFor = time.Second * 5
	tick    = time.Millisecond * 10
)

func startMulti(t *testing.T, l *mocklog.Log, mopts MultiOptions) *MultiNode[string, int64] {
	m, err := NewMultiNode(newOptions(l), mopts)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	return m
}

func hasOffset(s checkpoint.Strategy[string, int64], key string, want int64) func() bool {
	return func() bool {
		v, ok := s.LastOffset(key)
		return ok && v == want
	}
}

func TestMultiNodeConvergence(t *testing.T) {
	l := mocklog.New("offsets", 3)
	a := startMulti(t, l, MultiOptions{GroupPrefix: "node-a"})
	defer a.Stop()
	b := startMulti(t, l, MultiOptions{GroupPrefix: "node-b"})
	defer b.Stop()

	assert.Equal(t, nil, update(a, "k1", 30))
	assert.Eventually(t, hasOffset(b, "k1", 30), waitFor, tick)
	assert.Eventually(t, func() bool { return b.Refresher().Merged() >= 1 }, waitFor, tick)

	assert.Equal(t, nil, update(b, "k2", 7))
	assert.Eventually(t, hasOffset(a, "k2", 7), waitFor, tick)

	assert.Eventually(t, a.Healthy, waitFor, tick)
	assert.Eventually(t, b.Healthy, waitFor, tick)
}

func TestRefresherBeforeStart(t *testing.T) {
	l := mocklog.New("offsets", 1)
	m, err := NewMultiNode(newOptions(l), MultiOptions{})
	require.NoError(t, err)
	defer m.Stop()

	// the refresher runs from construction
	appendOffset(l, "k1", 3)
	assert.Eventually(t, hasOffset(m, "k1", 3), waitFor, tick)
	assert.Equal(t, checkpoint.Created, m.Status())
}

func TestRefresherGroups(t *testing.T) {
	l := mocklog.New("offsets", 1)
	a := startMulti(t, l, MultiOptions{GroupPrefix: "peer"})
	defer a.Stop()
	b := startMulti(t, l, MultiOptions{GroupPrefix: "peer"})
	defer b.Stop()

	assert.Eventually(t, func() bool { return len(l.Groups()) == 2 }, waitFor, tick)
	groups := l.Groups()
	assert.NotEqual(t, groups[0], groups[1])
	for _, g := range groups {
		assert.Equal(t, true, strings.HasPrefix(g, "peer-"))
		assert.NotEqual(t, "peer", g)
	}
	assert.NotEqual(t, a.Refresher().Group(), b.Refresher().Group())
}

func TestRefresherFailureStopsRefresher(t *testing.T) {
	l := mocklog.New("offsets", 1)
	m := startMulti(t, l, MultiOptions{})
	defer m.Stop()
	assert.Eventually(t, m.Healthy, waitFor, tick)

	l.FailPoll(errBoom)
	select {
	case <-m.Refresher().Done():
	case <-time.After(waitFor):
		t.Fatal("refresher still running")
	}
	assert.Equal(t, true, errors.Is(m.Refresher().Err(), errBoom))
	assert.Equal(t, false, m.Healthy())
	l.FailPoll(nil)

	// no more merges from the log
	appendOffset(l, "peer-key", 1)
	assert.Never(t, func() bool {
		_, ok := m.LastOffset("peer-key")
		return ok
	}, time.Millisecond*200, tick)

	// synchronous operations still work
	assert.Equal(t, nil, update(m, "k1", 40))
	v, _ := m.LastOffset("k1")
	assert.Equal(t, int64(40), v)
	assert.Equal(t, checkpoint.Started, m.Status())
}

func TestRefresherDecodeFailure(t *testing.T) {
	l := mocklog.New("offsets", 1)
	m := startMulti(t, l, MultiOptions{})
	defer m.Stop()
	assert.Eventually(t, m.Healthy, waitFor, tick)

	l.Append([]byte("k1"), []byte{1, 2, 3})
	select {
	case <-m.Refresher().Done():
	case <-time.After(waitFor):
		t.Fatal("refresher still running")
	}
	assert.Equal(t, true, errors.Is(m.Refresher().Err(), codec.ErrDecode))
	assert.Equal(t, false, m.Healthy())
	_, ok := m.LastOffset("k1")
	assert.Equal(t, false, ok)

	assert.Equal(t, nil, update(m, "k1", 41))
	v, _ := m.LastOffset("k1")
	assert.Equal(t, int64(41), v)
}

func TestRefresherRestart(t *testing.T) {
	l := mocklog.New("offsets", 1)
	m := startMulti(t, l, MultiOptions{
		GroupPrefix: "restart",
		Restart:     backoff.NewConstantBackOff(tick),
	})
	defer m.Stop()
	assert.Eventually(t, m.Healthy, waitFor, tick)

	l.FailPoll(errBoom)
	assert.Eventually(t, func() bool { return m.Refresher().Restarts() >= 1 }, waitFor, tick)
	l.FailPoll(nil)

	appendOffset(l, "peer-key", 8)
	assert.Eventually(t, hasOffset(m, "peer-key", 8), waitFor, tick)
	assert.Eventually(t, m.Healthy, waitFor, tick)

	// a fresh group per run
	groups := l.Groups()
	seen := map[string]bool{}
	for _, g := range groups {
		assert.Equal(t, false, seen[g])
		seen[g] = true
	}
	assert.Equal(t, true, len(groups) >= 2)
}

func TestRefresherGivesUp(t *testing.T) {
	l := mocklog.New("offsets", 1)
	l.FailPoll(errBoom)
	m, err := NewMultiNode(newOptions(l), MultiOptions{
		Restart: backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 2),
	})
	require.NoError(t, err)
	defer m.Stop()

	select {
	case <-m.Refresher().Done():
	case <-time.After(waitFor):
		t.Fatal("refresher did not give up")
	}
	assert.Equal(t, int64(2), m.Refresher().Restarts())
	assert.Equal(t, 3, len(l.Groups()))
}

func TestRefresherOpenFailure(t *testing.T) {
	l := mocklog.New("offsets", 1)
	l.FailOpen(errBoom)
	m, err := NewMultiNode(newOptions(l), MultiOptions{})
	require.NoError(t, err)
	defer m.Stop()

	<-m.Refresher().Done()
	assert.Equal(t, true, errors.Is(m.Refresher().Err(), errBoom))
}

func TestMultiNodeStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	l := mocklog.New("offsets", 2)
	m := startMulti(t, l, MultiOptions{})
	assert.Eventually(t, m.Healthy, waitFor, tick)
	assert.Equal(t, 3, l.OpenHandles())

	assert.Equal(t, nil, m.Stop())
	assert.Equal(t, nil, m.Stop())
	assert.Equal(t, checkpoint.Stopped, m.Status())
	assert.Equal(t, false, m.Healthy())
	assert.Equal(t, 0, l.OpenHandles())
	assert.Equal(t, 3, l.Closes())
	assert.Nil(t, m.Refresher().Err())
}

func TestMultiNodeStopCreated(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	l := mocklog.New("offsets", 1)
	m, err := NewMultiNode(newOptions(l), MultiOptions{})
	require.NoError(t, err)
	assert.Equal(t, nil, m.Stop())
	assert.Equal(t, checkpoint.Stopped, m.Status())
}

func TestMultiNodeOnPool(t *testing.T) {
	pool, err := ants.NewPool(4, ants.WithNonblocking(true))
	require.NoError(t, err)
	defer pool.Release()

	l := mocklog.New("offsets", 1)
	a := startMulti(t, l, MultiOptions{Executor: pool})
	b := startMulti(t, l, MultiOptions{Executor: pool})
	assert.Eventually(t, func() bool { return pool.Running() == 2 }, waitFor, tick)

	assert.Equal(t, nil, update(a, "k1", 1))
	assert.Eventually(t, hasOffset(b, "k1", 1), waitFor, tick)

	assert.Equal(t, nil, a.Stop())
	assert.Equal(t, nil, b.Stop())
	<-a.Refresher().Done()
	<-b.Refresher().Done()
}

func TestMultiNodePoolExhausted(t *testing.T) {
	pool, err := ants.NewPool(1, ants.WithNonblocking(true))
	require.NoError(t, err)
	defer pool.Release()

	l := mocklog.New("offsets", 1)
	a, err := NewMultiNode(newOptions(l), MultiOptions{Executor: pool})
	require.NoError(t, err)

	// the only worker is held by the refresher of a
	_, err = NewMultiNode(newOptions(l), MultiOptions{Executor: pool})
	assert.Equal(t, true, errors.Is(err, ants.ErrPoolOverload))

	assert.Equal(t, nil, a.Stop())
	<-a.Refresher().Done()
}

type rejectExecutor struct{}

func (rejectExecutor) Submit(func()) error {
	return ants.ErrPoolOverload
}

func TestMultiNodeSubmitFailure(t *testing.T) {
	l := mocklog.New("offsets", 1)
	_, err := NewMultiNode(newOptions(l), MultiOptions{Executor: rejectExecutor{}})
	assert.Equal(t, true, errors.Is(err, ants.ErrPoolOverload))
	assert.Equal(t, 0, len(l.Groups()))
}

// laterExecutor holds the task until the test runs it.
type laterExecutor struct {
	task func()
}

func (e *laterExecutor) Submit(task func()) error {
	e.task = task
	return nil
}

func TestRefresherScheduledAfterStop(t *testing.T) {
	l := mocklog.New("offsets", 1)
	e := &laterExecutor{}
	m, err := NewMultiNode(newOptions(l), MultiOptions{Executor: e, StopTimeout: tick})
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	// Stop gives up waiting for a refresher that never ran
	assert.Equal(t, nil, m.Stop())
	e.task()

	<-m.Refresher().Done()
	assert.Equal(t, 0, len(l.Groups()))
	assert.Equal(t, nil, m.Refresher().Err())
	assert.Equal(t, 0, l.OpenHandles())
}
