package kafka

import (
	"context"
	"time"

	"github.com/Shopify/sarama"
)

// inbox fans the partition consumers into one buffer that Poll drains.
type inbox struct {
	max int

	messages chan *sarama.ConsumerMessage
	errors   chan error
	stopper  chan struct{}
}

func newInbox(bufSize, max int) *inbox {
	if bufSize < max {
		bufSize = max
	}
	return &inbox{
		max:      max,
		messages: make(chan *sarama.ConsumerMessage, bufSize),
		errors:   make(chan error, 16),
		stopper:  make(chan struct{}),
	}
}

// push blocks until the message is buffered or the inbox is stopped.
func (in *inbox) push(msg *sarama.ConsumerMessage) bool {
	select {
	case in.messages <- msg:
		return true
	case <-in.stopper:
		return false
	}
}

// fail records err for the next Poll, dropping it when an error is pending.
func (in *inbox) fail(err error) {
	select {
	case in.errors <- err:
	case <-in.stopper:
	default:
	}
}

// poll waits up to timeout for the first message, then drains whatever is
// already buffered up to max.
func (in *inbox) poll(ctx context.Context, timeout time.Duration) ([]*Record, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var batch []*Record
	select {
	case <-in.stopper:
		return nil, ErrAlreadyClosed

	case <-ctx.Done():
		return nil, ctx.Err()

	case err := <-in.errors:
		return nil, err

	case <-timer.C:
		return batch, nil

	case msg := <-in.messages:
		batch = append(batch, newRecord(msg))
	}

	for len(batch) < in.max {
		select {
		case msg := <-in.messages:
			batch = append(batch, newRecord(msg))
		default:
			return batch, nil
		}
	}

	return batch, nil
}

func (in *inbox) stop() {
	close(in.stopper)
}
