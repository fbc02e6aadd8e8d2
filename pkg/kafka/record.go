package kafka

import (
	"context"
	"time"

	"github.com/Shopify/sarama"
)

// Record is a message read from the topic.
type Record struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int32
	Offset    int64
	Timestamp time.Time
}

func newRecord(msg *sarama.ConsumerMessage) *Record {
	return &Record{
		Topic:     msg.Topic,
		Key:       msg.Key,
		Value:     msg.Value,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Timestamp,
	}
}

// Sender appends records to a topic.
type Sender interface {

	// Send returns once the record is acknowledged by the brokers.
	Send(ctx context.Context, key, value []byte) error

	Close() error
}

// Poller reads records of a topic.
type Poller interface {

	// Poll waits up to timeout for records. An empty batch means nothing
	// arrived within timeout, it is not an error.
	Poll(ctx context.Context, timeout time.Duration) ([]*Record, error)

	Close() error
}

// Channel is the producer and consumer factory bound to one topic.
type Channel interface {
	Topic() string

	PollTimeout() time.Duration

	Producer() (Sender, error)

	// Consumer replays every partition from the oldest offset, no group involved.
	Consumer() (Poller, error)

	// GroupConsumer consumes the topic as member of group groupID.
	GroupConsumer(groupID string) (Poller, error)
}
