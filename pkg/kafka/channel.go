package kafka

import (
	"strings"
	"time"
)

var _ Channel = (*Log)(nil)

// Log is the Channel of a topic on a real kafka cluster.
type Log struct {
	topic      string
	producerCf *Config
	consumerCf *Config
}

// NewLog validates the producer and consumer config of topic.
func NewLog(topic string, producer, consumer *Config) (*Log, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyTopic
	}
	if err := producer.Validate(); err != nil {
		return nil, err
	}
	if err := consumer.Validate(); err != nil {
		return nil, err
	}

	return &Log{
		topic:      topic,
		producerCf: producer,
		consumerCf: consumer,
	}, nil
}

func (l *Log) Topic() string {
	return l.topic
}

func (l *Log) PollTimeout() time.Duration {
	return l.consumerCf.PollTimeout
}

func (l *Log) Producer() (Sender, error) {
	p := NewProducer(l.topic, l.topic, l.producerCf)
	if err := p.Start(); err != nil {
		return nil, err
	}
	return p, nil
}

func (l *Log) Consumer() (Poller, error) {
	c := NewConsumer(l.topic, l.topic, l.consumerCf)
	if err := c.Start(); err != nil {
		return nil, err
	}
	return c, nil
}

func (l *Log) GroupConsumer(groupID string) (Poller, error) {
	cf := l.consumerCf.Clone().WithGroup(groupID)
	c := NewGroupConsumer(l.topic, l.topic, groupID, cf)
	if err := c.Start(); err != nil {
		return nil, err
	}
	return c, nil
}
