package kafka

import (
	"context"
	"sync"

	"github.com/Shopify/sarama"
	log "github.com/sirupsen/logrus"
)

var _ Sender = (*Producer)(nil)

// Producer is a sync kafka producer bound to one topic.
type Producer struct {
	cf    *Config
	name  string
	topic string

	p sarama.SyncProducer
	m *producerMetrics

	mu     sync.RWMutex
	closed bool
}

// NewProducer creates a kafka producer, Start is required before Send.
func NewProducer(name, topic string, cf *Config) *Producer {
	return &Producer{
		name:  name,
		topic: topic,
		cf:    cf,
		m:     newProducerMetrics(name),
	}
}

// NewProducerFrom wraps an already connected sarama producer, e,g. the one
// of sarama/mocks.
func NewProducerFrom(name, topic string, p sarama.SyncProducer) *Producer {
	return &Producer{
		name:  name,
		topic: topic,
		p:     p,
		m:     newProducerMetrics(name),
	}
}

// Start is REQUIRED before the producer is able to produce.
func (p *Producer) Start() (err error) {
	if p.p != nil {
		return nil
	}

	if err = p.cf.Validate(); err != nil {
		return
	}

	p.p, err = sarama.NewSyncProducer(p.cf.Brokers, p.cf.Sarama)
	if err == nil {
		log.Debugf("[%s] producer started for %s %+v", p.name, p.topic, p.cf.Brokers)
	}
	return
}

// Send produces a record and waits for the ack.
func (p *Producer) Send(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrAlreadyClosed
	}
	if p.p == nil {
		return ErrNotReady
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.ByteEncoder(key),
	}
	if value != nil {
		msg.Value = sarama.ByteEncoder(value)
	}

	partition, offset, err := p.p.SendMessage(msg)
	if err != nil {
		p.m.syncFail.Mark(1)
		return err
	}

	p.m.syncOk.Mark(1)
	log.Tracef("[%s] sent %s#%d@%d", p.name, p.topic, partition, offset)
	return nil
}

// Close will close the Producer, a closed producer returns ErrAlreadyClosed.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrAlreadyClosed
	}
	p.closed = true

	if p.p == nil {
		return nil
	}

	log.Debugf("[%s] producer closing", p.name)
	return p.p.Close()
}

// ClientID returns the client id for the kafka connection.
func (p *Producer) ClientID() string {
	if p.cf == nil {
		return ""
	}
	return p.cf.Sarama.ClientID
}
