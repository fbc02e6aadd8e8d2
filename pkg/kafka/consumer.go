package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	log "github.com/sirupsen/logrus"
)

var _ Poller = (*Consumer)(nil)

// Consumer is a kafka low level consumer that replays every partition of a
// topic from the oldest offset, the way a checkpoint loader reads.
type Consumer struct {
	name  string
	topic string
	cf    *Config

	// owned is false when the sarama consumer was injected
	owned    bool
	consumer sarama.Consumer

	in *inbox
	m  *consumerMetrics

	wg   sync.WaitGroup
	once sync.Once
}

// NewConsumer returns a kafka consumer, Start is required before Poll.
func NewConsumer(name, topic string, cf *Config) *Consumer {
	return &Consumer{
		name:  name,
		topic: topic,
		cf:    cf,
		owned: true,
		in:    newInbox(cf.Sarama.ChannelBufferSize, cf.MaxPollRecords),
		m:     newConsumerMetrics(name),
	}
}

// NewConsumerFrom reads topic with an already connected sarama consumer.
// The injected consumer is not closed by Close.
func NewConsumerFrom(name, topic string, cf *Config, consumer sarama.Consumer) *Consumer {
	c := NewConsumer(name, topic, cf)
	c.consumer = consumer
	c.owned = false
	return c
}

func (c *Consumer) Start() error {
	if c.consumer == nil {
		if err := c.cf.Validate(); err != nil {
			return err
		}

		consumer, err := sarama.NewConsumer(c.cf.Brokers, c.cf.Sarama)
		if err != nil {
			return err
		}
		c.consumer = consumer
	}

	partitions, err := c.consumer.Partitions(c.topic)
	if err != nil {
		c.closeConsumer()
		return err
	}

	var pcs []sarama.PartitionConsumer
	for _, partitionID := range partitions {
		pc, err := c.consumer.ConsumePartition(c.topic, partitionID, sarama.OffsetOldest)
		if err != nil {
			for _, opened := range pcs {
				opened.AsyncClose()
			}
			c.closeConsumer()
			return err
		}
		pcs = append(pcs, pc)
	}

	for _, pc := range pcs {
		c.wg.Add(1)
		go c.consumePartition(pc)
	}

	log.Debugf("[%s] consuming %s partitions %v", c.name, c.topic, partitions)
	return nil
}

func (c *Consumer) Poll(ctx context.Context, timeout time.Duration) ([]*Record, error) {
	batch, err := c.in.poll(ctx, timeout)
	if err != nil {
		if err != ErrAlreadyClosed {
			c.m.errs.Mark(1)
		}
		return nil, err
	}

	c.m.polled.Mark(int64(len(batch)))
	return batch, nil
}

func (c *Consumer) Close() error {
	err := ErrAlreadyClosed
	c.once.Do(func() {
		c.in.stop()
		c.wg.Wait()
		err = c.closeConsumer()
	})

	return err
}

func (c *Consumer) closeConsumer() error {
	if !c.owned || c.consumer == nil {
		return nil
	}

	return c.consumer.Close()
}

func (c *Consumer) consumePartition(pc sarama.PartitionConsumer) {
	defer func() {
		pc.Close()
		c.wg.Done()
	}()

	errs := pc.Errors()
	for {
		select {
		case <-c.in.stopper:
			return

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}

			log.Warnf("[%s] %s: %v", c.name, c.topic, err)
			c.in.fail(err)

		case msg, ok := <-pc.Messages():
			if !ok {
				c.in.fail(ErrConsumerBroken)
				return
			}

			if !c.in.push(msg) {
				return
			}
		}
	}
}
