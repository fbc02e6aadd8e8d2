package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	log "github.com/sirupsen/logrus"
)

var (
	_ Poller                      = (*GroupConsumer)(nil)
	_ sarama.ConsumerGroupHandler = (*GroupConsumer)(nil)
)

// GroupConsumer consumes a topic as a member of a consumer group. The
// group session runs in background and feeds Poll.
type GroupConsumer struct {
	name    string
	topic   string
	groupID string
	cf      *Config

	owned bool
	group sarama.ConsumerGroup

	in *inbox
	m  *consumerMetrics

	ctx    context.Context
	cancel context.CancelFunc

	wg   sync.WaitGroup
	once sync.Once
}

// NewGroupConsumer returns a group consumer, Start is required before Poll.
func NewGroupConsumer(name, topic, groupID string, cf *Config) *GroupConsumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &GroupConsumer{
		name:    name,
		topic:   topic,
		groupID: groupID,
		cf:      cf,
		owned:   true,
		in:      newInbox(cf.Sarama.ChannelBufferSize, cf.MaxPollRecords),
		m:       newConsumerMetrics(name),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// NewGroupConsumerFrom consumes topic with an already created group.
// The injected group is not closed by Close.
func NewGroupConsumerFrom(name, topic, groupID string, cf *Config, group sarama.ConsumerGroup) *GroupConsumer {
	c := NewGroupConsumer(name, topic, groupID, cf)
	c.group = group
	c.owned = false
	return c
}

func (c *GroupConsumer) GroupID() string {
	return c.groupID
}

func (c *GroupConsumer) Start() error {
	if c.group == nil {
		if err := c.cf.Validate(); err != nil {
			return err
		}

		group, err := sarama.NewConsumerGroup(c.cf.Brokers, c.groupID, c.cf.Sarama)
		if err != nil {
			return err
		}
		c.group = group
	}

	c.wg.Add(2)
	go c.consumeLoop()
	go c.watchErrors()

	log.Debugf("[%s] group %s consuming %s", c.name, c.groupID, c.topic)
	return nil
}

func (c *GroupConsumer) consumeLoop() {
	defer c.wg.Done()

	for {
		// Consume returns on every rebalance, rejoin until closed
		err := c.group.Consume(c.ctx, []string{c.topic}, c)
		if errors.Is(err, sarama.ErrClosedConsumerGroup) || c.ctx.Err() != nil {
			return
		}

		if err != nil {
			log.Warnf("[%s] group %s: %v", c.name, c.groupID, err)
			c.in.fail(err)

			select {
			case <-c.ctx.Done():
				return
			case <-time.After(c.cf.Sarama.Consumer.Retry.Backoff):
			}
		}
	}
}

func (c *GroupConsumer) watchErrors() {
	defer c.wg.Done()

	errs := c.group.Errors()
	for {
		select {
		case <-c.ctx.Done():
			return

		case err, ok := <-errs:
			if !ok {
				return
			}

			log.Warnf("[%s] group %s: %v", c.name, c.groupID, err)
			c.in.fail(err)
		}
	}
}

func (c *GroupConsumer) Setup(sess sarama.ConsumerGroupSession) error {
	log.Tracef("[%s] group %s session %d claims %+v", c.name, c.groupID, sess.GenerationID(), sess.Claims())
	return nil
}

func (c *GroupConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (c *GroupConsumer) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-sess.Context().Done():
			return nil

		case <-c.in.stopper:
			return nil

		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			if !c.in.push(msg) {
				return nil
			}
			sess.MarkMessage(msg, "")
		}
	}
}

func (c *GroupConsumer) Poll(ctx context.Context, timeout time.Duration) ([]*Record, error) {
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

func (c *GroupConsumer) Close() error {
	err := ErrAlreadyClosed
	c.once.Do(func() {
		c.cancel()
		c.in.stop()

		err = nil
		if c.owned && c.group != nil {
			err = c.group.Close()
		}
		c.wg.Wait()
	})

	return err
}
