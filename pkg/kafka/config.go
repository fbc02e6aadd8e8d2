package kafka

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
)

const (
	defaultPollTimeout    = time.Second
	defaultMaxPollRecords = 500
)

// Config is the configuration of kafka pkg.
type Config struct {
	Brokers []string

	// GroupID is the consumer group of GroupConsumer.
	GroupID string

	PollTimeout    time.Duration
	MaxPollRecords int

	Sarama *sarama.Config
}

// DefaultConfig creates a default Config as sync producer and consumer
// that starts from the oldest offset.
func DefaultConfig() *Config {
	cf := sarama.NewConfig()
	cf.ClientID = generateClientID()
	cf.Version = sarama.V2_1_0_0
	cf.MetricRegistry = metrics.DefaultRegistry

	// network
	cf.Net.DialTimeout = time.Second * 30
	cf.Net.ReadTimeout = time.Second * 30
	cf.Net.WriteTimeout = time.Second * 30
	cf.Net.MaxOpenRequests = 5

	cf.ChannelBufferSize = 256 * 4 // default was 256
	cf.Metadata.RefreshFrequency = time.Minute * 10
	cf.Metadata.Retry.Max = 5
	cf.Metadata.Retry.Backoff = time.Millisecond * 500

	// producer, sync mode: no batch
	cf.Producer.Timeout = time.Second * 30
	cf.Producer.Compression = sarama.CompressionNone
	cf.Producer.Retry.Max = 5
	cf.Producer.Retry.Backoff = time.Millisecond * 350
	cf.Producer.RequiredAcks = sarama.WaitForLocal // default ack
	cf.Producer.Return.Errors = true
	cf.Producer.Return.Successes = true
	cf.Producer.Partitioner = sarama.NewHashPartitioner

	// consumer, every checkpoint reader replays full history
	cf.Consumer.Return.Errors = true
	cf.Consumer.Offsets.Initial = sarama.OffsetOldest
	cf.Consumer.Group.Session.Timeout = time.Second * 10

	return &Config{
		Sarama:         cf,
		PollTimeout:    defaultPollTimeout,
		MaxPollRecords: defaultMaxPollRecords,
	}
}

func (c *Config) Ack(ack sarama.RequiredAcks) *Config {
	c.Sarama.Producer.RequiredAcks = ack
	return c
}

func (c *Config) WithBrokers(brokers ...string) *Config {
	c.Brokers = brokers
	return c
}

func (c *Config) WithGroup(group string) *Config {
	c.GroupID = group
	return c
}

// Clone returns a copy of c that can be modified independently.
func (c *Config) Clone() *Config {
	sc := *c.Sarama
	cp := *c
	cp.Sarama = &sc
	cp.Brokers = append([]string(nil), c.Brokers...)
	return &cp
}

// Validate checks c is usable to connect to kafka.
func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return ErrNoBrokers
	}
	for _, b := range c.Brokers {
		if strings.TrimSpace(b) == "" {
			return fmt.Errorf("%w: empty broker in %v", ErrNoBrokers, c.Brokers)
		}
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("%w: poll timeout %s", ErrInvalidProperty, c.PollTimeout)
	}
	if c.MaxPollRecords <= 0 {
		return fmt.Errorf("%w: max poll records %d", ErrInvalidProperty, c.MaxPollRecords)
	}

	return c.Sarama.Validate()
}

// generateClientID returns host-uuid, kafka client id allows only [a-zA-Z0-9._-].
func generateClientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "resume"
	}

	host = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, host)

	return fmt.Sprintf("%s-%s", host, uuid.NewString())
}
