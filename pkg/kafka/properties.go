package kafka

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Shopify/sarama"
)

// Property keys understood by Apply, named after the kafka client settings.
const (
	PropBootstrapServers = "bootstrap.servers"
	PropClientID         = "client.id"
	PropGroupID          = "group.id"
	PropAcks             = "acks"
	PropCompression      = "compression.type"
	PropRequestTimeout   = "request.timeout.ms"
	PropSessionTimeout   = "session.timeout.ms"
	PropRetries          = "retries"
	PropAutoOffsetReset  = "auto.offset.reset"
	PropMaxPollRecords   = "max.poll.records"
	PropPollTimeout      = "poll.timeout.ms"
	PropKafkaVersion     = "kafka.version"
)

// Apply sets c from a kafka style property bag. Keys are applied in
// sorted order and the first bad key stops the apply.
func (c *Config) Apply(props map[string]string) error {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := c.apply(k, strings.TrimSpace(props[k])); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) apply(key, val string) error {
	invalid := func(err error) error {
		if err != nil {
			return fmt.Errorf("%w: %s=%s: %v", ErrInvalidProperty, key, val, err)
		}
		return fmt.Errorf("%w: %s=%s", ErrInvalidProperty, key, val)
	}

	switch key {
	case PropBootstrapServers:
		var brokers []string
		for _, b := range strings.Split(val, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		if len(brokers) == 0 {
			return invalid(nil)
		}
		c.Brokers = brokers

	case PropClientID:
		if val == "" {
			return invalid(nil)
		}
		c.Sarama.ClientID = val

	case PropGroupID:
		c.GroupID = val

	case PropAcks:
		switch val {
		case "0":
			c.Ack(sarama.NoResponse)
		case "1":
			c.Ack(sarama.WaitForLocal)
		case "all", "-1":
			c.Ack(sarama.WaitForAll)
		default:
			return invalid(nil)
		}

	case PropCompression:
		codec, present := compressions[val]
		if !present {
			return invalid(nil)
		}
		c.Sarama.Producer.Compression = codec

	case PropRequestTimeout:
		d, err := millis(val)
		if err != nil {
			return invalid(err)
		}
		c.Sarama.Net.ReadTimeout = d
		c.Sarama.Net.WriteTimeout = d
		c.Sarama.Producer.Timeout = d

	case PropSessionTimeout:
		d, err := millis(val)
		if err != nil {
			return invalid(err)
		}
		c.Sarama.Consumer.Group.Session.Timeout = d

	case PropRetries:
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return invalid(err)
		}
		c.Sarama.Producer.Retry.Max = n

	case PropAutoOffsetReset:
		switch val {
		case "earliest":
			c.Sarama.Consumer.Offsets.Initial = sarama.OffsetOldest
		case "latest":
			c.Sarama.Consumer.Offsets.Initial = sarama.OffsetNewest
		default:
			return invalid(nil)
		}

	case PropMaxPollRecords:
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return invalid(err)
		}
		c.MaxPollRecords = n

	case PropPollTimeout:
		d, err := millis(val)
		if err != nil {
			return invalid(err)
		}
		c.PollTimeout = d

	case PropKafkaVersion:
		v, err := sarama.ParseKafkaVersion(val)
		if err != nil {
			return invalid(err)
		}
		c.Sarama.Version = v

	default:
		return fmt.Errorf("%w: %s", ErrUnknownProperty, key)
	}

	return nil
}

var compressions = map[string]sarama.CompressionCodec{
	"none":   sarama.CompressionNone,
	"gzip":   sarama.CompressionGZIP,
	"snappy": sarama.CompressionSnappy,
	"lz4":    sarama.CompressionLZ4,
	"zstd":   sarama.CompressionZSTD,
}

func millis(s string) (time.Duration, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}

	return time.Duration(n) * time.Millisecond, nil
}
