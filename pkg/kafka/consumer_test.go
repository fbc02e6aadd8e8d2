package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pollAll(t *testing.T, p Poller, want int) []*Record {
	var got []*Record
	deadline := time.Now().Add(time.Second * 5)
	for len(got) < want && time.Now().Before(deadline) {
		batch, err := p.Poll(context.Background(), time.Millisecond*50)
		require.NoError(t, err)
		got = append(got, batch...)
	}
	return got
}

func TestConsumerReplaysAllPartitions(t *testing.T) {
	mc := mocks.NewConsumer(t, nil)
	mc.SetTopicMetadata(map[string][]int32{"offsets": {0, 1}})
	mc.ExpectConsumePartition("offsets", 0, sarama.OffsetOldest).
		YieldMessage(&sarama.ConsumerMessage{Key: []byte("k1"), Value: []byte("10")})
	mc.ExpectConsumePartition("offsets", 1, sarama.OffsetOldest).
		YieldMessage(&sarama.ConsumerMessage{Key: []byte("k2"), Value: []byte("5")})

	c := NewConsumerFrom("test", "offsets", DefaultConfig(), mc)
	require.NoError(t, c.Start())

	records := pollAll(t, c, 2)
	assert.Equal(t, 2, len(records))
	got := map[string]string{}
	for _, r := range records {
		assert.Equal(t, "offsets", r.Topic)
		got[string(r.Key)] = string(r.Value)
	}
	assert.Equal(t, map[string]string{"k1": "10", "k2": "5"}, got)

	// caught up
	batch, err := c.Poll(context.Background(), time.Millisecond*20)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(batch))

	assert.Equal(t, nil, c.Close())
	assert.Equal(t, ErrAlreadyClosed, c.Close())

	_, err = c.Poll(context.Background(), time.Millisecond*20)
	assert.Equal(t, ErrAlreadyClosed, err)
}

func TestConsumerPartitionError(t *testing.T) {
	mc := mocks.NewConsumer(t, nil)
	mc.SetTopicMetadata(map[string][]int32{"offsets": {0}})
	mc.ExpectConsumePartition("offsets", 0, sarama.OffsetOldest).YieldError(sarama.ErrOutOfBrokers)

	c := NewConsumerFrom("test", "offsets", DefaultConfig(), mc)
	require.NoError(t, c.Start())

	var err error
	deadline := time.Now().Add(time.Second * 5)
	for err == nil && time.Now().Before(deadline) {
		_, err = c.Poll(context.Background(), time.Millisecond*50)
	}
	assert.NotNil(t, err)
	assert.Equal(t, nil, c.Close())
}

func TestConsumerUnknownTopic(t *testing.T) {
	mc := mocks.NewConsumer(t, nil)
	mc.SetTopicMetadata(map[string][]int32{"other": {0}})

	c := NewConsumerFrom("test", "offsets", DefaultConfig(), mc)
	assert.NotNil(t, c.Start())
}

func TestConsumerPollCanceled(t *testing.T) {
	mc := mocks.NewConsumer(t, nil)
	mc.SetTopicMetadata(map[string][]int32{"offsets": {}})

	c := NewConsumerFrom("test", "offsets", DefaultConfig(), mc)
	require.NoError(t, c.Start())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Poll(ctx, time.Second)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, nil, c.Close())
}

func TestConsumerMaxPollRecords(t *testing.T) {
	mc := mocks.NewConsumer(t, nil)
	mc.SetTopicMetadata(map[string][]int32{"offsets": {0}})
	pc := mc.ExpectConsumePartition("offsets", 0, sarama.OffsetOldest)
	for i := 0; i < 5; i++ {
		pc.YieldMessage(&sarama.ConsumerMessage{Key: []byte("k"), Value: []byte{byte(i)}})
	}

	cf := DefaultConfig()
	cf.MaxPollRecords = 2
	c := NewConsumerFrom("test", "offsets", cf, mc)
	require.NoError(t, c.Start())

	records := pollAll(t, c, 5)
	assert.Equal(t, 5, len(records))
	for i, r := range records {
		assert.Equal(t, []byte{byte(i)}, r.Value) // per partition order
	}
	assert.Equal(t, nil, c.Close())
}
