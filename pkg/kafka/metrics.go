package kafka

import (
	"strings"

	"github.com/rcrowley/go-metrics"
)

type producerMetrics struct {
	name string

	syncOk   metrics.Meter
	syncFail metrics.Meter
}

func newProducerMetrics(name string) *producerMetrics {
	tag := strings.Replace(name, ".", "_", -1)
	return &producerMetrics{
		name:     name,
		syncOk:   metrics.GetOrRegisterMeter(tag+".resume.kafka.sync.ok", metrics.DefaultRegistry),
		syncFail: metrics.GetOrRegisterMeter(tag+".resume.kafka.sync.fail", metrics.DefaultRegistry),
	}
}

type consumerMetrics struct {
	polled metrics.Meter
	errs   metrics.Meter
}

func newConsumerMetrics(name string) *consumerMetrics {
	tag := strings.Replace(name, ".", "_", -1)
	return &consumerMetrics{
		polled: metrics.GetOrRegisterMeter(tag+".resume.kafka.polled", metrics.DefaultRegistry),
		errs:   metrics.GetOrRegisterMeter(tag+".resume.kafka.poll.fail", metrics.DefaultRegistry),
	}
}
