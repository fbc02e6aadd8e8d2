package kafka

import (
	"strings"

	"github.com/rcrowley/go-metrics"
)

type strategyMetrics struct {
	loaded     metrics.Counter
	updateOk   metrics.Counter
	updateFail metrics.Counter

	merged   metrics.Counter
	restarts metrics.Counter
}

func newStrategyMetrics(name string) *strategyMetrics {
	tag := strings.Replace(name, ".", "_", -1)
	return &strategyMetrics{
		loaded:     metrics.GetOrRegisterCounter(tag+".resume.loaded", metrics.DefaultRegistry),
		updateOk:   metrics.GetOrRegisterCounter(tag+".resume.update.ok", metrics.DefaultRegistry),
		updateFail: metrics.GetOrRegisterCounter(tag+".resume.update.fail", metrics.DefaultRegistry),
		merged:     metrics.GetOrRegisterCounter(tag+".resume.refresher.merged", metrics.DefaultRegistry),
		restarts:   metrics.GetOrRegisterCounter(tag+".resume.refresher.restarts", metrics.DefaultRegistry),
	}
}
