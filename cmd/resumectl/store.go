package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kgibm/resume/pkg/checkpoint"
	"github.com/kgibm/resume/pkg/checkpoint/cache"
	"github.com/kgibm/resume/pkg/checkpoint/codec"
	"github.com/kgibm/resume/pkg/checkpoint/store/discard"
	store "github.com/kgibm/resume/pkg/checkpoint/store/kafka"
	"github.com/kgibm/resume/pkg/dsn"
	"github.com/kgibm/resume/pkg/kafka"
	"github.com/kgibm/resume/pkg/kafka/mocklog"
)

// strategy is what every console command works on.
type strategy interface {
	checkpoint.Strategy[string, string]
	checkpoint.Manager[string, string]
}

// console holds the state shared by the commands of one process.
type console struct {
	cf *config

	// mem is the in-memory log of --dry-run and mem:// stores
	mem *mocklog.Log
}

// channel returns nil for the discard store.
func (this *console) channel() (kafka.Channel, error) {
	cf := this.cf
	if cf.DryRun {
		return this.memLog(cf.Topic), nil
	}

	if cf.Store != "" {
		scheme, uri, err := dsn.Parse(cf.Store)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cf.Store, err)
		}

		switch scheme {
		case dsn.Kafka:
			kcf, topic, err := kafka.ConfigFromDSN(cf.Store)
			if err != nil {
				return nil, err
			}
			if err = kcf.Apply(cf.Props); err != nil {
				return nil, err
			}
			return kafka.NewLog(topic, kcf, kcf.Clone())

		case dsn.Mem:
			topic := strings.Trim(uri, "/")
			if topic == "" {
				topic = cf.Topic
			}
			return this.memLog(topic), nil

		case dsn.Discard:
			return nil, nil
		}
	}

	kcf := kafka.DefaultConfig().WithBrokers(cf.Brokers...)
	if err := kcf.Apply(cf.Props); err != nil {
		return nil, err
	}
	return kafka.NewLog(cf.Topic, kcf, kcf.Clone())
}

func (this *console) memLog(topic string) *mocklog.Log {
	if this.mem == nil {
		this.mem = mocklog.New(topic, this.cf.Partitions)
	}
	return this.mem
}

func (this *console) options() (store.Options[string, string], error) {
	values, err := valueCodec(this.cf.Codec)
	if err != nil {
		return store.Options[string, string]{}, err
	}

	return store.Options[string, string]{
		Cache:  cache.NewConcurrent[string, string](),
		Keys:   codec.String(),
		Values: values,
	}, nil
}

// openSingle starts a strategy that has loaded the whole topic.
func (this *console) openSingle(ctx context.Context) (strategy, error) {
	ch, err := this.channel()
	if err != nil {
		return nil, err
	}

	if ch == nil {
		z, err := discard.New[string, string](cache.NewConcurrent[string, string](), nil)
		if err != nil {
			return nil, err
		}
		return z, z.Start(ctx)
	}

	opts, err := this.options()
	if err != nil {
		return nil, err
	}
	opts.Channel = ch

	s, err := store.NewSingleNode(opts)
	if err != nil {
		return nil, err
	}
	if err = s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// openMulti starts a strategy that keeps merging the offsets of peers.
func (this *console) openMulti(ctx context.Context, executor checkpoint.Executor) (strategy, error) {
	ch, err := this.channel()
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return this.openSingle(ctx)
	}

	opts, err := this.options()
	if err != nil {
		return nil, err
	}
	opts.Channel = ch

	mopts := store.MultiOptions{
		Executor:    executor,
		GroupPrefix: this.cf.GroupPrefix,
	}
	if this.cf.Restart > 0 {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = this.cf.Restart
		b.MaxElapsedTime = 0
		b.MaxInterval = time.Minute
		mopts.Restart = b
	}

	m, err := store.NewMultiNode(opts, mopts)
	if err != nil {
		return nil, err
	}

	if err = m.Start(ctx); err != nil {
		m.Stop()
		return nil, err
	}
	return m, nil
}
