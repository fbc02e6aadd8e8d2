package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

type config struct {
	Store      string
	Brokers    []string
	Topic      string
	Props      map[string]string
	Partitions int
	Codec      string

	LogLevel string
	LogFile  string
	DryRun   bool

	Addr        string
	Workers     int
	GroupPrefix string
	Restart     time.Duration
	Interval    time.Duration
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("resume")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.resume")
	v.AddConfigPath("/etc/resume")
	v.SetEnvPrefix("RESUME")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("brokers", []string{"localhost:9092"})
	v.SetDefault("topic", "resume-offsets")
	v.SetDefault("partitions", 3)
	v.SetDefault("codec", "string")
	v.SetDefault("log-level", "info")
	v.SetDefault("addr", "127.0.0.1:9191")
	v.SetDefault("workers", 16)
	v.SetDefault("group-prefix", "resumectl")
	v.SetDefault("interval", time.Second)
	return v
}

// loadConfig merges, lowest first: defaults, config file, env, flags.
func loadConfig(c *cli.Context) (*config, error) {
	v := newViper()
	if file := c.String("config"); file != "" {
		v.SetConfigFile(file)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	for _, name := range []string{"store", "topic", "codec", "log-level", "log-file"} {
		if c.IsSet(name) {
			v.Set(name, c.String(name))
		}
	}
	if c.IsSet("brokers") {
		v.Set("brokers", c.StringSlice("brokers"))
	}
	if c.IsSet("dry-run") {
		v.Set("dry-run", c.Bool("dry-run"))
	}

	props := v.GetStringMapString("kafka")
	if props == nil {
		props = make(map[string]string)
	}
	for _, kv := range c.StringSlice("prop") {
		k, val, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("config: bad property %q, want key=value", kv)
		}
		props[strings.TrimSpace(k)] = strings.TrimSpace(val)
	}

	return &config{
		Store:       v.GetString("store"),
		Brokers:     v.GetStringSlice("brokers"),
		Topic:       v.GetString("topic"),
		Props:       props,
		Partitions:  v.GetInt("partitions"),
		Codec:       v.GetString("codec"),
		LogLevel:    v.GetString("log-level"),
		LogFile:     v.GetString("log-file"),
		DryRun:      v.GetBool("dry-run"),
		Addr:        v.GetString("addr"),
		Workers:     v.GetInt("workers"),
		GroupPrefix: v.GetString("group-prefix"),
		Restart:     v.GetDuration("restart"),
		Interval:    v.GetDuration("interval"),
	}, nil
}
