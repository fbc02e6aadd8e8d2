package kafka

import (
	"fmt"
	"net/url"
	"strings"
)

// Scheme of the kafka DSN.
const Scheme = "kafka"

// ParseDSN parse the kafka DSN which is in the form of:
// kafka://host1:9092,host2:9092/topic?group.id=foo&acks=all.
// The query carries the properties understood by Config.Apply.
func ParseDSN(dsn string) (brokers []string, topic string, props map[string]string, err error) {
	var u *url.URL
	if u, err = url.Parse(dsn); err != nil {
		return
	}

	if u.Scheme != Scheme {
		err = fmt.Errorf("%w: scheme %q", ErrInvalidDSN, u.Scheme)
		return
	}

	for _, b := range strings.Split(u.Host, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		err = fmt.Errorf("%w: %s", ErrNoBrokers, dsn)
		return
	}

	topic = strings.Trim(u.Path, "/")
	if topic == "" {
		err = fmt.Errorf("%w: %s", ErrEmptyTopic, dsn)
		return
	}

	props = make(map[string]string)
	for k, v := range u.Query() {
		props[k] = v[len(v)-1]
	}

	return
}

// ConfigFromDSN is DefaultConfig with the brokers and properties of dsn applied.
func ConfigFromDSN(dsn string) (cf *Config, topic string, err error) {
	brokers, topic, props, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	cf = DefaultConfig().WithBrokers(brokers...)
	if err = cf.Apply(props); err != nil {
		return nil, "", err
	}

	return cf, topic, nil
}
