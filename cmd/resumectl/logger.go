package main

import (
	stdlog "log"

	"github.com/Shopify/sarama"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func setupLogging(cf *config) error {
	level, err := log.ParseLevel(cf.LogLevel)
	if err != nil {
		return err
	}

	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if cf.LogFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cf.LogFile,
			MaxSize:    100, // MB
			MaxBackups: 7,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	// sarama is chatty, only at trace level
	if level == log.TraceLevel {
		sarama.Logger = stdlog.New(log.StandardLogger().WriterLevel(log.TraceLevel), "[sarama] ", stdlog.Lshortfile)
	}

	return nil
}
