package logx

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
}

// Init replaces the global zerolog logger. Call once at startup, before any
// collaborator logs.
func Init(opts ...Config) {
	conf := Config{}
	if len(opts) > 0 {
		conf = opts[0]
	}
	log.Logger = New(conf)
}

// New builds a logger from the config without touching the global one.
func New(conf Config) zerolog.Logger {
	var logger zerolog.Logger
	if conf.PrettyFormat {
		logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}

	return logger.Level(level).With().Caller().Stack().Logger()
}
