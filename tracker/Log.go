package tracker

import (
	"github.com/rs/zerolog"
)

// Log is a Tracker which writes each recorded metric to a structured
// logger instead of accumulating it in memory. It is useful for
// watching training progress live.
type Log struct {
	logger zerolog.Logger
}

// NewLog returns a new Log Tracker writing to logger
func NewLog(logger zerolog.Logger) Tracker {
	return &Log{logger: logger}
}

// Track writes the value of a metric at a training step to the log
func (l *Log) Track(metric string, step int, value float64) {
	l.logger.Debug().
		Int("step", step).
		Float64(metric, value).
		Msg("track")
}

// Save implements the Tracker interface. There is nothing to persist,
// all data was already written to the log.
func (l *Log) Save() error {
	return nil
}
