package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/dmaslov/factorsieve/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"garbage", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNew_DoesNotPanic(t *testing.T) {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "console",
	}

	log := New(cfg)
	assert.NotNil(t, log)

	// Chained field loggers must return independent instances.
	child := log.WithField("ticker", "AAPL")
	assert.NotNil(t, child)
	assert.NotSame(t, log, child)
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	// Must swallow output without side effects.
	log.Info("discarded")
	log.WithFields(map[string]interface{}{"k": "v"}).Warn("discarded")
}
