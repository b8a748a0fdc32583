package logx

import (
	"testing"

	"github.com/chative-tutor/server/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestInitLevels(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	tests := []struct {
		name  string
		opts  LoggerOpts
		level zerolog.Level
	}{
		{name: "development", opts: LoggerOpts{Environment: core.Development}, level: zerolog.DebugLevel},
		{name: "testing", opts: LoggerOpts{Environment: core.Testing}, level: zerolog.DebugLevel},
		{name: "staging", opts: LoggerOpts{Environment: core.Staging}, level: zerolog.InfoLevel},
		{name: "production", opts: LoggerOpts{Environment: core.Production}, level: zerolog.InfoLevel},
		{name: "override", opts: LoggerOpts{Environment: core.Production, Level: "warn"}, level: zerolog.WarnLevel},
		{name: "bad override", opts: LoggerOpts{Environment: core.Development, Level: "loud"}, level: zerolog.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Init(tt.opts)
			assert.Equal(t, tt.level, log.Logger.GetLevel())
		})
	}
}
