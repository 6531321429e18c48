package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"not-a-level", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, err := NewLogger(tt.level)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.want))
			assert.False(t, log.Core().Enabled(tt.want-1))
		})
	}
}

func TestLogger_Scoping(t *testing.T) {
	log := NewNop()

	assert.NotNil(t, log.WithComponent("analysis-service"))
	assert.NotNil(t, log.WithRequest("req-1", "addr"))
	assert.NotNil(t, log.WithFields(map[string]interface{}{"rows": 3}))
}
