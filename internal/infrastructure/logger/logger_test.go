package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"json format", &Config{Level: "info", Format: "json", Output: "stdout"}},
		{"console format", &Config{Level: "debug", Format: "console", Output: "stderr"}},
		{"unknown level falls back to info", &Config{Level: "bogus", Format: "json", Output: "stdout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, log)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestContextRoundTrip(t *testing.T) {
	base := zap.NewNop()
	ctx := context.Background()

	assert.NotNil(t, FromContext(ctx), "missing logger yields no-op, not nil")

	ctx, enriched := WithRequestID(ctx, base, "req-1")
	assert.NotNil(t, enriched)
	assert.Equal(t, "req-1", GetRequestID(ctx))

	ctx, _ = WithActor(ctx, enriched, "user-7")
	assert.Equal(t, "user-7", GetActor(ctx))
	assert.NotNil(t, FromContext(ctx))
}
