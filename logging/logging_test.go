package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultLoggerFiltersByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewDefaultLoggerTo(&out, &errOut)
	logger.SetLevel(WarnLevel)

	logger.Info("hidden")
	logger.Warn("shown", Fields{"file": "a.mp3"})
	logger.Error(errors.New("boom"), "failed")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "[WARN] shown")
	assert.Contains(t, errOut.String(), "file=a.mp3")
	assert.Contains(t, errOut.String(), "failed: boom")
}

func TestWithContextCarriesFields(t *testing.T) {
	var out bytes.Buffer
	logger := NewDefaultLoggerTo(&out, &out)

	ctx := ContextWithFields(context.Background(), Fields{"run": "r1"})
	ctx = ContextWithFields(ctx, Fields{"metric": "cosine"})
	logger.WithContext(ctx).Info("hello")

	assert.Contains(t, out.String(), "run=r1")
	assert.Contains(t, out.String(), "metric=cosine")
}

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLoggerFromCore(core, InfoLevel)

	logger.Debug("dropped")
	logger.WithFields(Fields{"component": "catalog"}).Info("built", Fields{"rows": 3})
	logger.Error(errors.New("decode"), "item failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "built", entries[0].Message)
	assert.Equal(t, "catalog", entries[0].ContextMap()["component"])
	assert.EqualValues(t, 3, entries[0].ContextMap()["rows"])
	assert.Equal(t, "decode", entries[1].ContextMap()["error"])

	logger.SetLevel(DebugLevel)
	logger.Debug("now visible")
	assert.Equal(t, 3, logs.Len())
}

func TestOrGlobal(t *testing.T) {
	noop := &NoOpLogger{}
	assert.Same(t, noop, OrGlobal(noop, "x"))
	assert.NotNil(t, OrGlobal(nil, "x"))
}
