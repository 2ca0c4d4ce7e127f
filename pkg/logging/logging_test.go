package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{7, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForVerbosity(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	done := LogOperationStart(logger, "replicate")
	done()

	out := buf.String()
	assert.Contains(t, out, `"operation":"replicate"`)
	assert.Contains(t, out, "Operation started")
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, `"duration"`)
}

func TestLogCommand(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	LogCommand(logger, "choco", []string{"--version"})

	assert.Contains(t, buf.String(), `"command":"choco"`)
	assert.Contains(t, buf.String(), `"args":["--version"]`)
}
