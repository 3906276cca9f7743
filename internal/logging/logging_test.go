package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Config{Level: "debug", Format: "json", Out: buf})

	log.Debug().Str("key", "value").Msg("hello")
	out := buf.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"key":"value"`)
	assert.Contains(t, out, `"message":"hello"`)
}

func TestNewConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Config{Level: "info", Format: "console", Out: buf})

	log.Info().Msg("console line")
	assert.Contains(t, buf.String(), "console line")
}

func TestNewLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Config{Level: "warn", Format: "json", Out: buf})

	log.Info().Msg("too quiet")
	assert.Empty(t, buf.String())

	log.Warn().Msg("loud enough")
	assert.Contains(t, buf.String(), "loud enough")
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Config{Level: "chatty", Format: "json", Out: buf})

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
	log.Info().Msg("visible")
	assert.NotEmpty(t, buf.String())
}

func TestComponentLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := ComponentLogger(New(Config{Format: "json", Out: buf}), "procpool")

	log.Info().Msg("tagged")
	assert.Contains(t, buf.String(), `"component":"procpool"`)
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Config{Format: "json", Out: buf})

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info().Msg("through the context")
	assert.Contains(t, buf.String(), "through the context")
}

func TestFromContextWithoutLogger(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
	log.Info().Msg("goes nowhere")
}
