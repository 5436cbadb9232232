package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconfigure_AttachesServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Reconfigure(Config{Level: "debug", Output: &buf, Service: "shotplan-test", Version: "v0.0.1"})
	t.Cleanup(func() { Reconfigure(Config{}) })

	l := WithComponent("duration")
	l.Debug().Str(FieldEvent, "duration.rescaled").Msg("rescaled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shotplan-test", entry["service"])
	assert.Equal(t, "v0.0.1", entry["version"])
	assert.Equal(t, "duration", entry[FieldComponent])
	assert.Equal(t, "duration.rescaled", entry[FieldEvent])
}

func TestDerive(t *testing.T) {
	var buf bytes.Buffer
	Reconfigure(Config{Output: &buf})
	t.Cleanup(func() { Reconfigure(Config{}) })

	l := Derive(func(ctx *zerolog.Context) {
		ctx.Str("custom_field", "value")
	})
	l.Info().Msg("derived")
	assert.Contains(t, buf.String(), `"custom_field":"value"`)

	nilBuilder := Derive(nil)
	assert.NotEqual(t, zerolog.Disabled, nilBuilder.GetLevel())
}
