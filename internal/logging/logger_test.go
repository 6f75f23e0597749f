package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponent_TagsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf})

	log := WithComponent("pipeline")
	log.Info().Str("file", "movie.mkv").Msg("probing")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, "submux", entry["service"])
	assert.Equal(t, "movie.mkv", entry["file"])
	assert.Equal(t, "probing", entry["message"])
}

func TestConfigure_OnlyOnce(t *testing.T) {
	var first, second bytes.Buffer
	Configure(Config{Output: &first})
	Configure(Config{Output: &second})

	log := Base()
	log.Info().Msg("hello")
	assert.Empty(t, second.Bytes(), "second Configure must not rebind the sink")
}
