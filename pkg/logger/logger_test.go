package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/lesson-harvester/pkg/logger"
)

func TestNew_JSONKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := logger.New(&buf, "info", "json")
	require.NoError(t, err)

	log.Info("unit visited", zap.String("url", "https://x/collection/1"))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "unit visited", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "https://x/collection/1", entry["url"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_LevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := logger.New(&buf, "warn", "json")
	require.NoError(t, err)

	log.Info("hidden")
	assert.Zero(t, buf.Len())
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	_, err := logger.New(&bytes.Buffer{}, "loud", "json")
	require.Error(t, err)

	_, err = logger.New(&bytes.Buffer{}, "info", "xml")
	require.Error(t, err)
}
