package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONWithMessageKey(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug")

	logger.WithField("room_id", "r1").Info("sent notifications")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "sent notifications", line["message"])
	assert.Equal(t, "r1", line["room_id"])
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger := New(&bytes.Buffer{}, "loud")
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
}

func TestTokenPrefix(t *testing.T) {
	assert.Equal(t, "short", TokenPrefix("short"))
	assert.Equal(t, "abcdefghijklmnopqrst...", TokenPrefix("abcdefghijklmnopqrstuvwxyz"))
}
