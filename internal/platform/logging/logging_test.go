package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&log.TextFormatter{})
		log.SetLevel(log.InfoLevel)
	})

	t.Run("Production writes JSON", func(t *testing.T) {
		var buf bytes.Buffer
		SetupWithOutput(&buf, "debug", "production")

		log.WithField("user_id", "u1").Info("hello")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "u1", entry["user_id"])
		assert.Equal(t, log.DebugLevel, log.GetLevel())
	})

	t.Run("Development writes text", func(t *testing.T) {
		var buf bytes.Buffer
		SetupWithOutput(&buf, "warn", "development")

		log.Info("hidden")
		log.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown")
	})

	t.Run("Unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		SetupWithOutput(&buf, "loud", "development")

		assert.Equal(t, log.InfoLevel, log.GetLevel())
		assert.Contains(t, buf.String(), "unknown log level")
	})
}
