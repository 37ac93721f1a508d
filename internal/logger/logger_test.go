package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput(t *testing.T) {
	t.Run("should write JSON entries with the component field", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithOutput("debug", "json", &buf)

		WithComponent(log, "registry").Debug("lookup")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "registry", entry["component"])
		assert.Equal(t, "lookup", entry["msg"])
		assert.Equal(t, "debug", entry["level"])
	})

	t.Run("should fall back to info on an unknown level", func(t *testing.T) {
		log := NewWithOutput("loud", "text", &bytes.Buffer{})
		assert.Equal(t, logrus.InfoLevel, log.GetLevel())
		assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
	})
}
