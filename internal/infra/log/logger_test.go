package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitWritesFieldsAsJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	t.Cleanup(func() { UseLogger(zap.NewNop()) })

	LogInfo("Template loaded", zap.String("path", "template.png"), zap.Int("width", 1600))
	LogWarn("Font file not found")

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], "INFO Template loaded\t")
	assert.Contains(t, lines[0], `"path":"template.png"`)
	assert.Contains(t, lines[0], `"width":1600`)
	assert.True(t, strings.HasSuffix(lines[1], "WARN Font file not found"))
}

func TestLogResponseLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	UseLogger(zap.New(core))
	t.Cleanup(func() { UseLogger(zap.NewNop()) })

	LogResponse("abc", 200, 12, zap.String("endpoint", "/generate"))
	LogResponse("abc", 302, 1)

	entries := logs.TakeAll()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, zapcore.InfoLevel, e.Level)
	}

	LogResponse("def", 429, 3, zap.String("endpoint", "/generate"))

	entries = logs.TakeAll()
	require.Len(t, entries, 2, "file entry plus console echo")
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, int64(429), entries[0].ContextMap()["status_code"])
	assert.Equal(t, "✗ HTTP request failed [429] /generate", entries[1].Message)
}

func TestLogSuccessAppendsDuration(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	UseLogger(zap.New(core))
	t.Cleanup(func() { UseLogger(zap.NewNop()) })

	LogSuccess("DTR image sent", zap.Int64("duration_ms", 35))
	LogSuccess("Bot authorized")

	entries := logs.TakeAll()
	require.Len(t, entries, 4)
	assert.Equal(t, "✓ DTR image sent (35ms)", entries[1].Message)
	assert.Equal(t, "✓ Bot authorized", entries[3].Message)
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestFieldsToMap(t *testing.T) {
	m := fieldsToMap([]zapcore.Field{zap.String("layout", "classic"), zap.Bool("saved", true)})
	assert.Equal(t, map[string]interface{}{"layout": "classic", "saved": true}, m)
}
