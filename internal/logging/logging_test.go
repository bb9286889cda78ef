package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("chatty"))
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "agent.log")
	log, closeFn, err := New("info", path)
	require.NoError(t, err)

	log.Named("naukri").Info("page parsed", zap.Int("page", 2))
	log.Debug("hidden")
	closeFn()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "jobwatch.naukri")
	assert.Contains(t, string(raw), "page parsed")
	assert.Contains(t, string(raw), `"page": 2`)
	assert.NotContains(t, string(raw), "hidden")
}
