package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, lvl)

	lvl, err = ParseLevel("CRIT")
	require.NoError(t, err)
	assert.Equal(t, LevelCrit, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestModuleFiltering(t *testing.T) {
	var buf bytes.Buffer
	old := Root()
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelTrace)))
	defer SetDefault(old)

	DisableModule(ExtractMonitoring)
	Debug(ExtractMonitoring, "should be filtered")
	assert.Empty(t, buf.String())

	EnableModule(ExtractMonitoring)
	defer DisableModule(ExtractMonitoring)
	Debug(ExtractMonitoring, "visible now", "k", "v")
	assert.Contains(t, buf.String(), "visible now")
	assert.Contains(t, buf.String(), "module="+ExtractMonitoring)
	assert.Contains(t, buf.String(), "k=v")

	// Info is not module-filtered.
	buf.Reset()
	DisableModule(ExtractMonitoring)
	Info(ExtractMonitoring, "always emitted")
	assert.Contains(t, buf.String(), "always emitted")
}

func TestHandlerLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	lg := NewLogger(NewTerminalHandlerWithLevel(&buf, slog.LevelWarn))

	lg.Info("", "too quiet")
	assert.Empty(t, buf.String())

	lg.Warn("", "loud enough")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "loud enough")
}
