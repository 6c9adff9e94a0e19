package loggerw

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valian-ca/firebase-functions/configw"
	"github.com/valian-ca/firebase-functions/gclogw"
)

type entryRecorder struct {
	entries []gclogw.Entry
}

func (r *entryRecorder) Write(entry gclogw.Entry) {
	r.entries = append(r.entries, entry)
}

func devRuntime(logLevel string) configw.Runtime {
	return configw.Runtime{FunctionsEmulator: true, LogLevel: logLevel}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelAll, ParseLevel(""))
	assert.Equal(t, LevelAll, ParseLevel("verbose"))
	assert.Equal(t, LevelAll, ParseLevel("silent"))
}

func TestConsoleLogger_levelFiltering(t *testing.T) {
	all := []string{"debug-entry", "info-entry", "warn-entry", "error-entry"}
	emitAll := func(l Logger) {
		l.Debug("debug-entry")
		l.Info("info-entry")
		l.Warn("warn-entry")
		l.Error("error-entry")
	}
	tests := []struct {
		logLevel string
		want     []string
	}{
		{"debug", all},
		{"info", []string{"info-entry", "warn-entry", "error-entry"}},
		{"warn", []string{"warn-entry", "error-entry"}},
		{"error", []string{"error-entry"}},
		{"garbage", all},
		{"", all},
	}
	for _, tt := range tests {
		t.Run("LOG_LEVEL="+tt.logLevel, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(&Option{Runtime: devRuntime(tt.logLevel), Output: &buf})
			require.NoError(t, err)

			emitAll(l)

			out := buf.String()
			wanted := make(map[string]bool, len(tt.want))
			for _, msg := range tt.want {
				wanted[msg] = true
				assert.Contains(t, out, msg)
			}
			for _, msg := range all {
				if !wanted[msg] {
					assert.NotContains(t, out, msg)
				}
			}
		})
	}
}

func TestConsoleLogger_logAliasesInfo(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Option{Runtime: devRuntime("info"), Output: &buf})
	require.NoError(t, err)

	l.Log("through the alias")
	assert.Contains(t, buf.String(), "through the alias")

	buf.Reset()
	l, err = New(&Option{Runtime: devRuntime("warn"), Output: &buf})
	require.NoError(t, err)
	l.Log("suppressed like info")
	assert.Empty(t, buf.String())
}

func TestCloudLogger_forwardsEveryCall(t *testing.T) {
	rec := &entryRecorder{}
	l, err := New(&Option{Runtime: configw.Runtime{LogLevel: "error"}, Cloud: rec})
	require.NoError(t, err)

	l.Debug("cold start done")
	l.Info("processing", map[string]interface{}{"count": 2})
	l.Warn("slow upstream")
	l.Error("sync failed", errors.New("boom"))

	// no level filtering in production, even with LOG_LEVEL=error
	require.Len(t, rec.entries, 4)
	assert.Equal(t, gclogw.SeverityDebug, rec.entries[0].Severity)
	assert.Equal(t, "cold start done", rec.entries[0].Message)
	assert.Equal(t, gclogw.SeverityInfo, rec.entries[1].Severity)
	assert.Equal(t, 2, rec.entries[1].Fields["count"])
	assert.Equal(t, gclogw.SeverityWarning, rec.entries[2].Severity)
	assert.Equal(t, gclogw.SeverityError, rec.entries[3].Severity)
	assert.Equal(t, "boom", rec.entries[3].Fields["error"])
}

func TestCloudLogger_formatVariants(t *testing.T) {
	rec := &entryRecorder{}
	l, err := New(&Option{Runtime: configw.Runtime{}, Cloud: rec})
	require.NoError(t, err)

	l.Infof("retry %d of %d", 2, 5)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, "retry 2 of 5", rec.entries[0].Message)
}

func TestNew_modeSelection(t *testing.T) {
	rec := &entryRecorder{}

	dev, err := New(&Option{Runtime: devRuntime("debug"), Output: &bytes.Buffer{}, Cloud: rec})
	require.NoError(t, err)
	dev.Info("hello")
	assert.Empty(t, rec.entries, "development logger must not touch the cloud writer")

	prod, err := New(&Option{Runtime: configw.Runtime{Environment: "production"}, Cloud: rec})
	require.NoError(t, err)
	prod.Info("hello")
	assert.Len(t, rec.entries, 1)
}
