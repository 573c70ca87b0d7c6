package logger

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// capture sends the global logger to a buffer at level until the test ends
func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel(LevelWarn)
	})
	return &buf
}

func TestInit(t *testing.T) {
	t.Cleanup(func() { Init(false) })

	Init(true)
	assert.Equal(t, LevelDebug, GetLevel())

	Init(false)
	assert.Equal(t, LevelWarn, GetLevel())
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestLevelFiltering(t *testing.T) {
	logFuncs := []struct {
		level Level
		fn    func(string, ...interface{})
	}{
		{LevelDebug, Debug},
		{LevelInfo, Info},
		{LevelWarn, Warn},
		{LevelError, Error},
	}

	for _, min := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		for _, lf := range logFuncs {
			t.Run(lf.level.String()+" at "+min.String(), func(t *testing.T) {
				buf := capture(t, min)
				lf.fn("message")
				assert.Equal(t, lf.level >= min, buf.Len() > 0)
			})
		}
	}
}

func TestLogFormatting(t *testing.T) {
	buf := capture(t, LevelDebug)

	Debug("loading %s from %d sources", "settings", 2)

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, " [DEBUG] ")
	assert.True(t, strings.HasSuffix(line, "loading settings from 2 sources"), line)
}

func TestLogFields(t *testing.T) {
	buf := capture(t, LevelDebug)

	InfoFields("step finished", map[string]interface{}{
		"step":  "Nginx installation",
		"index": 3,
		"alpha": true,
	})

	out := buf.String()
	assert.Contains(t, out, "[INFO] step finished")
	assert.Contains(t, out, `"step": "Nginx installation"`)
	assert.Contains(t, out, `"index": 3`)
	// keys are sorted
	assert.Less(t, strings.Index(out, `"alpha"`), strings.Index(out, `"index"`))
	assert.Less(t, strings.Index(out, `"index"`), strings.Index(out, `"step"`))
}

func TestLogFields_Empty(t *testing.T) {
	buf := capture(t, LevelDebug)

	DebugFields("no fields", nil)

	assert.Contains(t, buf.String(), "no fields")
	assert.NotContains(t, buf.String(), "{")
}

func TestLogFields_Levels(t *testing.T) {
	buf := capture(t, LevelWarn)

	DebugFields("hidden", map[string]interface{}{"n": 0})
	InfoFields("hidden", map[string]interface{}{"n": 1})
	WarnFields("shown", map[string]interface{}{"n": 2})
	ErrorFields("shown", map[string]interface{}{"n": 3})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `[WARN] shown {"n": 2}`)
	assert.Contains(t, out, `[ERROR] shown {"n": 3}`)
}

func TestLogError(t *testing.T) {
	buf := capture(t, LevelError)

	LogError(nil, "should not log")
	assert.Zero(t, buf.Len())

	LogError(errors.New("connection refused"), "salt download failed")
	assert.Contains(t, buf.String(), "[ERROR] salt download failed: connection refused")
}

func TestConcurrentLogging(t *testing.T) {
	buf := capture(t, LevelDebug)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Debug("goroutine %d", n)
			DebugFields("fields", map[string]interface{}{"n": n})
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 100)
	for _, line := range lines {
		assert.Contains(t, line, "[DEBUG]")
	}
}

func TestL_ReturnsConfiguredLogger(t *testing.T) {
	buf := capture(t, LevelDebug)

	L().Debug("typed", zap.String("step", "System update"))

	assert.Contains(t, buf.String(), `typed {"step": "System update"}`)
}
