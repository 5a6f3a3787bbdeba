package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("world", &buf, INFO)

	l.Debug("скрыто")
	l.Info("чанк %d загружен", 7)
	l.Error("ошибка")

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[INFO] [world] чанк 7 загружен")
	assert.Contains(t, out, "[ERROR] [world] ошибка")

	buf.Reset()
	l.SetLevels(TRACE, ERROR)
	l.Trace("трасса")
	assert.Contains(t, buf.String(), "[TRACE] [world] трасса")
	assert.Equal(t, "world", l.Component())
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"trace": TRACE, "DEBUG": DEBUG, "": INFO, " warning ": WARN, "Error": ERROR,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestFileLogger(t *testing.T) {
	dir := t.TempDir()
	SetLogDir(dir)
	defer SetLogDir("")

	l, err := NewLogger("storage")
	require.NoError(t, err)
	l.SetLevels(ERROR, DEBUG)
	l.Debug("только в файл")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, "storage_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [storage] только в файл")
}

func TestManagerCachesLoggers(t *testing.T) {
	lm := GetLoggerManager()
	a := lm.MustGetLogger("test-b")
	b := lm.MustGetLogger("test-b")
	assert.Same(t, a, b)
	lm.MustGetLogger("test-a")

	var names []string
	for _, c := range lm.ListComponents() {
		if strings.HasPrefix(c, "test-") {
			names = append(names, c)
		}
	}
	assert.Equal(t, []string{"test-a", "test-b"}, names)

	require.NoError(t, lm.SetLogLevel("test-a", DEBUG, ERROR))
	assert.Error(t, lm.SetLogLevel("missing-component", DEBUG, ERROR))
}
