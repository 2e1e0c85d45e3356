package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFileAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.log")
	log, err := New(Options{Level: "warn", Paths: []string{path}})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "dropped")
	require.Contains(t, string(raw), `"msg":"kept"`)
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	require.ErrorContains(t, err, "log level")
}
