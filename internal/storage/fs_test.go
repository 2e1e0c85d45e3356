package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFSStore_RoundTrip(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(base)
	require.NoError(t, err)
	ctx := context.Background()

	key, err := s.Put(ctx, "submissions/q1/abc.json", strings.NewReader(`{"ok":true}`))
	require.NoError(t, err)
	require.Equal(t, "submissions/q1/abc.json", key)

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(raw))
}

func TestFSStore_KeysStayUnderBase(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(filepath.Join(base, "blobs"))
	require.NoError(t, err)

	key, err := s.Put(context.Background(), "../../escape.json", strings.NewReader("x"))
	require.NoError(t, err)
	require.Equal(t, "escape.json", key)
	_, err = os.Stat(filepath.Join(base, "blobs", "escape.json"))
	require.NoError(t, err)
}

func TestFSStore_Missing(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	_, err = s.Get(context.Background(), "nope.json")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Put(context.Background(), "", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrEmptyKey)
	_, err = s.Put(context.Background(), "/../", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrEmptyKey)
}

func TestFSStore_OverwriteLeavesNoTempFiles(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(base)
	require.NoError(t, err)
	ctx := context.Background()

	for _, body := range []string{"first", "second"} {
		_, err := s.Put(ctx, "a/b.json", strings.NewReader(body))
		require.NoError(t, err)
	}
	entries, err := os.ReadDir(filepath.Join(base, "a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, err := os.ReadFile(filepath.Join(base, "a", "b.json"))
	require.NoError(t, err)
	require.Equal(t, "second", string(raw))
}

func TestFSStore_CancelledContext(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Put(ctx, "x.json", strings.NewReader("x"))
	require.ErrorIs(t, err, context.Canceled)
}
