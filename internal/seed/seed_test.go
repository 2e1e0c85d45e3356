package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

func TestDemo_AppliesToEmptyStoreOnly(t *testing.T) {
	ctx := context.Background()
	store := question.NewInMemoryStore()

	applied, err := ApplyDemoIfEmpty(ctx, store, nil)
	require.NoError(t, err)
	require.True(t, applied)

	e, err := store.GetExercise(ctx, "demo-living-things")
	require.NoError(t, err)
	require.Equal(t, []question.Category{{Name: "Animal"}, {Name: "Plant"}}, e.Categories)
	require.Equal(t, question.Item{ID: "1", Name: "Cat", Category: "Animal"}, e.Items[0])
	require.Equal(t, "", e.Items[2].Category)

	c, err := store.GetCloze(ctx, "demo-capitals")
	require.NoError(t, err)
	require.Len(t, c.Blanks, 2)
	require.Equal(t, question.MatchFuzzy, c.Blanks[0].Mode)
	require.Equal(t, question.MatchExact, c.Blanks[1].Mode)

	applied, err = ApplyDemoIfEmpty(ctx, store, nil)
	require.NoError(t, err)
	require.False(t, applied)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
questions:
  - id: shapes
    categories: [Round, Square]
    items:
      - {name: Ball, category: Round}
      - {name: Box}
`), 0o644))
	f, err := LoadFile(path)
	require.NoError(t, err)

	store := question.NewInMemoryStore()
	n, err := Apply(context.Background(), store, f, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	e, err := store.GetExercise(context.Background(), "shapes")
	require.NoError(t, err)
	require.Len(t, e.Items, 2)
	require.NotEmpty(t, e.Items[1].ID, "missing ids are generated")
}

func TestApply_StopsAtInvalid(t *testing.T) {
	f := File{Questions: []Question{
		{ID: "ok", Categories: []string{"A"}},
		{ID: "bad", Kind: "essay"},
		{ID: "never"},
	}}
	store := question.NewInMemoryStore()
	n, err := Apply(context.Background(), store, f, nil)
	require.ErrorIs(t, err, question.ErrInvalid)
	require.Equal(t, 1, n)
	_, err = store.KindOf(context.Background(), "never")
	require.ErrorIs(t, err, question.ErrNotFound)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("questions: [\n"))
	require.Error(t, err)
}

func TestWatcher_ReappliesOnSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("questions: []\n"), 0o644))

	store := question.NewInMemoryStore()
	w, err := NewWatcher(path, store, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 20*time.Millisecond) }()

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`
questions:
  - id: watched
    categories: [A, B]
    items:
      - {id: "1", name: One, category: A}
`), 0o644))

	require.Eventually(t, func() bool {
		_, err := store.GetExercise(context.Background(), "watched")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
