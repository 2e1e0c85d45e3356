package exercise

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

func catOak() question.Exercise {
	return question.Exercise{
		ID:    "q1",
		Kind:  question.KindCategorize,
		Title: "Living things",
		Items: []question.Item{
			{ID: "1", Name: "Cat", Category: "Animal"},
			{ID: "2", Name: "Oak", Category: "Plant"},
		},
		Categories: []question.Category{{Name: "Animal"}, {Name: "Plant"}},
	}
}

func names(items []question.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestBucketize_CatOakRegardlessOfOrder(t *testing.T) {
	ex := catOak()
	rng := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 20; i++ {
		l := Bucketize(Shuffle(ex.Items, rng), ex.Categories)
		require.Equal(t, []string{"Cat"}, names(l.Bucket("Animal")))
		require.Equal(t, []string{"Oak"}, names(l.Bucket("Plant")))
		require.Empty(t, l.Unsorted)
		require.Empty(t, l.Unknown)
	}
}

func TestBucketize_EveryCategoryIsAKey(t *testing.T) {
	cats := []question.Category{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	l := Bucketize(nil, cats)
	require.Equal(t, []string{"A", "B", "C"}, l.Categories)
	for _, c := range cats {
		b, ok := l.Buckets[c.Name]
		require.True(t, ok, "missing bucket %q", c.Name)
		require.NotNil(t, b)
		require.Empty(t, b)
	}
}

func TestBucketize_Coverage(t *testing.T) {
	items := []question.Item{
		{ID: "1", Name: "Cat", Category: "Animal"},
		{ID: "2", Name: "Oak", Category: "Plant"},
		{ID: "3", Name: "Dog", Category: "Animal"},
		{ID: "4", Name: "Rock", Category: ""},
		{ID: "5", Name: "Fern", Category: "Fungus"},
	}
	cats := []question.Category{{Name: "Animal"}, {Name: "Plant"}, {Name: "Mineral"}}

	l := Bucketize(items, cats)

	seen := map[string]int{}
	for _, b := range l.Buckets {
		for _, it := range b {
			seen[it.ID]++
		}
	}
	for _, it := range l.Unsorted {
		seen[it.ID]++
	}
	for _, it := range l.Unknown {
		seen[it.ID]++
	}
	require.Len(t, seen, len(items))
	for id, n := range seen {
		require.Equalf(t, 1, n, "item %s placed %d times", id, n)
	}
	require.Equal(t, []string{"Rock"}, names(l.Unsorted))
	require.Equal(t, []string{"Fern"}, names(l.Unknown))
	require.Empty(t, l.Bucket("Mineral"))
	require.Nil(t, l.Bucket("Fungus"))
}

func TestBucketize_IntraBucketOrderFollowsInput(t *testing.T) {
	items := []question.Item{
		{ID: "3", Name: "Dog", Category: "Animal"},
		{ID: "1", Name: "Cat", Category: "Animal"},
		{ID: "9", Name: "Eel", Category: "Animal"},
	}
	l := Bucketize(items, []question.Category{{Name: "Animal"}})
	require.Equal(t, []string{"Dog", "Cat", "Eel"}, names(l.Bucket("Animal")))
}

func TestBucketize_DuplicateCategoryCollapses(t *testing.T) {
	l := Bucketize(
		[]question.Item{{ID: "1", Name: "Cat", Category: "Animal"}},
		[]question.Category{{Name: "Animal"}, {Name: "Animal"}},
	)
	require.Equal(t, []string{"Animal"}, l.Categories)
	require.Len(t, l.Bucket("Animal"), 1)
}

func TestLayout_PoolKeepsPresentationOrder(t *testing.T) {
	order := []question.Item{
		{ID: "4", Name: "Rock"},
		{ID: "1", Name: "Cat", Category: "Animal"},
		{ID: "5", Name: "Fern", Category: "Fungus"},
		{ID: "6", Name: "Sand"},
	}
	l := Bucketize(order, []question.Category{{Name: "Animal"}})
	require.Equal(t, []string{"Rock", "Fern", "Sand"}, names(l.Pool(order)))
}
