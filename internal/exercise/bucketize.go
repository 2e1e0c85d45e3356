package exercise

import "github.com/mind-engage/mindengage-quiz/internal/question"

// Layout is the derived grouping of items by their confirmed category.
type Layout struct {
	// Categories keeps the declared order, deduplicated.
	Categories []string
	// Buckets has a key for every declared category, even empty ones.
	Buckets map[string][]question.Item
	// Unsorted holds items with no category yet.
	Unsorted []question.Item
	// Unknown holds items whose category is not declared. They are kept out of
	// every bucket and reported as a content-integrity problem.
	Unknown []question.Item
}

// Bucket returns the items in category name; nil for undeclared names.
func (l Layout) Bucket(name string) []question.Item {
	return l.Buckets[name]
}

// Pool is the set of items not shown in any bucket, in presentation order.
func (l Layout) Pool(order []question.Item) []question.Item {
	placed := make(map[string]bool, len(order))
	for _, items := range l.Buckets {
		for _, it := range items {
			placed[it.ID] = true
		}
	}
	out := make([]question.Item, 0, len(l.Unsorted)+len(l.Unknown))
	for _, it := range order {
		if !placed[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// Bucketize groups items by category. Intra-bucket order follows the order of
// items, so pass the presentation order. It never fails: empty and undeclared
// categories are partitioned out rather than rejected.
func Bucketize(items []question.Item, categories []question.Category) Layout {
	l := Layout{
		Categories: make([]string, 0, len(categories)),
		Buckets:    make(map[string][]question.Item, len(categories)),
		Unsorted:   []question.Item{},
		Unknown:    []question.Item{},
	}
	for _, c := range categories {
		if _, dup := l.Buckets[c.Name]; dup {
			continue
		}
		l.Categories = append(l.Categories, c.Name)
		l.Buckets[c.Name] = []question.Item{}
	}
	for _, it := range items {
		if it.Category == "" {
			l.Unsorted = append(l.Unsorted, it)
			continue
		}
		bucket, ok := l.Buckets[it.Category]
		if !ok {
			l.Unknown = append(l.Unknown, it)
			continue
		}
		l.Buckets[it.Category] = append(bucket, it)
	}
	return l
}
