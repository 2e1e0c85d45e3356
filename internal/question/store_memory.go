package question

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu          sync.RWMutex
	exercises   map[string]Exercise
	clozes      map[string]Cloze
	created     map[string]int64
	submissions []Submission
}

// NewInMemoryStore is used for tests and for `db.driver=memory`.
func NewInMemoryStore() Store {
	return &memoryStore{
		exercises: map[string]Exercise{},
		clozes:    map[string]Cloze{},
		created:   map[string]int64{},
	}
}

func (m *memoryStore) PutExercise(_ context.Context, e Exercise) error {
	e = e.Clone()
	if err := e.Normalize(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clozes[e.ID]; ok {
		return fmt.Errorf("%w: %s is a cloze question", ErrWrongKind, e.ID)
	}
	m.exercises[e.ID] = e
	if _, ok := m.created[e.ID]; !ok {
		m.created[e.ID] = time.Now().Unix()
	}
	return nil
}

func (m *memoryStore) GetExercise(_ context.Context, id string) (Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exercises[id]
	if !ok {
		if _, isCloze := m.clozes[id]; isCloze {
			return Exercise{}, ErrWrongKind
		}
		return Exercise{}, ErrNotFound
	}
	return e.Clone(), nil
}

func (m *memoryStore) MoveItem(_ context.Context, questionID string, mv Move) (Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exercises[questionID]
	if !ok {
		if _, isCloze := m.clozes[questionID]; isCloze {
			return Exercise{}, ErrWrongKind
		}
		return Exercise{}, ErrNotFound
	}
	if !e.HasCategory(mv.CategoryName) {
		return Exercise{}, fmt.Errorf("%w: %q", ErrUnknownCategory, mv.CategoryName)
	}
	// copy-on-write: a previously returned Exercise must never change under its holder
	next := e.Clone()
	found := false
	for i := range next.Items {
		if next.Items[i].ID == mv.ItemID {
			next.Items[i].Category = mv.CategoryName
			found = true
			break
		}
	}
	if !found {
		return Exercise{}, fmt.Errorf("%w: %q", ErrItemNotFound, mv.ItemID)
	}
	m.exercises[questionID] = next
	return next.Clone(), nil
}

func (m *memoryStore) PutCloze(_ context.Context, c Cloze) error {
	c.Blanks = append([]Blank(nil), c.Blanks...)
	if err := c.Normalize(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exercises[c.ID]; ok {
		return fmt.Errorf("%w: %s is a categorize question", ErrWrongKind, c.ID)
	}
	m.clozes[c.ID] = c
	if _, ok := m.created[c.ID]; !ok {
		m.created[c.ID] = time.Now().Unix()
	}
	return nil
}

func (m *memoryStore) GetCloze(_ context.Context, id string) (Cloze, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clozes[id]
	if !ok {
		if _, isEx := m.exercises[id]; isEx {
			return Cloze{}, ErrWrongKind
		}
		return Cloze{}, ErrNotFound
	}
	c.Blanks = append([]Blank(nil), c.Blanks...)
	return c, nil
}

func (m *memoryStore) KindOf(_ context.Context, id string) (Kind, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.exercises[id]; ok {
		return KindCategorize, nil
	}
	if _, ok := m.clozes[id]; ok {
		return KindCloze, nil
	}
	return "", ErrNotFound
}

func (m *memoryStore) ListQuestions(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.exercises)+len(m.clozes))
	for id, e := range m.exercises {
		out = append(out, Summary{ID: id, Kind: KindCategorize, Title: e.Title, CreatedAt: m.created[id]})
	}
	for id, c := range m.clozes {
		out = append(out, Summary{ID: id, Kind: KindCloze, Title: c.Title, CreatedAt: m.created[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) SaveSubmission(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.CreatedAt == 0 {
		s.CreatedAt = time.Now().Unix()
	}
	m.submissions = append(m.submissions, s)
	return nil
}

func (m *memoryStore) ListSubmissions(_ context.Context, opts SubmissionListOpts) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Submission, 0, len(m.submissions))
	// newest first
	for i := len(m.submissions) - 1; i >= 0; i-- {
		s := m.submissions[i]
		if opts.QuestionID != "" && s.QuestionID != opts.QuestionID {
			continue
		}
		out = append(out, s)
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []Submission{}, nil
		}
		out = out[opts.Offset:]
	}
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
