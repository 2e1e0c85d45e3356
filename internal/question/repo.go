package question

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("question not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrUnknownCategory = errors.New("unknown category")
	ErrWrongKind       = errors.New("question has a different kind")
	ErrInvalid         = errors.New("invalid question")
)

type SubmissionListOpts struct {
	QuestionID string
	Limit      int
	Offset     int
}

// Store is the authoritative holder of exercise state. MoveItem is applied in
// arrival order and always returns the full updated exercise.
type Store interface {
	PutExercise(ctx context.Context, e Exercise) error
	GetExercise(ctx context.Context, id string) (Exercise, error)
	MoveItem(ctx context.Context, questionID string, mv Move) (Exercise, error)

	PutCloze(ctx context.Context, c Cloze) error
	GetCloze(ctx context.Context, id string) (Cloze, error) // full, answer keys included
	KindOf(ctx context.Context, id string) (Kind, error)
	ListQuestions(ctx context.Context) ([]Summary, error)

	SaveSubmission(ctx context.Context, s Submission) error
	ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error)
}
