// Package events records confirmed moves and graded submissions.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

const (
	TypeItemMoved        = "ItemMoved"
	TypeAnswersSubmitted = "AnswersSubmitted"
)

type Event struct {
	Seq       int64           `json:"seq,omitempty"`
	SiteID    string          `json:"site_id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"` // question id
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

func newEvent(typ, key string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: typ, Key: key, Data: raw, CreatedAt: time.Now().Unix()}, nil
}

func ItemMoved(questionID string, mv question.Move) (Event, error) {
	return newEvent(TypeItemMoved, questionID, mv)
}

func AnswersSubmitted(sub question.Submission) (Event, error) {
	return newEvent(TypeAnswersSubmitted, sub.QuestionID, struct {
		SubmissionID string            `json:"submission_id"`
		Answers      map[string]string `json:"answers"`
		Feedback     question.Feedback `json:"feedback"`
	}{sub.ID, sub.Answers, sub.Feedback})
}

// Fanout publishes to every sink, stamping SiteID when the event has none.
type Fanout struct {
	SiteID string
	Sinks  []Publisher
}

func (f Fanout) Publish(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = f.SiteID
	}
	var errs []error
	for _, s := range f.Sinks {
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops everything.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
