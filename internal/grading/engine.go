// Package grading scores cloze submissions against their answer keys.
package grading

import (
	"context"
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

// Result is the outcome of grading a single blank.
type Result struct {
	Blank    string
	Points   float64 // 1 full, 0.5 close match, 0 otherwise
	Exact    bool
	Feedback []string
}

// Strategy grades one blank.
type Strategy interface {
	Grade(ctx context.Context, b question.Blank, response string) (Result, error)
}

// Grader routes every blank of a cloze to the Strategy for its match mode.
type Grader interface {
	Grade(ctx context.Context, c question.Cloze, answers map[string]string) (question.Feedback, []Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, c question.Cloze, answers map[string]string) (question.Feedback, []Result, error) {
	results := make([]Result, 0, len(c.Blanks))
	fb := question.Feedback{Total: len(c.Blanks)}
	near := 0
	for _, b := range c.Blanks {
		mode := b.Mode
		if mode == "" {
			mode = question.MatchFuzzy
		}
		s, ok := g.strategies[mode]
		if !ok {
			return question.Feedback{}, nil, fmt.Errorf("blank %q: no strategy for mode %q", b.Name, mode)
		}
		r, err := s.Grade(ctx, b, answers[b.Name])
		if err != nil {
			return question.Feedback{}, nil, fmt.Errorf("blank %q: %w", b.Name, err)
		}
		r.Blank = b.Name
		results = append(results, r)
		fb.Score += r.Points
		switch {
		case r.Exact:
			fb.Correct++
		case r.Points > 0:
			near++
		}
	}
	fb.Message = message(fb, near)
	return fb, results, nil
}

func message(fb question.Feedback, near int) string {
	switch {
	case fb.Total == 0:
		return "Nothing to grade."
	case fb.Correct == fb.Total:
		return fmt.Sprintf("All %d blanks correct!", fb.Total)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d of %d blanks correct", fb.Correct, fb.Total)
	if near > 0 {
		fmt.Fprintf(&sb, ", %d close", near)
	}
	fmt.Fprintf(&sb, " (score %.1f).", fb.Score)
	return sb.String()
}

// Engine options

type Option func(*config)

type config struct {
	MaxEditDistance int // for fuzzy blanks
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{MaxEditDistance: 1}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			question.MatchExact: exactStrategy{},
			question.MatchFuzzy: fuzzyStrategy{maxEdit: cfg.MaxEditDistance},
		},
	}
}

// --- Strategies ---

type exactStrategy struct{}

func (exactStrategy) Grade(_ context.Context, b question.Blank, response string) (Result, error) {
	resp := normalize(response)
	if resp == "" {
		return Result{Feedback: []string{"no answer"}}, nil
	}
	for _, k := range b.Answers {
		if normalize(k) == resp {
			return Result{Points: 1, Exact: true}, nil
		}
	}
	return Result{}, nil
}

type fuzzyStrategy struct{ maxEdit int }

func (s fuzzyStrategy) Grade(_ context.Context, b question.Blank, response string) (Result, error) {
	resp := normalize(response)
	if resp == "" {
		return Result{Feedback: []string{"no answer"}}, nil
	}
	best := 0
	for _, k := range b.Answers {
		nk := normalize(k)
		if nk == resp {
			return Result{Points: 1, Exact: true}, nil
		}
		if s.maxEdit > 0 && distance(nk, resp) <= s.maxEdit {
			best = 1
		}
	}
	if best == 1 {
		return Result{Points: 0.5, Feedback: []string{"close match (fuzzy)"}}, nil
	}
	return Result{}, nil
}
