// Package seed loads authored questions from YAML into a question store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

//go:embed demo.yaml
var demoYAML []byte

// File is the on-disk seed format. Categories are plain names.
type File struct {
	Questions []Question `yaml:"questions"`
}

type Question struct {
	Kind        question.Kind `yaml:"kind"`
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`

	// categorize
	Categories []string `yaml:"categories"`
	Items      []Item   `yaml:"items"`

	// cloze
	Text   string  `yaml:"text"`
	Blanks []Blank `yaml:"blanks"`
}

type Item struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

type Blank struct {
	Name    string   `yaml:"name"`
	Hint    string   `yaml:"hint"`
	Answers []string `yaml:"answers"`
	Mode    string   `yaml:"mode"`
}

func Parse(raw []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("parse seed: %w", err)
	}
	return f, nil
}

func LoadFile(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Parse(raw)
}

// Demo is the built-in content: the living-things sort and a capitals cloze.
func Demo() File {
	f, err := Parse(demoYAML)
	if err != nil {
		panic(err)
	}
	return f
}

func (q Question) exercise() question.Exercise {
	e := question.Exercise{ID: q.ID, Kind: question.KindCategorize, Title: q.Title, Description: q.Description}
	for _, c := range q.Categories {
		e.Categories = append(e.Categories, question.Category{Name: c})
	}
	for _, it := range q.Items {
		e.Items = append(e.Items, question.Item{ID: it.ID, Name: it.Name, Category: it.Category})
	}
	return e
}

func (q Question) cloze() question.Cloze {
	c := question.Cloze{ID: q.ID, Kind: question.KindCloze, Title: q.Title, Description: q.Description, Text: q.Text}
	for _, b := range q.Blanks {
		c.Blanks = append(c.Blanks, question.Blank{Name: b.Name, Hint: b.Hint, Answers: b.Answers, Mode: b.Mode})
	}
	return c
}

// Apply upserts every question in f and returns how many were written. It
// stops at the first invalid question.
func Apply(ctx context.Context, store question.Store, f File, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	n := 0
	for i, q := range f.Questions {
		var err error
		switch q.Kind {
		case question.KindCategorize, "":
			e := q.exercise()
			if err = e.Normalize(); err == nil {
				err = store.PutExercise(ctx, e)
			}
			if err == nil {
				for _, it := range e.Items {
					if it.Category != "" && !e.HasCategory(it.Category) {
						log.Warn("seeded item references undeclared category",
							zap.String("question", e.ID), zap.String("item", it.Name), zap.String("category", it.Category))
					}
				}
			}
		case question.KindCloze:
			err = store.PutCloze(ctx, q.cloze())
		default:
			err = fmt.Errorf("%w: unknown kind %q", question.ErrInvalid, q.Kind)
		}
		if err != nil {
			return n, fmt.Errorf("question %d (%s): %w", i, q.ID, err)
		}
		log.Info("seeded question", zap.String("question", q.ID), zap.String("kind", string(q.Kind)))
		n++
	}
	return n, nil
}

// ApplyDemoIfEmpty seeds the demo content into a store with no questions.
func ApplyDemoIfEmpty(ctx context.Context, store question.Store, log *zap.Logger) (bool, error) {
	list, err := store.ListQuestions(ctx)
	if err != nil {
		return false, err
	}
	if len(list) > 0 {
		return false, nil
	}
	if _, err := Apply(ctx, store, Demo(), log); err != nil {
		return false, err
	}
	return true, nil
}
