package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/exercise"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/question"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

// Deps is what the question endpoints need.
type Deps struct {
	Store           question.Store
	Grader          grading.Grader
	Blobs           storage.BlobStore // nil disables archiving
	Events          events.Publisher
	EventLog        *events.SQLLog // nil when the store is not SQL backed
	DefaultQuestion string
	Log             *zap.Logger
}

func (d Deps) questionID(r *http.Request) string {
	if id := r.URL.Query().Get("id"); id != "" {
		return id
	}
	return d.DefaultQuestion
}

func (d Deps) publish(r *http.Request, e events.Event, err error) {
	if err == nil {
		err = d.Events.Publish(r.Context(), e)
	}
	if err != nil {
		d.Log.Warn("publish event failed", zap.String("type", e.Type), zap.String("key", e.Key), zap.Error(err))
	}
}

// storeError maps question store errors onto status codes.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, question.ErrNotFound), errors.Is(err, question.ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, question.ErrUnknownCategory):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, question.ErrWrongKind):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, question.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/question?id=
func GetQuestionHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := d.questionID(r)
		kind, err := d.Store.KindOf(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		switch kind {
		case question.KindCloze:
			c, err := d.Store.GetCloze(r.Context(), id)
			if err != nil {
				storeError(w, err)
				return
			}
			writeJSON(w, c.LearnerView())
		default:
			e, err := d.Store.GetExercise(r.Context(), id)
			if err != nil {
				storeError(w, err)
				return
			}
			if unknown := exercise.Bucketize(e.Items, e.Categories).Unknown; len(unknown) > 0 {
				d.Log.Warn("items reference undeclared categories",
					zap.String("question", id), zap.Int("items", len(unknown)))
			}
			writeJSON(w, e)
		}
	}
}

// PUT /api/question?id=  {"itemId":"...","categoryName":"..."}
func MoveHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var mv question.Move
		if err := json.NewDecoder(r.Body).Decode(&mv); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if mv.ItemID == "" || mv.CategoryName == "" {
			http.Error(w, "itemId and categoryName required", http.StatusBadRequest)
			return
		}
		id := d.questionID(r)
		e, err := d.Store.MoveItem(r.Context(), id, mv)
		if err != nil {
			if !errors.Is(err, question.ErrNotFound) {
				d.Log.Info("move rejected", zap.String("question", id),
					zap.String("item", mv.ItemID), zap.String("category", mv.CategoryName), zap.Error(err))
			}
			storeError(w, err)
			return
		}
		ev, err := events.ItemMoved(id, mv)
		d.publish(r, ev, err)
		writeJSON(w, e)
	}
}

// POST /api/question?id=  {"<blank>":"<answer>",...}
func SubmitHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var answers map[string]string
		if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		id := d.questionID(r)
		c, err := d.Store.GetCloze(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		fb, _, err := d.Grader.Grade(r.Context(), c, answers)
		if err != nil {
			d.Log.Error("grading failed", zap.String("question", id), zap.Error(err))
			http.Error(w, "grading failed", http.StatusInternalServerError)
			return
		}

		sub := question.Submission{
			ID:         uuid.NewString(),
			QuestionID: id,
			Answers:    answers,
			Feedback:   fb,
			CreatedAt:  time.Now().Unix(),
		}
		if d.Blobs != nil {
			raw, _ := json.Marshal(sub)
			key, err := d.Blobs.Put(r.Context(), "submissions/"+id+"/"+sub.ID+".json", bytes.NewReader(raw))
			if err != nil {
				d.Log.Warn("archive submission failed", zap.String("submission", sub.ID), zap.Error(err))
			} else {
				sub.BlobKey = key
			}
		}
		if err := d.Store.SaveSubmission(r.Context(), sub); err != nil {
			d.Log.Error("save submission failed", zap.String("question", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		ev, err := events.AnswersSubmitted(sub)
		d.publish(r, ev, err)
		writeJSON(w, fb)
	}
}
