package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/exercise"
	"github.com/mind-engage/mindengage-quiz/internal/question"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

// POST /api/admin/questions  (categorize or cloze document; "kind" picks which)
func UpsertQuestionHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		var head struct {
			Kind question.Kind `json:"kind"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		var id string
		switch head.Kind {
		case question.KindCategorize, "":
			var e question.Exercise
			if err := json.Unmarshal(raw, &e); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			if err := e.Normalize(); err != nil {
				storeError(w, err)
				return
			}
			if err := d.Store.PutExercise(r.Context(), e); err != nil {
				storeError(w, err)
				return
			}
			id = e.ID
		case question.KindCloze:
			var c question.Cloze
			if err := json.Unmarshal(raw, &c); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			if err := c.Normalize(); err != nil {
				storeError(w, err)
				return
			}
			if err := d.Store.PutCloze(r.Context(), c); err != nil {
				storeError(w, err)
				return
			}
			id = c.ID
		default:
			http.Error(w, "unknown kind: "+string(head.Kind), http.StatusBadRequest)
			return
		}
		d.Log.Info("question saved", zap.String("question", id), zap.String("kind", string(head.Kind)))
		writeJSON(w, map[string]string{"status": "ok", "id": id})
	}
}

// GET /api/admin/questions
func ListQuestionsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Store.ListQuestions(r.Context())
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, list)
	}
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("bad " + name)
	}
	return n, nil
}

// GET /api/admin/submissions?question_id=&limit=&offset=
func ListSubmissionsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := intParam(r, "limit")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		offset, err := intParam(r, "offset")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		subs, err := d.Store.ListSubmissions(r.Context(), question.SubmissionListOpts{
			QuestionID: r.URL.Query().Get("question_id"),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, subs)
	}
}

// GET /api/admin/archive/*  -> the archived blob at whatever follows /archive/
func ArchiveHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Blobs == nil {
			http.Error(w, "archive disabled", http.StatusNotFound)
			return
		}
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := d.Blobs.Get(r.Context(), key)
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			d.Log.Error("archive read failed", zap.String("key", key), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.Copy(w, rc)
	}
}

type integrityReport struct {
	QuestionID string          `json:"question_id"`
	OK         bool            `json:"ok"`
	Unknown    []question.Item `json:"unknown"`  // category names nobody declared
	Unsorted   []question.Item `json:"unsorted"` // no category yet
}

// GET /api/admin/questions/{id}/integrity
func IntegrityHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		e, err := d.Store.GetExercise(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		l := exercise.Bucketize(e.Items, e.Categories)
		rep := integrityReport{
			QuestionID: id,
			OK:         len(l.Unknown) == 0,
			Unknown:    append([]question.Item{}, l.Unknown...),
			Unsorted:   append([]question.Item{}, l.Unsorted...),
		}
		writeJSON(w, rep)
	}
}

// GET /api/admin/events?after=&limit=
func EventsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.EventLog == nil {
			http.Error(w, "event log disabled", http.StatusNotFound)
			return
		}
		after, err := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		if err != nil && r.URL.Query().Get("after") != "" {
			http.Error(w, "bad after", http.StatusBadRequest)
			return
		}
		limit, err := intParam(r, "limit")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		list, err := d.EventLog.After(r.Context(), after, limit)
		if err != nil {
			d.Log.Error("list events failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []events.Event{}
		}
		writeJSON(w, list)
	}
}
