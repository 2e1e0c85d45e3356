package quizhttp_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/exercise"
	"github.com/mind-engage/mindengage-quiz/internal/question"
	"github.com/mind-engage/mindengage-quiz/internal/quizhttp"
)

var _ exercise.Syncer = (*quizhttp.Client)(nil)

func catOak() question.Exercise {
	return question.Exercise{
		ID:   "q1",
		Kind: question.KindCategorize,
		Items: []question.Item{
			{ID: "1", Name: "Cat", Category: "Animal"},
			{ID: "2", Name: "Oak", Category: "Plant"},
		},
		Categories: []question.Category{{Name: "Animal"}, {Name: "Plant"}},
	}
}

func newClient(t *testing.T, h http.HandlerFunc) *quizhttp.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return quizhttp.New(quizhttp.Config{BaseURL: srv.URL + "/", QuestionID: "q1", Timeout: 2 * time.Second})
}

func TestFetchExercise(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/question", r.URL.Path)
		require.Equal(t, "q1", r.URL.Query().Get("id"))
		_ = json.NewEncoder(w).Encode(catOak())
	})
	ex, err := c.FetchExercise(context.Background())
	require.NoError(t, err)
	require.Equal(t, catOak(), ex)
}

func TestApplyMove_SendsIntentAndReturnsServerState(t *testing.T) {
	var body map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		ex := catOak()
		ex.Items[0].Category = "Plant"
		_ = json.NewEncoder(w).Encode(ex)
	})

	ex, err := c.ApplyMove(context.Background(), question.Move{ItemID: "1", CategoryName: "Plant"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"itemId": "1", "categoryName": "Plant"}, body)
	require.Equal(t, "Plant", ex.Items[0].Category)
}

func TestApplyMove_RejectionCarriesStatusAndText(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `unknown category: "Mineral"`, http.StatusUnprocessableEntity)
	})
	_, err := c.ApplyMove(context.Background(), question.Move{ItemID: "1", CategoryName: "Mineral"})
	var rej *quizhttp.RejectionError
	require.True(t, errors.As(err, &rej))
	require.Equal(t, http.StatusUnprocessableEntity, rej.Status)
	require.Contains(t, rej.Message, "Mineral")
}

func TestFetchExercise_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := quizhttp.New(quizhttp.Config{BaseURL: base, Timeout: time.Second})
	_, err := c.FetchExercise(context.Background())
	var ne *quizhttp.NetworkError
	require.ErrorAs(t, err, &ne)
	require.Equal(t, "fetch exercise", ne.Op)
}

func TestNew_LeavesCallerClientAlone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	shared := &http.Client{}
	c := quizhttp.New(quizhttp.Config{BaseURL: srv.URL, HTTPClient: shared, Timeout: 50 * time.Millisecond})
	require.Zero(t, shared.Timeout)

	// the timeout still applies to requests made through c
	_, err := c.FetchExercise(context.Background())
	var ne *quizhttp.NetworkError
	require.ErrorAs(t, err, &ne)
}

func TestFetchExercise_WrongKind(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(question.Cloze{ID: "q1", Kind: question.KindCloze})
	})
	_, err := c.FetchExercise(context.Background())
	var rej *quizhttp.RejectionError
	require.ErrorAs(t, err, &rej)
	require.Contains(t, rej.Message, "cloze")
}

func TestFetchExercise_BadBody(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	_, err := c.FetchExercise(context.Background())
	var rej *quizhttp.RejectionError
	require.ErrorAs(t, err, &rej)
}

func TestSubmitAnswers(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var answers map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&answers))
		require.Equal(t, map[string]string{"capital": "Paris"}, answers)
		_ = json.NewEncoder(w).Encode(question.Feedback{Message: "1 of 1 blanks correct", Correct: 1, Total: 1, Score: 1})
	})
	fb, err := c.SubmitAnswers(context.Background(), map[string]string{"capital": "Paris"})
	require.NoError(t, err)
	require.Equal(t, "1 of 1 blanks correct", fb.Message)
}

func TestSessionOverHTTP_RejectedMoveKeepsState(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(catOak())
		default:
			http.Error(w, "item not found", http.StatusNotFound)
		}
	})
	s := exercise.NewSession(c)
	require.NoError(t, s.Load(context.Background()))
	err := s.Move(context.Background(), question.Move{ItemID: "9", CategoryName: "Plant"})
	var rej *quizhttp.RejectionError
	require.ErrorAs(t, err, &rej)
	require.Equal(t, catOak(), s.Snapshot().Exercise)
	require.Contains(t, s.Snapshot().Message, "item not found")
}
