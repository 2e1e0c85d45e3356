// Package quizhttp is the learner-side client for /api/question.
package quizhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

const questionPath = "/api/question"

type Config struct {
	BaseURL    string // e.g. http://localhost:8080
	QuestionID string // optional; server default when empty
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Client struct {
	http       *http.Client
	base       string
	questionID string
	log        *zap.Logger
}

func New(cfg Config) *Client {
	// a caller's client may be shared, so the timeout goes on a copy
	h := &http.Client{}
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		h = &c
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http:       h,
		base:       strings.TrimSuffix(cfg.BaseURL, "/"),
		questionID: cfg.QuestionID,
		log:        log,
	}
}

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// RejectionError means the server answered with a non-2xx status, or with a
// body that is not the expected document.
type RejectionError struct {
	Op      string
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Message)
}

func (c *Client) url() string {
	u := c.base + questionPath
	if c.questionID != "" {
		u += "?id=" + url.QueryEscape(c.questionID)
	}
	return u
}

// FetchExercise is GET /api/question for a categorization exercise.
func (c *Client) FetchExercise(ctx context.Context) (question.Exercise, error) {
	var ex question.Exercise
	if err := c.do(ctx, "fetch exercise", http.MethodGet, nil, &ex); err != nil {
		return question.Exercise{}, err
	}
	if ex.Kind != "" && ex.Kind != question.KindCategorize {
		return question.Exercise{}, &RejectionError{Op: "fetch exercise", Message: "question is a " + string(ex.Kind) + " exercise"}
	}
	return ex, nil
}

// ApplyMove is PUT /api/question; the response is the full updated exercise.
func (c *Client) ApplyMove(ctx context.Context, mv question.Move) (question.Exercise, error) {
	var ex question.Exercise
	if err := c.do(ctx, "apply move", http.MethodPut, mv, &ex); err != nil {
		return question.Exercise{}, err
	}
	return ex, nil
}

// FetchCloze is GET /api/question for a fill-in-the-blank exercise.
func (c *Client) FetchCloze(ctx context.Context) (question.Cloze, error) {
	var cz question.Cloze
	if err := c.do(ctx, "fetch cloze", http.MethodGet, nil, &cz); err != nil {
		return question.Cloze{}, err
	}
	if cz.Kind != "" && cz.Kind != question.KindCloze {
		return question.Cloze{}, &RejectionError{Op: "fetch cloze", Message: "question is a " + string(cz.Kind) + " exercise"}
	}
	return cz, nil
}

// SubmitAnswers is POST /api/question with the blank-name -> answer mapping.
func (c *Client) SubmitAnswers(ctx context.Context, answers map[string]string) (question.Feedback, error) {
	var fb question.Feedback
	if err := c.do(ctx, "submit answers", http.MethodPost, answers, &fb); err != nil {
		return question.Feedback{}, err
	}
	return fb, nil
}

func (c *Client) do(ctx context.Context, op, method string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(), body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("op", op), zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}
	defer res.Body.Close()
	c.log.Debug("request done",
		zap.String("op", op),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", time.Since(start)))

	if res.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		text := strings.TrimSpace(string(msg))
		if text == "" {
			text = http.StatusText(res.StatusCode)
		}
		return &RejectionError{Op: op, Status: res.StatusCode, Message: text}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &RejectionError{Op: op, Status: res.StatusCode, Message: "bad response body: " + err.Error()}
	}
	return nil
}
