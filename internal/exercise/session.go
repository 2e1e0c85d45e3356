package exercise

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

// Syncer talks to the authoritative store.
type Syncer interface {
	FetchExercise(ctx context.Context) (question.Exercise, error)
	ApplyMove(ctx context.Context, mv question.Move) (question.Exercise, error)
}

type Phase int

const (
	Loading Phase = iota
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type ErrorKind int

const (
	NoError ErrorKind = iota
	FetchFailure
	MoveRejected
)

func (k ErrorKind) String() string {
	switch k {
	case NoError:
		return "none"
	case FetchFailure:
		return "fetch_failure"
	case MoveRejected:
		return "move_rejected"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyLoaded = errors.New("exercise already loaded for this session")
	ErrNotReady      = errors.New("exercise is not loaded")
)

// Error is what Load and Move return when the store could not be reached or
// refused the request.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Snapshot is a read-only view of the session. Order and Layout are derived
// from Exercise and are rebuilt from scratch whenever a new Exercise arrives.
type Snapshot struct {
	Phase    Phase
	Exercise question.Exercise
	Order    []question.Item
	Layout   Layout

	// Failure is set together with Phase == Failed.
	Failure ErrorKind
	// LastError is the kind of the most recent failed call, cleared by the
	// next successful one.
	LastError ErrorKind
	// Message is the user-visible error text, "" when there is none.
	Message string

	Pending int // moves sent but not answered yet
	Version int // number of exercises installed so far
}

// Session owns the single Exercise value. Only Load and Move replace it, and
// only with a document returned by the store.
//
// Moves are not serialized: when several are in flight, whichever response
// arrives last becomes the local state, even if it was sent first.
type Session struct {
	syncer Syncer
	rng    *rand.Rand
	log    *zap.Logger

	mu          sync.Mutex
	loadStarted bool
	snap        Snapshot
}

type Option func(*Session)

// WithRand makes the presentation shuffle deterministic.
func WithRand(r *rand.Rand) Option { return func(s *Session) { s.rng = r } }

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func NewSession(syncer Syncer, opts ...Option) *Session {
	s := &Session{syncer: syncer, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load fetches the exercise. It may be called once per session; there is no
// automatic retry.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loadStarted {
		s.mu.Unlock()
		return ErrAlreadyLoaded
	}
	s.loadStarted = true
	s.mu.Unlock()

	ex, err := s.syncer.FetchExercise(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.snap.Phase = Failed
		s.snap.Failure = FetchFailure
		s.snap.LastError = FetchFailure
		s.snap.Message = "cannot load exercise: " + err.Error()
		s.log.Warn("exercise fetch failed", zap.Error(err))
		return &Error{Kind: FetchFailure, Err: err}
	}
	s.install(ex)
	s.log.Info("exercise loaded",
		zap.String("question_id", ex.ID),
		zap.Int("items", len(ex.Items)),
		zap.Int("categories", len(ex.Categories)))
	return nil
}

// Move sends a move intent. On success the local exercise is replaced by the
// store's response; on failure it is left exactly as it was and the error is
// recorded as the user-visible message.
func (s *Session) Move(ctx context.Context, mv question.Move) error {
	s.mu.Lock()
	if s.snap.Phase != Ready {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.snap.Pending++
	s.mu.Unlock()

	ex, err := s.syncer.ApplyMove(ctx, mv)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Pending--
	if err != nil {
		s.snap.LastError = MoveRejected
		s.snap.Message = "move failed: " + err.Error()
		s.log.Warn("move rejected",
			zap.String("item_id", mv.ItemID),
			zap.String("category", mv.CategoryName),
			zap.Error(err))
		return &Error{Kind: MoveRejected, Err: err}
	}
	s.install(ex)
	s.log.Debug("move confirmed",
		zap.String("item_id", mv.ItemID),
		zap.String("category", mv.CategoryName),
		zap.Int("version", s.snap.Version))
	return nil
}

// install must be called with mu held.
func (s *Session) install(ex question.Exercise) {
	ex = ex.Clone()
	order := Shuffle(ex.Items, s.rng)
	layout := Bucketize(order, ex.Categories)
	if len(layout.Unknown) > 0 {
		ids := make([]string, 0, len(layout.Unknown))
		for _, it := range layout.Unknown {
			ids = append(ids, it.ID)
		}
		s.log.Warn("items reference undeclared categories",
			zap.String("question_id", ex.ID),
			zap.Strings("item_ids", ids))
	}
	s.snap.Phase = Ready
	s.snap.Exercise = ex
	s.snap.Order = order
	s.snap.Layout = layout
	s.snap.Failure = NoError
	s.snap.LastError = NoError
	s.snap.Message = ""
	s.snap.Version++
}

// Snapshot returns the current state. Its slices and maps are never modified
// after being handed out; treat them as read-only.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Phase is shorthand for Snapshot().Phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Phase
}
