// Package cache keeps served question documents in a key-value cache in front
// of the question store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

var ErrMiss = errors.New("cache miss")

type KV interface {
	Get(ctx context.Context, key string) (string, error) // ErrMiss when absent
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Store reads through the cache and invalidates on every write. Cache
// failures are logged and fall back to the wrapped store.
//
// Every question has a version counter that writes bump after they commit.
// Entries carry the version read before the store was consulted and are
// only served while it is still current, so a read that raced a write
// cannot leave the older document behind.
type Store struct {
	question.Store
	kv  KV
	ttl time.Duration
	log *zap.Logger
}

type entry struct {
	Ver int64           `json:"v"`
	Doc json.RawMessage `json:"doc"`
}

func NewStore(inner question.Store, kv KV, ttl time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{Store: inner, kv: kv, ttl: ttl, log: log}
}

func exerciseKey(id string) string { return "quiz:exercise:" + id }
func clozeKey(id string) string    { return "quiz:cloze:" + id }
func versionKey(id string) string  { return "quiz:ver:" + id }

func (s *Store) GetExercise(ctx context.Context, id string) (question.Exercise, error) {
	var e question.Exercise
	ver, ok := s.version(ctx, id)
	if ok && s.lookup(ctx, exerciseKey(id), ver, &e) {
		return e, nil
	}
	e, err := s.Store.GetExercise(ctx, id)
	if err != nil {
		return question.Exercise{}, err
	}
	if ok {
		s.fill(ctx, exerciseKey(id), ver, e)
	}
	return e, nil
}

func (s *Store) GetCloze(ctx context.Context, id string) (question.Cloze, error) {
	var c question.Cloze
	ver, ok := s.version(ctx, id)
	if ok && s.lookup(ctx, clozeKey(id), ver, &c) {
		return c, nil
	}
	c, err := s.Store.GetCloze(ctx, id)
	if err != nil {
		return question.Cloze{}, err
	}
	if ok {
		s.fill(ctx, clozeKey(id), ver, c)
	}
	return c, nil
}

func (s *Store) PutExercise(ctx context.Context, e question.Exercise) error {
	if err := s.Store.PutExercise(ctx, e); err != nil {
		return err
	}
	s.invalidate(ctx, e.ID)
	return nil
}

func (s *Store) PutCloze(ctx context.Context, c question.Cloze) error {
	if err := s.Store.PutCloze(ctx, c); err != nil {
		return err
	}
	s.invalidate(ctx, c.ID)
	return nil
}

func (s *Store) MoveItem(ctx context.Context, questionID string, mv question.Move) (question.Exercise, error) {
	e, err := s.Store.MoveItem(ctx, questionID, mv)
	if err != nil {
		return question.Exercise{}, err
	}
	s.invalidate(ctx, questionID)
	return e, nil
}

// version returns the current version of id; ok is false when the cache
// cannot be trusted for this call.
func (s *Store) version(ctx context.Context, id string) (int64, bool) {
	raw, err := s.kv.Get(ctx, versionKey(id))
	switch {
	case errors.Is(err, ErrMiss):
		return 0, true
	case err != nil:
		s.log.Warn("cache get failed", zap.String("key", versionKey(id)), zap.Error(err))
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.log.Warn("cache version corrupt", zap.String("key", versionKey(id)), zap.Error(err))
		return 0, false
	}
	return v, true
}

func (s *Store) lookup(ctx context.Context, key string, ver int64, dst any) bool {
	raw, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, ErrMiss):
		return false
	case err != nil:
		s.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	var ent entry
	if err := json.Unmarshal([]byte(raw), &ent); err != nil {
		s.log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	if ent.Ver != ver {
		return false
	}
	if err := json.Unmarshal(ent.Doc, dst); err != nil {
		s.log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) fill(ctx context.Context, key string, ver int64, v any) {
	doc, err := json.Marshal(v)
	if err != nil {
		return
	}
	raw, err := json.Marshal(entry{Ver: ver, Doc: doc})
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) invalidate(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if _, err := s.kv.Incr(ctx, versionKey(id)); err != nil {
		s.log.Warn("cache version bump failed", zap.String("id", id), zap.Error(err))
	}
	if err := s.kv.Del(ctx, exerciseKey(id), clozeKey(id)); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("id", id), zap.Error(err))
	}
}
