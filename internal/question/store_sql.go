package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutExercise(ctx context.Context, e Exercise) error {
	e = e.Clone()
	if err := e.Normalize(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertQuestion(ctx, tx, e.ID, KindCategorize, e.Title, e.Description, ""); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE question_id=$1`, e.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE question_id=$1`, e.ID); err != nil {
		return err
	}
	for i, c := range e.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (question_id,name,position) VALUES ($1,$2,$3)`,
			e.ID, c.Name, i); err != nil {
			return fmt.Errorf("insert category %q: %w", c.Name, err)
		}
	}
	for i, it := range e.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO items (id,question_id,name,category,position) VALUES ($1,$2,$3,$4,$5)`,
			it.ID, e.ID, it.Name, it.Category, i); err != nil {
			return fmt.Errorf("insert item %q: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertQuestion(ctx context.Context, q queryer, id string, kind Kind, title, desc, body string) error {
	var existing string
	err := q.QueryRowContext(ctx, `SELECT kind FROM questions WHERE id=$1`, id).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = q.ExecContext(ctx,
			`INSERT INTO questions (id,kind,title,description,body,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
			id, string(kind), title, desc, body, time.Now().Unix())
		return err
	case err != nil:
		return err
	case Kind(existing) != kind:
		return fmt.Errorf("%w: %s is a %s question", ErrWrongKind, id, existing)
	}
	_, err = q.ExecContext(ctx,
		`UPDATE questions SET title=$1, description=$2, body=$3 WHERE id=$4`,
		title, desc, body, id)
	return err
}

func (s *SQLStore) GetExercise(ctx context.Context, id string) (Exercise, error) {
	return loadExercise(ctx, s.db, id)
}

func loadExercise(ctx context.Context, q queryer, id string) (Exercise, error) {
	e := Exercise{ID: id, Kind: KindCategorize}
	var kind string
	err := q.QueryRowContext(ctx, `SELECT kind,title,description FROM questions WHERE id=$1`, id).
		Scan(&kind, &e.Title, &e.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exercise{}, ErrNotFound
		}
		return Exercise{}, err
	}
	if Kind(kind) != KindCategorize {
		return Exercise{}, ErrWrongKind
	}

	rows, err := q.QueryContext(ctx, `SELECT name FROM categories WHERE question_id=$1 ORDER BY position`, id)
	if err != nil {
		return Exercise{}, err
	}
	e.Categories = []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Name); err != nil {
			rows.Close()
			return Exercise{}, err
		}
		e.Categories = append(e.Categories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Exercise{}, err
	}

	rows, err = q.QueryContext(ctx, `SELECT id,name,category FROM items WHERE question_id=$1 ORDER BY position`, id)
	if err != nil {
		return Exercise{}, err
	}
	defer rows.Close()
	e.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Category); err != nil {
			return Exercise{}, err
		}
		e.Items = append(e.Items, it)
	}
	return e, rows.Err()
}

// MoveItem updates the item's category and reads the exercise back inside the
// same transaction, so the returned document reflects exactly this move and
// every move committed before it.
func (s *SQLStore) MoveItem(ctx context.Context, questionID string, mv Move) (Exercise, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Exercise{}, err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM categories WHERE question_id=$1 AND name=$2`, questionID, mv.CategoryName).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		kind, kerr := kindOf(ctx, tx, questionID)
		if kerr != nil {
			return Exercise{}, kerr
		}
		if kind != KindCategorize {
			return Exercise{}, ErrWrongKind
		}
		return Exercise{}, fmt.Errorf("%w: %q", ErrUnknownCategory, mv.CategoryName)
	}
	if err != nil {
		return Exercise{}, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE items SET category=$1 WHERE id=$2 AND question_id=$3`,
		mv.CategoryName, mv.ItemID, questionID)
	if err != nil {
		return Exercise{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Exercise{}, fmt.Errorf("%w: %q", ErrItemNotFound, mv.ItemID)
	}
	e, err := loadExercise(ctx, tx, questionID)
	if err != nil {
		return Exercise{}, err
	}
	return e, tx.Commit()
}

func (s *SQLStore) PutCloze(ctx context.Context, c Cloze) error {
	c.Blanks = append([]Blank(nil), c.Blanks...)
	if err := c.Normalize(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertQuestion(ctx, tx, c.ID, KindCloze, c.Title, c.Description, c.Text); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM blanks WHERE question_id=$1`, c.ID); err != nil {
		return err
	}
	for i, b := range c.Blanks {
		aj, err := json.Marshal(b.Answers)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blanks (question_id,name,hint,answers_json,mode,position) VALUES ($1,$2,$3,$4,$5,$6)`,
			c.ID, b.Name, b.Hint, string(aj), b.Mode, i); err != nil {
			return fmt.Errorf("insert blank %q: %w", b.Name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetCloze(ctx context.Context, id string) (Cloze, error) {
	c := Cloze{ID: id, Kind: KindCloze}
	var kind string
	err := s.db.QueryRowContext(ctx, `SELECT kind,title,description,body FROM questions WHERE id=$1`, id).
		Scan(&kind, &c.Title, &c.Description, &c.Text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cloze{}, ErrNotFound
		}
		return Cloze{}, err
	}
	if Kind(kind) != KindCloze {
		return Cloze{}, ErrWrongKind
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name,hint,answers_json,mode FROM blanks WHERE question_id=$1 ORDER BY position`, id)
	if err != nil {
		return Cloze{}, err
	}
	defer rows.Close()
	c.Blanks = []Blank{}
	for rows.Next() {
		var b Blank
		var aj string
		if err := rows.Scan(&b.Name, &b.Hint, &aj, &b.Mode); err != nil {
			return Cloze{}, err
		}
		if err := json.Unmarshal([]byte(aj), &b.Answers); err != nil {
			return Cloze{}, fmt.Errorf("blank %q answers: %w", b.Name, err)
		}
		c.Blanks = append(c.Blanks, b)
	}
	return c, rows.Err()
}

func (s *SQLStore) KindOf(ctx context.Context, id string) (Kind, error) {
	return kindOf(ctx, s.db, id)
}

func kindOf(ctx context.Context, q queryer, id string) (Kind, error) {
	var kind string
	if err := q.QueryRowContext(ctx, `SELECT kind FROM questions WHERE id=$1`, id).Scan(&kind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return Kind(kind), nil
}

func (s *SQLStore) ListQuestions(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,kind,title,created_at FROM questions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var kind string
		if err := rows.Scan(&sm.ID, &kind, &sm.Title, &sm.CreatedAt); err != nil {
			return nil, err
		}
		sm.Kind = Kind(kind)
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveSubmission(ctx context.Context, sub Submission) error {
	aj, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}
	if sub.CreatedAt == 0 {
		sub.CreatedAt = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id,question_id,answers_json,correct,total,score,message,blob_key,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		sub.ID, sub.QuestionID, string(aj), sub.Feedback.Correct, sub.Feedback.Total,
		sub.Feedback.Score, sub.Feedback.Message, sub.BlobKey, sub.CreatedAt)
	return err
}

func (s *SQLStore) ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := `SELECT id,question_id,answers_json,correct,total,score,message,blob_key,created_at FROM submissions`
	args := []any{}
	if opts.QuestionID != "" {
		q += ` WHERE question_id=$1`
		args = append(args, opts.QuestionID)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT %d OFFSET %d`, limit, max(opts.Offset, 0))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Submission{}
	for rows.Next() {
		var sub Submission
		var aj string
		if err := rows.Scan(&sub.ID, &sub.QuestionID, &aj, &sub.Feedback.Correct, &sub.Feedback.Total,
			&sub.Feedback.Score, &sub.Feedback.Message, &sub.BlobKey, &sub.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aj), &sub.Answers); err != nil {
			sub.Answers = map[string]string{}
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
