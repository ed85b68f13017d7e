package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quizzes (id, course_id, content_id, title, passing_pct, time_limit_sec, questions_json, created_by, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (id) DO UPDATE SET
		   title=EXCLUDED.title, passing_pct=EXCLUDED.passing_pct,
		   time_limit_sec=EXCLUDED.time_limit_sec, questions_json=EXCLUDED.questions_json`,
		q.ID, q.CourseID, nullString(q.ContentID), q.Title, q.PassingPct,
		q.TimeLimitSec, string(qj), q.CreatedBy, q.CreatedAt)
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, course_id, content_id, title, passing_pct, time_limit_sec, questions_json, created_by, created_at
		   FROM quizzes WHERE id=$1`, id)
	var q Quiz
	var contentID sql.NullString
	var qjson string
	err := row.Scan(&q.ID, &q.CourseID, &contentID, &q.Title, &q.PassingPct,
		&q.TimeLimitSec, &qjson, &q.CreatedBy, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, ErrNotFound
	}
	if err != nil {
		return Quiz{}, err
	}
	q.ContentID = contentID.String
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, fmt.Errorf("decode questions: %w", err)
	}
	return q, nil
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, id string) error {
	var refs int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contents WHERE quiz_id=$1`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrQuizInUse
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateAttempt numbers the attempt from a count read in the same
// transaction as the insert. The window between two concurrent
// submissions can still produce a duplicate number; the sequence is a
// display aid, the uuid is the identity.
func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return Attempt{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Attempt{}, err
	}
	defer tx.Rollback()

	var prior int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id=$1 AND user_id=$2`,
		a.QuizID, a.UserID).Scan(&prior); err != nil {
		return Attempt{}, err
	}
	a.AttemptNumber = prior + 1

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO quiz_attempts
		   (id, quiz_id, course_id, user_id, answers_json, score, earned_points, total_points, passed, attempt_number, time_spent_sec, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.QuizID, a.CourseID, a.UserID, string(aj), a.Score,
		a.EarnedPoints, a.TotalPoints, a.Passed, a.AttemptNumber,
		a.TimeSpentSec, a.CreatedAt); err != nil {
		return Attempt{}, err
	}
	if err := tx.Commit(); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, selectAttempt+` WHERE id=$1`, id)
	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrNotFound
	}
	return a, err
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sqlStr := selectAttempt + ` WHERE 1=1`
	args := []any{}
	n := 0
	add := func(cond, val string) {
		if val == "" {
			return
		}
		n++
		sqlStr += fmt.Sprintf(" AND %s=$%d", cond, n)
		args = append(args, val)
	}
	add("quiz_id", opts.QuizID)
	add("course_id", opts.CourseID)
	add("user_id", opts.UserID)
	sqlStr += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) BestAttempt(ctx context.Context, quizID, userID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		selectAttempt+` WHERE quiz_id=$1 AND user_id=$2
		 ORDER BY score DESC, created_at ASC, attempt_number ASC LIMIT 1`,
		quizID, userID)
	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrNotFound
	}
	return a, err
}

const selectAttempt = `SELECT id, quiz_id, course_id, user_id, answers_json, score, earned_points, total_points, passed, attempt_number, time_spent_sec, created_at FROM quiz_attempts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(r rowScanner) (Attempt, error) {
	var a Attempt
	var ajson string
	if err := r.Scan(&a.ID, &a.QuizID, &a.CourseID, &a.UserID, &ajson, &a.Score,
		&a.EarnedPoints, &a.TotalPoints, &a.Passed, &a.AttemptNumber,
		&a.TimeSpentSec, &a.CreatedAt); err != nil {
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(ajson), &a.Answers); err != nil {
		return Attempt{}, fmt.Errorf("decode answers: %w", err)
	}
	return a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
