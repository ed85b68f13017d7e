package progress

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pathwise-lms/pathwise/internal/events"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Enroll(ctx context.Context, userID, courseID string, now int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrollments (user_id, course_id, status, progress_pct, enrolled_at, last_activity)
		 VALUES ($1,$2,$3,0,$4,$4)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID, StatusActive, now)
	return err
}

func (s *SQLStore) GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error) {
	var e Enrollment
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, course_id, status, progress_pct, enrolled_at, last_activity
		   FROM enrollments WHERE user_id=$1 AND course_id=$2`,
		userID, courseID).
		Scan(&e.UserID, &e.CourseID, &e.Status, &e.ProgressPct, &e.EnrolledAt, &e.LastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return Enrollment{}, ErrNotEnrolled
	}
	if err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

func (s *SQLStore) ListEnrollments(ctx context.Context, courseID string) ([]Enrollment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, course_id, status, progress_pct, enrolled_at, last_activity
		   FROM enrollments WHERE course_id=$1 ORDER BY user_id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Enrollment{}
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.UserID, &e.CourseID, &e.Status, &e.ProgressPct, &e.EnrolledAt, &e.LastActivity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) CompletedSet(ctx context.Context, userID, courseID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id FROM progress WHERE user_id=$1 AND course_id=$2`,
		userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	return set, rows.Err()
}

// ApplyCompletion is the single write path for completion events: the
// progress rows, the enrollment projection, and the event log commit
// together or not at all.
func (s *SQLStore) ApplyCompletion(ctx context.Context, userID, courseID string, steps []Step, pct int, status string, now int64, evs []events.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, st := range steps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO progress (user_id, course_id, item_id, kind, completed_at)
			 VALUES ($1,$2,$3,$4,$5)
			 ON CONFLICT (user_id, item_id) DO NOTHING`,
			userID, courseID, st.ItemID, st.Kind, now); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE enrollments SET progress_pct=$1, status=$2, last_activity=$3
		  WHERE user_id=$4 AND course_id=$5`,
		pct, status, now, userID, courseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotEnrolled
	}

	if err := events.AppendTx(ctx, tx, evs...); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) ClearProgress(ctx context.Context, userID, courseID string, now int64, evs []events.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM progress WHERE user_id=$1 AND course_id=$2`,
		userID, courseID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE enrollments SET progress_pct=0, status=$1, last_activity=$2
		  WHERE user_id=$3 AND course_id=$4`,
		StatusActive, now, userID, courseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotEnrolled
	}

	if err := events.AppendTx(ctx, tx, evs...); err != nil {
		return err
	}
	return tx.Commit()
}
