package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateCourse(ctx context.Context, c Course) error {
	created := c.CreatedAt
	if created == 0 {
		created = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id, title, created_by, created_at) VALUES ($1,$2,$3,$4)`,
		c.ID, c.Title, c.CreatedBy, created)
	return err
}

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	var c Course
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_by, created_at FROM courses WHERE id=$1`, id).
		Scan(&c.ID, &c.Title, &c.CreatedBy, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, ErrNotFound
	}
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) ListCourses(ctx context.Context, opts ListOpts) ([]Course, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var (
		sqlStr string
		args   []any
	)
	switch {
	case opts.StudentID != "":
		sqlStr = `SELECT c.id, c.title, c.created_by, c.created_at
			  FROM courses c
			  JOIN enrollments e ON e.course_id = c.id
			 WHERE e.user_id=$1
			 ORDER BY c.created_at DESC LIMIT $2 OFFSET $3`
		args = []any{opts.StudentID, limit, opts.Offset}
	case opts.InstructorID != "":
		sqlStr = `SELECT id, title, created_by, created_at FROM courses
			 WHERE created_by=$1
			 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = []any{opts.InstructorID, limit, opts.Offset}
	default:
		sqlStr = `SELECT id, title, created_by, created_at FROM courses
			 ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = []any{limit, opts.Offset}
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddModule(ctx context.Context, m Module) error {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM courses WHERE id=$1`, m.CourseID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO course_modules (id, course_id, title, order_index) VALUES ($1,$2,$3,$4)`,
		m.ID, m.CourseID, m.Title, m.OrderIndex)
	return err
}

func (s *SQLStore) AddContent(ctx context.Context, ci ContentItem) error {
	var courseID string
	err := s.db.QueryRowContext(ctx,
		`SELECT course_id FROM course_modules WHERE id=$1`, ci.ModuleID).Scan(&courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if ci.CourseID != "" && ci.CourseID != courseID {
		return fmt.Errorf("module %s belongs to course %s", ci.ModuleID, courseID)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contents (id, module_id, course_id, type, title, order_index, quiz_id, prereq_content_id, material_key)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		ci.ID, ci.ModuleID, courseID, ci.Type, ci.Title, ci.OrderIndex,
		nullable(ci.QuizID), nullable(ci.PrereqContentID), nullable(ci.MaterialKey))
	return err
}

func (s *SQLStore) GetContent(ctx context.Context, id string) (ContentItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, module_id, course_id, type, title, order_index, quiz_id, prereq_content_id, material_key
		   FROM contents WHERE id=$1`, id)
	ci, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ContentItem{}, ErrNotFound
	}
	return ci, err
}

func (s *SQLStore) SetMaterialKey(ctx context.Context, contentID, key string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contents SET material_key=$1 WHERE id=$2`, key, contentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Inventory(ctx context.Context, courseID string) ([]ContentItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.module_id, c.course_id, c.type, c.title, c.order_index, c.quiz_id, c.prereq_content_id, c.material_key
		   FROM contents c
		   JOIN course_modules m ON m.id = c.module_id
		  WHERE c.course_id=$1
		  ORDER BY m.order_index, c.order_index`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ContentItem{}
	for rows.Next() {
		ci, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ci)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(r rowScanner) (ContentItem, error) {
	var ci ContentItem
	var quizID, prereq, material sql.NullString
	if err := r.Scan(&ci.ID, &ci.ModuleID, &ci.CourseID, &ci.Type, &ci.Title,
		&ci.OrderIndex, &quizID, &prereq, &material); err != nil {
		return ContentItem{}, err
	}
	ci.QuizID = quizID.String
	ci.PrereqContentID = prereq.String
	ci.MaterialKey = material.String
	return ci, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
