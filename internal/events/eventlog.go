package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Domain event types appended by the progression engine.
const (
	TypeContentCompleted = "content.completed"
	TypeQuizPassed       = "quiz.passed"
	TypeCourseCompleted  = "course.completed"
	TypeProgressReset    = "progress.reset"
)

type Event struct {
	Offset    int64  `json:"offset,omitempty"`
	SiteID    string `json:"site_id,omitempty"`
	Type      string `json:"type"`
	Key       string `json:"key"` // natural key: userID|courseID
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// New builds an event stamped with the caller's clock, marshaling the
// payload. The timestamp matches the state change the event describes,
// not the moment the row is written.
func New(typ, key string, at int64, payload any) Event {
	data, _ := json.Marshal(payload)
	return Event{Type: typ, Key: key, DataJSON: string(data), CreatedAt: at}
}

// AppendTx writes events inside the caller's transaction so the log and
// the state change it describes commit or roll back together.
func AppendTx(ctx context.Context, tx *sql.Tx, evs ...Event) error {
	for _, e := range evs {
		site := e.SiteID
		if site == "" {
			site = "local"
		}
		created := e.CreatedAt
		if created == 0 {
			created = time.Now().Unix()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_log (site_id, typ, key, data, created_at)
			 VALUES ($1,$2,$3,$4,$5)`,
			site, e.Type, e.Key, e.DataJSON, created); err != nil {
			return err
		}
	}
	return nil
}

// List returns events newest-first, optionally filtered by key.
func List(ctx context.Context, db *sql.DB, key string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var (
		rows *sql.Rows
		err  error
	)
	if key == "" {
		rows, err = db.QueryContext(ctx,
			`SELECT "offset", site_id, typ, key, data, created_at FROM event_log
			 ORDER BY "offset" DESC LIMIT $1`, limit)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT "offset", site_id, typ, key, data, created_at FROM event_log
			 WHERE key=$1 ORDER BY "offset" DESC LIMIT $2`, key, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
