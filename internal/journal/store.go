package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-watch/constants"
	"github.com/joseph-ayodele/invoice-watch/internal/common"
	"github.com/joseph-ayodele/invoice-watch/internal/entity"
)

// fixed width so lexical order equals time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const createAttempts = `CREATE TABLE IF NOT EXISTS attempts (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	filepath     TEXT NOT NULL,
	triggered_by TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	reason       TEXT,
	started_at   TEXT NOT NULL,
	finished_at  TEXT
)`

// Store is the attempts journal.
type Store struct {
	db      *sql.DB
	dialect Dialect
	log     *slog.Logger
	now     func() time.Time
}

// Open connects to the journal and creates the attempts table if missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, dialect, err := openDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, dialect: dialect, log: logger, now: time.Now}
	if _, err := db.ExecContext(ctx, createAttempts); err != nil {
		_ = db.Close()
		logger.Error("failed to create attempts table", "error", err)
		return nil, common.NewAppError("DATABASE_ERROR", "migrate", errors.Join(common.ErrDatabase, err))
	}
	logger.Info("journal ready", "dialect", dialect)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() {
	s.log.Info("closing journal")
	if err := s.db.Close(); err != nil {
		s.log.Error("failed to close journal", "error", err)
	}
}

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	s.log.Debug("pinging journal")
	return s.db.PingContext(ctx)
}

func (s *Store) Start(ctx context.Context, filename, path, trigger string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO attempts (id, filename, filepath, triggered_by, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`),
		id.String(), filename, path, trigger, string(constants.AttemptStatusRunning), formatTime(s.now()))
	if err != nil {
		s.log.Error("attempt start failed", "filename", filename, "err", err)
		return uuid.Nil, common.NewAppError("DATABASE_ERROR", "insert attempt", errors.Join(common.ErrDatabase, err))
	}
	s.log.Debug("attempt started", "attempt_id", id, "filename", filename, "trigger", trigger)
	return id, nil
}

func (s *Store) Finish(ctx context.Context, id uuid.UUID, status constants.AttemptStatus, reason string) error {
	var r *string
	if reason != "" {
		r = &reason
	}
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE attempts SET status = ?, reason = ?, finished_at = ? WHERE id = ?`),
		string(status), r, formatTime(s.now()), id.String())
	if err != nil {
		s.log.Error("attempt finish failed", "attempt_id", id, "err", err)
		return common.NewAppError("DATABASE_ERROR", "update attempt", errors.Join(common.ErrDatabase, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("DATABASE_ERROR", fmt.Sprintf("attempt %s not found", id), common.ErrDatabase)
	}
	s.log.Debug("attempt finished", "attempt_id", id, "status", status)
	return nil
}

// CountByStatus returns the number of attempts per status. Every known
// status is present, zero or not.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, st := range constants.StatusesAsStringSlice() {
		out[st] = 0
	}
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM attempts GROUP BY status`)
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "count attempts", errors.Join(common.ErrDatabase, err))
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// Recent returns the latest attempts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]entity.Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, filename, filepath, triggered_by, status, reason, started_at, finished_at
		 FROM attempts ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "list attempts", errors.Join(common.ErrDatabase, err))
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []entity.Attempt
	for rows.Next() {
		var (
			a        entity.Attempt
			id       string
			reason   sql.NullString
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&id, &a.Filename, &a.Filepath, &a.Trigger, &a.Status, &reason, &started, &finished); err != nil {
			return nil, err
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("attempt id %q: %w", id, err)
		}
		if reason.Valid {
			a.Reason = &reason.String
		}
		if a.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("started_at: %w", err)
		}
		if finished.Valid {
			t, err := time.Parse(timeLayout, finished.String)
			if err != nil {
				return nil, fmt.Errorf("finished_at: %w", err)
			}
			a.FinishedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
