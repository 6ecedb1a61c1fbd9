// Package store handles record persistence and practice history.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/verte-zerg/dictype/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Store wraps SQLite access for records and session history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.applyPragmas(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on pragma failure.
			_ = cerr
		}
		return nil, err
	}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			library_id TEXT NOT NULL,
			library_name TEXT NOT NULL,
			practice_type TEXT NOT NULL,
			scope TEXT NOT NULL,
			items INTEGER NOT NULL,
			correct_items INTEGER NOT NULL,
			wrong_items INTEGER NOT NULL,
			mistakes INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_char_stats (
			session_id INTEGER NOT NULL,
			char TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			PRIMARY KEY (session_id, char)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_library ON sessions(library_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get implements KV.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

// Put implements KV.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Delete implements KV.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key)
	return err
}

// InsertSession stores a completed session and its per-character stats.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord, chars []model.CharStats) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	query, args, err := sqlBuilder.Insert("sessions").
		Columns("started_at", "ended_at", "library_id", "library_name", "practice_type", "scope",
			"items", "correct_items", "wrong_items", "mistakes", "duration_ms").
		Values(
			rec.StartedAt.Format(time.RFC3339Nano),
			rec.EndedAt.Format(time.RFC3339Nano),
			rec.LibraryID,
			rec.LibraryName,
			string(rec.PracticeType),
			string(rec.Scope),
			rec.Items,
			rec.CorrectItems,
			rec.WrongItems,
			rec.Mistakes,
			rec.DurationMs,
		).ToSql()
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(chars) > 0 {
		ins := sqlBuilder.Insert("session_char_stats").Columns("session_id", "char", "correct", "incorrect")
		for _, cs := range chars {
			ins = ins.Values(id, cs.Char, cs.Correct, cs.Incorrect)
		}
		query, args, err = ins.ToSql()
		if err != nil {
			return 0, err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessions returns stored sessions matching the filter, oldest first.
func (s *Store) ListSessions(ctx context.Context, filter model.HistoryFilter) ([]model.SessionAggregate, error) {
	q := sqlBuilder.Select("id", "ended_at", "library_name", "scope", "correct_items", "wrong_items", "mistakes", "duration_ms").
		From("sessions").
		OrderBy("ended_at ASC")
	if filter.LibraryID != "" {
		q = q.Where(squirrel.Eq{"library_id": filter.LibraryID})
	}
	if filter.Since != nil {
		q = q.Where(squirrel.GtOrEq{"ended_at": filter.Since.Format(time.RFC3339Nano)})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt, scope string
		if err := rows.Scan(&agg.SessionID, &endedAt, &agg.LibraryName, &scope, &agg.CorrectItems, &agg.WrongItems, &agg.Mistakes, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		agg.Scope = model.ParsePracticeScope(scope)
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListCharAggregatesForSessions aggregates per-character stats across sessions.
func (s *Store) ListCharAggregatesForSessions(ctx context.Context, sessionIDs []int64) ([]model.CharAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlBuilder.Select("char", "SUM(correct)", "SUM(incorrect)").
		From("session_char_stats").
		Where(squirrel.Eq{"session_id": sessionIDs}).
		GroupBy("char").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CharAggregate
	for rows.Next() {
		var agg model.CharAggregate
		if err := rows.Scan(&agg.Char, &agg.Correct, &agg.Incorrect); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
