package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"studybuddy/models"

	_ "modernc.org/sqlite"
)

// SQLiteSessionRepository keeps the session archive in a local file, for
// single-user CLI use.
type SQLiteSessionRepository struct {
	db *sql.DB
}

func NewSQLiteSessionRepository(dbPath string) (*SQLiteSessionRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &SQLiteSessionRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteSessionRepository) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS study_sessions (
		session_id TEXT PRIMARY KEY,
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL,
		topics_covered TEXT NOT NULL,
		tools_used_count TEXT NOT NULL,
		total_turns INTEGER NOT NULL,
		document_used INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_study_sessions_end ON study_sessions(end_time);
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) SaveSession(ctx context.Context, session models.StudySession) error {
	topicsJSON, toolsJSON, err := marshalSession(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO study_sessions
			(session_id, start_time, end_time, topics_covered, tools_used_count, total_turns, document_used)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			end_time = excluded.end_time,
			topics_covered = excluded.topics_covered,
			tools_used_count = excluded.tools_used_count,
			total_turns = excluded.total_turns,
			document_used = excluded.document_used`

	_, err = r.db.ExecContext(ctx, query,
		session.SessionID, session.StartTime.UnixNano(), session.EndTime.UnixNano(),
		string(topicsJSON), string(toolsJSON), session.TotalTurns, session.DocumentUsed)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) ListSessions(ctx context.Context, limit int) ([]models.StudySession, error) {
	query := `
		SELECT session_id, start_time, end_time, topics_covered, tools_used_count, total_turns, document_used
		FROM study_sessions
		ORDER BY end_time DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		var s models.StudySession
		var start, end int64
		var topicsJSON, toolsJSON string

		err := rows.Scan(&s.SessionID, &start, &end, &topicsJSON, &toolsJSON, &s.TotalTurns, &s.DocumentUsed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.StartTime = time.Unix(0, start)
		s.EndTime = time.Unix(0, end)
		if err := unmarshalSession(&s, []byte(topicsJSON), []byte(toolsJSON)); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

func (r *SQLiteSessionRepository) Close() error {
	return r.db.Close()
}
