package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"studybuddy/models"

	_ "github.com/lib/pq"
)

// SessionRepository archives ended study sessions.
type SessionRepository interface {
	SaveSession(ctx context.Context, session models.StudySession) error
	ListSessions(ctx context.Context, limit int) ([]models.StudySession, error)
	Close() error
}

type PostgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(databaseURL string) (*PostgresSessionRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &PostgresSessionRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *PostgresSessionRepository) initSchema() error {
	query := `
		CREATE SCHEMA IF NOT EXISTS studybuddy;
		CREATE TABLE IF NOT EXISTS studybuddy.study_sessions (
			session_id       TEXT PRIMARY KEY,
			start_time       TIMESTAMPTZ NOT NULL,
			end_time         TIMESTAMPTZ NOT NULL,
			topics_covered   JSONB NOT NULL,
			tools_used_count JSONB NOT NULL,
			total_turns      INTEGER NOT NULL,
			document_used    BOOLEAN NOT NULL
		)`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) SaveSession(ctx context.Context, session models.StudySession) error {
	topicsJSON, toolsJSON, err := marshalSession(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO studybuddy.study_sessions
			(session_id, start_time, end_time, topics_covered, tools_used_count, total_turns, document_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			end_time = EXCLUDED.end_time,
			topics_covered = EXCLUDED.topics_covered,
			tools_used_count = EXCLUDED.tools_used_count,
			total_turns = EXCLUDED.total_turns,
			document_used = EXCLUDED.document_used`

	result, err := r.db.ExecContext(ctx, query,
		session.SessionID, session.StartTime, session.EndTime,
		topicsJSON, toolsJSON, session.TotalTurns, session.DocumentUsed)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session %s was not saved", session.SessionID)
	}
	return nil
}

func (r *PostgresSessionRepository) ListSessions(ctx context.Context, limit int) ([]models.StudySession, error) {
	query := `
		SELECT session_id, start_time, end_time, topics_covered, tools_used_count, total_turns, document_used
		FROM studybuddy.study_sessions
		ORDER BY end_time DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		var s models.StudySession
		var topicsJSON, toolsJSON []byte

		err := rows.Scan(&s.SessionID, &s.StartTime, &s.EndTime, &topicsJSON, &toolsJSON, &s.TotalTurns, &s.DocumentUsed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if err := unmarshalSession(&s, topicsJSON, toolsJSON); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

func (r *PostgresSessionRepository) Close() error {
	return r.db.Close()
}

func marshalSession(session models.StudySession) ([]byte, []byte, error) {
	topics := session.TopicsCovered
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal topics: %w", err)
	}

	tools := session.ToolsUsedCount
	if tools == nil {
		tools = map[models.ToolID]int{}
	}
	toolsJSON, err := json.Marshal(tools)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tool usage: %w", err)
	}
	return topicsJSON, toolsJSON, nil
}

func unmarshalSession(s *models.StudySession, topicsJSON, toolsJSON []byte) error {
	if err := json.Unmarshal(topicsJSON, &s.TopicsCovered); err != nil {
		return fmt.Errorf("failed to unmarshal topics: %w", err)
	}
	if err := json.Unmarshal(toolsJSON, &s.ToolsUsedCount); err != nil {
		return fmt.Errorf("failed to unmarshal tool usage: %w", err)
	}
	return nil
}
