package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/auraproject/aura/internal/model/turn"
)

// SQLiteLog persists conversation turns to a SQLite database. Records are
// append-only; rowid preserves arrival order. New columns may be added over
// time, old records stay readable because variant data lives in JSON blobs.
type SQLiteLog struct {
	db *sql.DB
}

// NewSQLiteLog opens or creates the log database at the given path.
func NewSQLiteLog(dbPath string) (*SQLiteLog, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open log db: %w", err)
	}

	l := &SQLiteLog{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate log db: %w", err)
	}
	return l, nil
}

func (l *SQLiteLog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id         TEXT PRIMARY KEY,
		text       TEXT NOT NULL,
		modality   TEXT NOT NULL,
		emotion    TEXT NOT NULL,
		category   TEXT NOT NULL,
		intent     TEXT NOT NULL,
		envelope   TEXT NOT NULL,
		received_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_created ON turns(created_at);
	`
	_, err := l.db.Exec(schema)
	return err
}

// AppendRecord inserts one turn.
func (l *SQLiteLog) AppendRecord(ctx context.Context, t turn.ConversationTurn) error {
	intentJSON, err := json.Marshal(t.Intent)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}
	envelopeJSON, err := json.Marshal(t.Envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO turns (id, text, modality, emotion, category, intent, envelope, received_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.Utterance.Text,
		string(t.Utterance.Modality),
		string(t.Emotion),
		string(t.Intent.Category),
		string(intentJSON),
		string(envelopeJSON),
		t.Utterance.ReceivedAt.UTC().Format(time.RFC3339Nano),
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

// Walk streams every persisted turn in arrival order.
func (l *SQLiteLog) Walk(ctx context.Context, fn func(turn.ConversationTurn) error) error {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, text, modality, emotion, intent, envelope, received_at, created_at
		 FROM turns ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanTurn(rows *sql.Rows) (turn.ConversationTurn, error) {
	var (
		t                     turn.ConversationTurn
		modality              string
		emotion               string
		intentJSON            string
		envelopeJSON          string
		receivedAt, createdAt string
	)
	if err := rows.Scan(&t.ID, &t.Utterance.Text, &modality, &emotion,
		&intentJSON, &envelopeJSON, &receivedAt, &createdAt); err != nil {
		return t, fmt.Errorf("scan turn: %w", err)
	}

	t.Utterance.Modality = turn.Modality(modality)
	t.Emotion = turn.EmotionTag(emotion)
	if err := json.Unmarshal([]byte(intentJSON), &t.Intent); err != nil {
		return t, fmt.Errorf("decode intent: %w", err)
	}
	if err := json.Unmarshal([]byte(envelopeJSON), &t.Envelope); err != nil {
		return t, fmt.Errorf("decode envelope: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, receivedAt); err == nil {
		t.Utterance.ReceivedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		t.CreatedAt = ts
	}
	return t, nil
}

// Close closes the underlying database.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
