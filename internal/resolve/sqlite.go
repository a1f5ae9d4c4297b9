package resolve

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/avolkhin/fincascade/internal/model"
)

// SQLiteStore is the durable participant store. Writes are keyed by
// (event id, participant id) and idempotent.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open participant db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS participants (
		event_id       TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		name           TEXT NOT NULL,
		role           TEXT NOT NULL,
		record         TEXT NOT NULL,
		updated_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (event_id, participant_id)
	);
	CREATE TABLE IF NOT EXISTS participant_aliases (
		event_id       TEXT NOT NULL,
		alias          TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		PRIMARY KEY (event_id, alias)
	);
	CREATE INDEX IF NOT EXISTS idx_aliases_participant
		ON participant_aliases(event_id, participant_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize participant schema: %w", err)
	}
	return nil
}

// Upsert writes the participant record and its alias index entries.
func (s *SQLiteStore) Upsert(ctx context.Context, eventID string, p model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal participant: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO participants (event_id, participant_id, name, role, record)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(event_id, participant_id)
		DO UPDATE SET name = excluded.name, role = excluded.role,
		              record = excluded.record, updated_at = CURRENT_TIMESTAMP`,
		eventID, p.ParticipantID, p.Name.Value, string(p.Role), string(record))
	if err != nil {
		return fmt.Errorf("upsert participant: %w", err)
	}

	aliases := append([]string{p.Name.Value}, p.Aliases...)
	for _, alias := range aliases {
		norm := NormalizeAlias(alias)
		if norm == "" {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO participant_aliases (event_id, alias, participant_id)
			VALUES (?, ?, ?)
			ON CONFLICT(event_id, alias) DO NOTHING`,
			eventID, norm, p.ParticipantID)
		if err != nil {
			return fmt.Errorf("upsert alias: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// LookupByAlias resolves a normalized alias to its participant.
func (s *SQLiteStore) LookupByAlias(ctx context.Context, eventID, alias string) (model.Participant, bool, error) {
	norm := NormalizeAlias(alias)
	if norm == "" {
		return model.Participant{}, false, nil
	}

	var record string
	err := s.db.QueryRowContext(ctx, `
		SELECT p.record FROM participant_aliases a
		JOIN participants p
		  ON p.event_id = a.event_id AND p.participant_id = a.participant_id
		WHERE a.event_id = ? AND a.alias = ?`,
		eventID, norm).Scan(&record)
	if err == sql.ErrNoRows {
		return model.Participant{}, false, nil
	}
	if err != nil {
		return model.Participant{}, false, fmt.Errorf("lookup alias: %w", err)
	}

	var p model.Participant
	if err := json.Unmarshal([]byte(record), &p); err != nil {
		return model.Participant{}, false, fmt.Errorf("decode participant: %w", err)
	}
	return p, true, nil
}

// List returns the event's participants ordered by id.
func (s *SQLiteStore) List(ctx context.Context, eventID string) ([]model.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record FROM participants
		WHERE event_id = ?
		ORDER BY length(participant_id), participant_id`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Participant
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		var p model.Participant
		if err := json.Unmarshal([]byte(record), &p); err != nil {
			return nil, fmt.Errorf("decode participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count returns the number of stored participants for the event.
func (s *SQLiteStore) Count(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE event_id = ?`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
