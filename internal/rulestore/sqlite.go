package rulestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/perimetra/fwapi/internal/logging"
	"github.com/perimetra/fwapi/internal/rules"
)

// SQLiteStore is the rule store used by standalone deployments. Rules are
// persisted as JSON payloads with the columns the queries need broken out;
// tag and VM selector matching happens in Go after deserialization.
type SQLiteStore struct {
	db     *sql.DB
	logger *logging.Logger
}

// OpenSQLite opens or creates a rule database at the given path.
// Use ":memory:" for an in-memory database.
func OpenSQLite(path string, logger *logging.Logger) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule database: %w", err)
	}

	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}

	s := &SQLiteStore{db: db, logger: logger.WithComponent("rulestore")}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize rule schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rules (
			uuid TEXT PRIMARY KEY,
			owner_uuid TEXT,
			is_global BOOLEAN NOT NULL DEFAULT 0,
			enabled BOOLEAN NOT NULL DEFAULT 0,
			seq INTEGER,
			payload TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rules_owner ON rules(owner_uuid);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) Query(ctx context.Context, f Filter) ([]*rules.Rule, error) {
	// Narrowing by owner/global happens in SQL; tag and VM selector
	// matching needs the deserialized sides, so the filter finishes in Go.
	// Tag- or VM-criteria force a full scan: a matching rule may belong
	// to any owner.
	q := `SELECT payload FROM rules ORDER BY seq`
	var args []any
	if !f.Empty() && len(f.Tags) == 0 && len(f.VMs) == 0 {
		q = `SELECT payload FROM rules WHERE is_global = 1 OR owner_uuid = ? ORDER BY seq`
		args = append(args, f.OwnerUUID)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("rule query failed: %w", err)
	}
	defer rows.Close()

	var out []*rules.Rule
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("rule scan failed: %w", err)
		}
		var r rules.Rule
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("corrupt rule payload: %w", err)
		}
		if f.Matches(&r) {
			out = append(out, &r)
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*rules.Rule, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM rules WHERE uuid = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rule lookup failed: %w", err)
	}
	var r rules.Rule
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("corrupt rule payload: %w", err)
	}
	return &r, nil
}

func (s *SQLiteStore) Add(ctx context.Context, r *rules.Rule) error {
	if r.UUID == "" {
		r.UUID = uuid.NewString()
	}
	if err := r.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to serialize rule: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rules (uuid, owner_uuid, is_global, enabled, seq, payload)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM rules), ?)
		ON CONFLICT(uuid) DO UPDATE SET
			owner_uuid = excluded.owner_uuid,
			is_global = excluded.is_global,
			enabled = excluded.enabled,
			payload = excluded.payload`,
		r.UUID, r.OwnerUUID, r.Global, r.Enabled, string(payload))
	if err != nil {
		return fmt.Errorf("failed to store rule %s: %w", r.UUID, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE uuid = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// already gone, which is what the caller wanted
		s.logger.Debug("delete of unknown rule", "uuid", id)
	}
	return nil
}
