package execution

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ggonzalez94/defi-router/internal/model"
	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed audit trail of executed steps.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

func OpenStore(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create record store directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create record lock directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open record sqlite: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS step_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			plan_id TEXT NOT NULL,
			principal_id TEXT NOT NULL,
			step_index INTEGER NOT NULL,
			tx_handle TEXT NOT NULL,
			status TEXT NOT NULL,
			recorded_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_step_records_plan ON step_records(plan_id, step_index);",
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init record schema: %w", err)
		}
	}
	return &Store{db: db, lock: flock.New(lockPath)}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) AppendRecord(ctx context.Context, record model.StepRecord) error {
	if record.PlanID == "" {
		return fmt.Errorf("append record: missing plan id")
	}
	locked, err := s.lock.TryLockContext(ctx, 5*time.Second)
	if err != nil {
		return fmt.Errorf("lock record store: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock record store: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO step_records (plan_id, principal_id, step_index, tx_handle, status, recorded_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.PlanID, record.PrincipalID, record.StepIndex, string(record.TxHandle), record.Status,
		record.Timestamp.UTC().Unix(), payload)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// RecordsForPlan returns the trail for one plan ordered by step index.
func (s *Store) RecordsForPlan(ctx context.Context, planID string) ([]model.StepRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM step_records WHERE plan_id = ? ORDER BY step_index ASC, id ASC", planID)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	defer rows.Close()

	var records []model.StepRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var record model.StepRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("decode record payload: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
