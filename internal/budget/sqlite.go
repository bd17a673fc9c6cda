package budget

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ggonzalez94/defi-router/internal/model"
	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists budgets in a local sqlite database guarded by a file
// lock, so concurrent CLI invocations do not corrupt each other's writes.
type SQLiteStore struct {
	db   *sql.DB
	lock *flock.Flock
}

func OpenSQLite(path, lockPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create budget store directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create budget lock directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open budget sqlite: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS budgets (
			principal_id TEXT PRIMARY KEY,
			risk_level TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init budget schema: %w", err)
		}
	}
	return &SQLiteStore{db: db, lock: flock.New(lockPath)}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) LoadBudget(ctx context.Context, principalID string) (model.RiskBudget, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM budgets WHERE principal_id = ?", principalID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RiskBudget{}, false, nil
		}
		return model.RiskBudget{}, false, fmt.Errorf("read budget: %w", err)
	}
	var budget model.RiskBudget
	if err := json.Unmarshal(payload, &budget); err != nil {
		return model.RiskBudget{}, false, fmt.Errorf("decode budget payload: %w", err)
	}
	return budget, true, nil
}

func (s *SQLiteStore) SaveBudget(ctx context.Context, budget model.RiskBudget) error {
	if budget.PrincipalID == "" {
		return fmt.Errorf("save budget: missing principal id")
	}
	locked, err := s.lock.TryLockContext(ctx, 5*time.Second)
	if err != nil {
		return fmt.Errorf("lock budget store: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock budget store: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	payload, err := json.Marshal(budget)
	if err != nil {
		return fmt.Errorf("encode budget payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO budgets (principal_id, risk_level, updated_at, payload)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(principal_id) DO UPDATE SET
		   risk_level = excluded.risk_level,
		   updated_at = excluded.updated_at,
		   payload = excluded.payload`,
		budget.PrincipalID, string(budget.RiskLevel), budget.UpdatedAt.UTC().Unix(), payload)
	if err != nil {
		return fmt.Errorf("write budget: %w", err)
	}
	return nil
}
