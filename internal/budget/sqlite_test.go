package budget

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ggonzalez94/defi-router/internal/model"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	store, err := OpenSQLite(filepath.Join(dir, "budgets.db"), filepath.Join(dir, "budgets.lock"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteRoundTrip(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	saved := Default("alice", model.RiskLevelConservative)
	saved.MaxGasCostUSD = 42
	if err := store.SaveBudget(ctx, saved); err != nil {
		t.Fatalf("SaveBudget failed: %v", err)
	}

	loaded, found, err := store.LoadBudget(ctx, "alice")
	if err != nil {
		t.Fatalf("LoadBudget failed: %v", err)
	}
	if !found {
		t.Fatal("saved budget not found")
	}
	if loaded.RiskLevel != model.RiskLevelConservative || loaded.MaxGasCostUSD != 42 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if len(loaded.AllowedDomains) != len(saved.AllowedDomains) {
		t.Fatalf("allow-lists did not survive: %+v", loaded)
	}
}

func TestSQLiteUpsertReplaces(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	first := Default("bob", model.RiskLevelModerate)
	if err := store.SaveBudget(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	second := Default("bob", model.RiskLevelAggressive)
	if err := store.SaveBudget(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, found, err := store.LoadBudget(ctx, "bob")
	if err != nil || !found {
		t.Fatalf("load after upsert: found=%v err=%v", found, err)
	}
	if loaded.RiskLevel != model.RiskLevelAggressive {
		t.Fatalf("upsert did not replace: %q", loaded.RiskLevel)
	}
}

func TestSQLiteLoadMissing(t *testing.T) {
	store := openTestSQLite(t)

	_, found, err := store.LoadBudget(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LoadBudget failed: %v", err)
	}
	if found {
		t.Fatal("missing principal reported as found")
	}
}

func TestSQLiteSaveRequiresPrincipal(t *testing.T) {
	store := openTestSQLite(t)
	if err := store.SaveBudget(context.Background(), model.RiskBudget{}); err == nil {
		t.Fatal("expected error for empty principal id")
	}
}
