package budget

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/ggonzalez94/defi-router/internal/model"
	"go.uber.org/zap"
)

// Persister loads and saves budgets for the store. Implementations live at
// the edge; the zero-value store works without one.
type Persister interface {
	LoadBudget(ctx context.Context, principalID string) (model.RiskBudget, bool, error)
	SaveBudget(ctx context.Context, budget model.RiskBudget) error
}

const shardCount = 32

type shard struct {
	mu      sync.RWMutex
	budgets map[string]model.RiskBudget
}

// Store caches budgets keyed by principal id. Shards keep one principal's
// update from blocking another's read; within a shard the mutex serializes
// same-principal writes so no merge is lost to a race.
type Store struct {
	shards    [shardCount]*shard
	persister Persister
	log       *zap.Logger

	// persistWG lets tests wait for async persistence to settle.
	persistWG sync.WaitGroup
}

func NewStore(persister Persister, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{persister: persister, log: logger}
	for i := range s.shards {
		s.shards[i] = &shard{budgets: make(map[string]model.RiskBudget)}
	}
	return s
}

func (s *Store) shardFor(principalID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(principalID))
	return s.shards[h.Sum32()%shardCount]
}

// SetBudget merges the patch over the preset for its risk level, caches the
// result, and persists it asynchronously. Persistence failures are logged,
// never surfaced: the cache is authoritative for the running process.
func (s *Store) SetBudget(ctx context.Context, principalID string, patch model.BudgetPatch) (model.RiskBudget, error) {
	merged := merge(principalID, patch)
	if err := Validate(merged); err != nil {
		return model.RiskBudget{}, err
	}

	sh := s.shardFor(principalID)
	sh.mu.Lock()
	sh.budgets[principalID] = merged
	sh.mu.Unlock()

	if s.persister != nil {
		s.persistWG.Add(1)
		go func() {
			defer s.persistWG.Done()
			if err := s.persister.SaveBudget(context.WithoutCancel(ctx), merged); err != nil {
				s.log.Warn("persist risk budget failed",
					zap.String("principal_id", principalID),
					zap.Error(err))
			}
		}()
	}
	return merged, nil
}

// GetBudget never fails: cache hit, then persistent load, then the moderate
// preset. The resolved budget is cached so repeated calls agree.
func (s *Store) GetBudget(ctx context.Context, principalID string) model.RiskBudget {
	sh := s.shardFor(principalID)
	sh.mu.RLock()
	cached, ok := sh.budgets[principalID]
	sh.mu.RUnlock()
	if ok {
		return cached
	}

	if s.persister != nil {
		stored, found, err := s.persister.LoadBudget(ctx, principalID)
		if err != nil {
			s.log.Warn("load risk budget failed, using moderate default",
				zap.String("principal_id", principalID),
				zap.Error(err))
		} else if found {
			sh.mu.Lock()
			// A concurrent SetBudget wins over the stored copy.
			if current, ok := sh.budgets[principalID]; ok {
				sh.mu.Unlock()
				return current
			}
			sh.budgets[principalID] = stored
			sh.mu.Unlock()
			return stored
		}
	}

	fallback := Default(principalID, model.RiskLevelModerate)
	sh.mu.Lock()
	if current, ok := sh.budgets[principalID]; ok {
		sh.mu.Unlock()
		return current
	}
	sh.budgets[principalID] = fallback
	sh.mu.Unlock()
	return fallback
}

// Flush blocks until all in-flight budget persistence has finished.
func (s *Store) Flush() {
	s.persistWG.Wait()
}
