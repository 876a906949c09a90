package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/Harshitk-cp/fabricator/internal/fabric"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var (
	ErrBeliefSystemNotFound = errors.New("belief system not found")
)

// Fabricator orchestrates belief systems and their persistence: it keeps the
// live engine objects, routes every mutation through the database adapter,
// and serializes access so the single-threaded engine is never entered
// concurrently.
type Fabricator struct {
	mu          sync.Mutex
	adapter     domain.DatabaseAdapter
	logger      *zap.Logger
	systems     map[string]*fabric.BeliefSystem
	tensionHops int
}

func NewFabricator(adapter domain.DatabaseAdapter, logger *zap.Logger, tensionHops int) *Fabricator {
	if tensionHops <= 0 {
		tensionHops = fabric.DefaultTensionHops
	}
	return &Fabricator{
		adapter:     adapter,
		logger:      logger,
		systems:     make(map[string]*fabric.BeliefSystem),
		tensionHops: tensionHops,
	}
}

// CreateBeliefSystem registers a new empty root belief system and persists it.
func (f *Fabricator) CreateBeliefSystem(ctx context.Context, name string, strategy domain.ForkingStrategy) (string, error) {
	bs, err := fabric.NewBeliefSystem(name, strategy)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.adapter.CreateBeliefSystem(ctx, bs.ID(), name, strategy, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("persist belief system: %w", err)
	}
	f.systems[bs.ID()] = bs
	f.logger.Info("belief system created",
		zap.String("belief_system_id", bs.ID()),
		zap.String("name", name),
		zap.String("strategy", string(strategy)))
	return bs.ID(), nil
}

// Get returns the live belief system for introspection.
func (f *Fabricator) Get(id string) (*fabric.BeliefSystem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookup(id)
}

func (f *Fabricator) lookup(id string) (*fabric.BeliefSystem, error) {
	bs, ok := f.systems[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBeliefSystemNotFound, id)
	}
	return bs, nil
}

// AddRule appends one rule to a belief system and persists it with merge
// semantics on content.
func (f *Fabricator) AddRule(ctx context.Context, beliefSystemID string, rule *domain.Rule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	bs, err := f.lookup(beliefSystemID)
	if err != nil {
		return err
	}
	if err := bs.AddRule(rule); err != nil {
		return err
	}
	if err := f.adapter.AddRule(ctx, beliefSystemID, rule); err != nil {
		return fmt.Errorf("persist rule: %w", err)
	}
	f.logger.Info("rule added",
		zap.String("belief_system_id", beliefSystemID),
		zap.String("rule_id", rule.ID()))
	return nil
}

// AddRules appends a translated rule set (one rule per disjunct) atomically
// with respect to the in-memory registry: either every rule is accepted or
// none is added.
func (f *Fabricator) AddRules(ctx context.Context, beliefSystemID string, rules []*domain.Rule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	bs, err := f.lookup(beliefSystemID)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.Condition.ContainsOr() {
			return fabric.ErrRuleHasOr
		}
		if bs.HasRule(r.ID()) || seen[r.ID()] {
			return fmt.Errorf("%w: %s", fabric.ErrDuplicateRule, r.ID())
		}
		seen[r.ID()] = true
	}
	for _, r := range rules {
		if err := bs.AddRule(r); err != nil {
			return err
		}
	}
	for _, r := range rules {
		if err := f.adapter.AddRule(ctx, beliefSystemID, r); err != nil {
			return fmt.Errorf("persist rule: %w", err)
		}
	}
	return nil
}

// Simulate introduces statements into a belief system, records the event as
// one atomic write, and registers any fork the contradiction engine spawned.
//
// A persistence failure does not invalidate the in-memory outcome: the
// result is returned alongside the error so the caller can retry the write
// against a healthy adapter.
func (f *Fabricator) Simulate(ctx context.Context, beliefSystemID string, statements []*domain.Statement) (*fabric.SimulationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bs, err := f.lookup(beliefSystemID)
	if err != nil {
		return nil, err
	}

	res, err := bs.Simulate(statements)
	if err != nil {
		return nil, err
	}

	rec := &domain.SimulationRecord{
		ID:             ulid.Make().String(),
		BeliefSystemID: beliefSystemID,
		CreatedAt:      time.Now().UTC(),
		Introduced:     statements,
		AppliedRules:   res.AppliedRules,
		Derived:        res.DerivedFacts,
	}

	if res.Forked() {
		child := res.ForkedBeliefs[0]
		f.systems[child.ID()] = child
		rec.ForkedBeliefSystemID = child.ID()
		if err := f.adapter.ForkBeliefSystem(ctx, beliefSystemID, child.ID(), child.Name(), child.Strategy(), time.Now().UTC()); err != nil {
			f.logger.Error("fork persistence failed", zap.String("belief_system_id", beliefSystemID), zap.Error(err))
			return res, fmt.Errorf("persist fork: %w", err)
		}
		f.logger.Info("belief system forked",
			zap.String("parent_id", beliefSystemID),
			zap.String("child_id", child.ID()),
			zap.String("strategy", string(child.Strategy())))
	}

	if err := f.adapter.RecordSimulation(ctx, rec); err != nil {
		f.logger.Error("simulation persistence failed",
			zap.String("belief_system_id", beliefSystemID),
			zap.String("simulation_id", rec.ID),
			zap.Error(err))
		return res, fmt.Errorf("persist simulation: %w", err)
	}

	f.logger.Info("simulation recorded",
		zap.String("belief_system_id", beliefSystemID),
		zap.String("simulation_id", rec.ID),
		zap.Int("introduced", len(statements)),
		zap.Int("derived", len(res.DerivedFacts)),
		zap.Int("contradictions", len(res.Contradictions)),
		zap.Bool("forked", res.Forked()))
	return res, nil
}

// Fork spawns an explicit child belief system, optionally overriding the
// strategy tag.
func (f *Fabricator) Fork(ctx context.Context, parentID, name string, strategy domain.ForkingStrategy) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, err := f.lookup(parentID)
	if err != nil {
		return "", err
	}
	child, err := parent.ForkManual(name, strategy)
	if err != nil {
		return "", err
	}
	f.systems[child.ID()] = child
	if err := f.adapter.ForkBeliefSystem(ctx, parentID, child.ID(), name, child.Strategy(), time.Now().UTC()); err != nil {
		return child.ID(), fmt.Errorf("persist fork: %w", err)
	}
	f.logger.Info("belief system forked",
		zap.String("parent_id", parentID),
		zap.String("child_id", child.ID()),
		zap.String("strategy", string(child.Strategy())))
	return child.ID(), nil
}

// History returns the persisted simulation records for a belief system.
func (f *Fabricator) History(ctx context.Context, beliefSystemID string) ([]*domain.SimulationRecord, error) {
	f.mu.Lock()
	_, err := f.lookup(beliefSystemID)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.adapter.GetSimulationHistory(ctx, beliefSystemID)
}

// Tensions reports latent rule conflicts for a belief system.
func (f *Fabricator) Tensions(beliefSystemID string) ([]domain.Tension, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bs, err := f.lookup(beliefSystemID)
	if err != nil {
		return nil, err
	}
	return bs.Tensions(f.tensionHops), nil
}

// Reset discards every registered belief system and starts a fresh root.
// Persisted history survives; only the live session registry is cleared.
func (f *Fabricator) Reset(ctx context.Context, name string, strategy domain.ForkingStrategy) (string, error) {
	f.mu.Lock()
	f.systems = make(map[string]*fabric.BeliefSystem)
	f.mu.Unlock()
	f.logger.Info("session reset")
	return f.CreateBeliefSystem(ctx, name, strategy)
}

// List returns the ids of every registered belief system.
func (f *Fabricator) List() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.systems))
	for id := range f.systems {
		ids = append(ids, id)
	}
	return ids
}
