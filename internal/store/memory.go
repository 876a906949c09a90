package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/fabricator/internal/domain"
)

// Memory is an in-process DatabaseAdapter. The workbench runs against it by
// default, and service tests use it in place of Postgres.
type Memory struct {
	mu            sync.Mutex
	beliefSystems map[string]memoryBeliefSystem
	rules         map[string]*domain.Rule
	containsRules map[string][]string
	simulations   map[string][]*domain.SimulationRecord
}

type memoryBeliefSystem struct {
	name      string
	strategy  domain.ForkingStrategy
	parentID  string
	createdAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		beliefSystems: make(map[string]memoryBeliefSystem),
		rules:         make(map[string]*domain.Rule),
		containsRules: make(map[string][]string),
		simulations:   make(map[string][]*domain.SimulationRecord),
	}
}

func (m *Memory) CreateBeliefSystem(_ context.Context, id, name string, strategy domain.ForkingStrategy, createdAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.beliefSystems[id]; ok {
		return fmt.Errorf("belief system %s already exists", id)
	}
	m.beliefSystems[id] = memoryBeliefSystem{name: name, strategy: strategy, createdAt: createdAt}
	return nil
}

func (m *Memory) ForkBeliefSystem(_ context.Context, parentID, childID, name string, strategy domain.ForkingStrategy, createdAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.beliefSystems[parentID]; !ok {
		return fmt.Errorf("parent belief system %s: %w", parentID, ErrNotFound)
	}
	m.beliefSystems[childID] = memoryBeliefSystem{name: name, strategy: strategy, parentID: parentID, createdAt: createdAt}
	m.containsRules[childID] = append([]string(nil), m.containsRules[parentID]...)
	return nil
}

func (m *Memory) AddRule(_ context.Context, beliefSystemID string, rule *domain.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.beliefSystems[beliefSystemID]; !ok {
		return fmt.Errorf("belief system %s: %w", beliefSystemID, ErrNotFound)
	}
	m.rules[rule.ID()] = rule
	for _, id := range m.containsRules[beliefSystemID] {
		if id == rule.ID() {
			return nil
		}
	}
	m.containsRules[beliefSystemID] = append(m.containsRules[beliefSystemID], rule.ID())
	return nil
}

func (m *Memory) RecordSimulation(_ context.Context, rec *domain.SimulationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.beliefSystems[rec.BeliefSystemID]; !ok {
		return fmt.Errorf("belief system %s: %w", rec.BeliefSystemID, ErrNotFound)
	}
	m.simulations[rec.BeliefSystemID] = append(m.simulations[rec.BeliefSystemID], rec)
	return nil
}

func (m *Memory) GetSimulationHistory(_ context.Context, beliefSystemID string) ([]*domain.SimulationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.beliefSystems[beliefSystemID]; !ok {
		return nil, fmt.Errorf("belief system %s: %w", beliefSystemID, ErrNotFound)
	}
	return append([]*domain.SimulationRecord(nil), m.simulations[beliefSystemID]...), nil
}

// RuleCount reports how many distinct rules the graph holds; identical logic
// is a single node.
func (m *Memory) RuleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rules)
}

func (m *Memory) Close() {}
