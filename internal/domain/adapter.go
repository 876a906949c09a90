package domain

import (
	"context"
	"time"
)

// DatabaseAdapter persists the causal graph of belief systems, rules,
// statements, and simulations. Every method is a single atomic write (or
// read); rules and statements are merged by content so identical logic is a
// single node across the graph.
//
// The adapter is the only component allowed to cross a concurrency boundary;
// the engine itself never interleaves simulations against one belief system.
type DatabaseAdapter interface {
	CreateBeliefSystem(ctx context.Context, id, name string, strategy ForkingStrategy, createdAt time.Time) error
	ForkBeliefSystem(ctx context.Context, parentID, childID, name string, strategy ForkingStrategy, createdAt time.Time) error
	AddRule(ctx context.Context, beliefSystemID string, rule *Rule) error
	RecordSimulation(ctx context.Context, rec *SimulationRecord) error
	GetSimulationHistory(ctx context.Context, beliefSystemID string) ([]*SimulationRecord, error)
	Close()
}
