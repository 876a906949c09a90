package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres renders the causal graph onto relational tables (schema in
// scripts/schema.sql). Rules and statements are merged by content id;
// recording a simulation is a single transaction.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateBeliefSystem(ctx context.Context, id, name string, strategy domain.ForkingStrategy, createdAt time.Time) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO belief_systems (id, name, strategy, created_at)
		 VALUES ($1, $2, $3, $4)`,
		id, name, string(strategy), createdAt,
	)
	return err
}

func (s *Postgres) ForkBeliefSystem(ctx context.Context, parentID, childID, name string, strategy domain.ForkingStrategy, createdAt time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO belief_systems (id, name, strategy, parent_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		childID, name, string(strategy), parentID, createdAt,
	)
	if err != nil {
		return err
	}

	// The child inherits the parent's rules; mirror the CONTAINS edges.
	_, err = tx.Exec(ctx,
		`INSERT INTO belief_system_rules (belief_system_id, rule_id)
		 SELECT $1, rule_id FROM belief_system_rules WHERE belief_system_id = $2
		 ON CONFLICT DO NOTHING`,
		childID, parentID,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Postgres) AddRule(ctx context.Context, beliefSystemID string, rule *domain.Rule) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO rules (id, condition_json, consequences_json)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		rule.ID(), rule.ConditionJSON(), rule.ConsequencesJSON(),
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO belief_system_rules (belief_system_id, rule_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		beliefSystemID, rule.ID(),
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Postgres) RecordSimulation(ctx context.Context, rec *domain.SimulationRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var forkedID *string
	if rec.ForkedBeliefSystemID != "" {
		forkedID = &rec.ForkedBeliefSystemID
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO simulations (id, belief_system_id, forked_belief_system_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.BeliefSystemID, forkedID, rec.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err := linkStatements(ctx, tx, rec.ID, "INTRODUCED", rec.Introduced); err != nil {
		return err
	}
	if err := linkStatements(ctx, tx, rec.ID, "DERIVED_FACT", rec.Derived); err != nil {
		return err
	}

	for i, ar := range rec.AppliedRules {
		_, err = tx.Exec(ctx,
			`INSERT INTO simulation_rules (simulation_id, rule_id, binding_json, position)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT DO NOTHING`,
			rec.ID, ar.RuleID, ar.Binding.JSON(), i,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func linkStatements(ctx context.Context, tx pgx.Tx, simulationID, relation string, statements []*domain.Statement) error {
	for i, st := range statements {
		_, err := tx.Exec(ctx,
			`INSERT INTO statements (id, verb, terms_json, negated, priority)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			st.ID(), st.Verb, st.TermsJSON(), st.Negated, st.Priority,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO simulation_statements (simulation_id, statement_id, relation, position)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT DO NOTHING`,
			simulationID, st.ID(), relation, i,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Postgres) GetSimulationHistory(ctx context.Context, beliefSystemID string) ([]*domain.SimulationRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, forked_belief_system_id, created_at
		 FROM simulations WHERE belief_system_id = $1
		 ORDER BY created_at, id`,
		beliefSystemID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.SimulationRecord
	for rows.Next() {
		rec := &domain.SimulationRecord{BeliefSystemID: beliefSystemID}
		var forkedID *string
		if err := rows.Scan(&rec.ID, &forkedID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if forkedID != nil {
			rec.ForkedBeliefSystemID = *forkedID
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.Introduced, err = s.statementsFor(ctx, rec.ID, "INTRODUCED"); err != nil {
			return nil, err
		}
		if rec.Derived, err = s.statementsFor(ctx, rec.ID, "DERIVED_FACT"); err != nil {
			return nil, err
		}
		if rec.AppliedRules, err = s.appliedRulesFor(ctx, rec.ID); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *Postgres) statementsFor(ctx context.Context, simulationID, relation string) ([]*domain.Statement, error) {
	rows, err := s.db.Query(ctx,
		`SELECT st.verb, st.terms_json, st.negated, st.priority
		 FROM simulation_statements ss
		 JOIN statements st ON st.id = ss.statement_id
		 WHERE ss.simulation_id = $1 AND ss.relation = $2
		 ORDER BY ss.position`,
		simulationID, relation,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Statement
	for rows.Next() {
		var verb, termsJSON string
		var negated bool
		var priority int
		if err := rows.Scan(&verb, &termsJSON, &negated, &priority); err != nil {
			return nil, err
		}
		st, err := domain.StatementFromJSON(verb, termsJSON, negated, priority)
		if err != nil {
			return nil, fmt.Errorf("rebuild statement: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Postgres) appliedRulesFor(ctx context.Context, simulationID string) ([]domain.AppliedRule, error) {
	rows, err := s.db.Query(ctx,
		`SELECT rule_id, binding_json
		 FROM simulation_rules WHERE simulation_id = $1
		 ORDER BY position`,
		simulationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AppliedRule
	for rows.Next() {
		var ruleID, bindingJSON string
		if err := rows.Scan(&ruleID, &bindingJSON); err != nil {
			return nil, err
		}
		binding := domain.Binding{}
		if err := json.Unmarshal([]byte(bindingJSON), &binding); err != nil {
			return nil, fmt.Errorf("rebuild binding: %w", err)
		}
		out = append(out, domain.AppliedRule{RuleID: ruleID, Binding: binding})
	}
	return out, rows.Err()
}

func (s *Postgres) Close() {
	s.db.Close()
}
