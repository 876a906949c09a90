package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/Harshitk-cp/fabricator/internal/fabric"
	"github.com/Harshitk-cp/fabricator/internal/service"
	"github.com/Harshitk-cp/fabricator/internal/translator"
	"github.com/go-chi/chi/v5"
)

// BeliefHandler services the belief-system API surface.
type BeliefHandler struct {
	svc *service.Fabricator
}

func NewBeliefHandler(svc *service.Fabricator) *BeliefHandler {
	return &BeliefHandler{svc: svc}
}

type createBeliefSystemRequest struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy,omitempty"`
}

func (h *BeliefHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBeliefSystemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	strategy := domain.StrategyCoexist
	if req.Strategy != "" {
		var err error
		if strategy, err = domain.ParseStrategy(req.Strategy); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	id, err := h.svc.CreateBeliefSystem(r.Context(), req.Name, strategy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *BeliefHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.load(w, r)
	if !ok {
		return
	}
	parentID := ""
	if bs.Parent() != nil {
		parentID = bs.Parent().ID()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         bs.ID(),
		"name":       bs.Name(),
		"strategy":   bs.Strategy(),
		"rule_count": len(bs.Rules()),
		"fact_count": bs.FactCount(),
		"fork_count": len(bs.Forks()),
		"parent_id":  parentID,
	})
}

type addRuleRequest struct {
	RuleType    string                  `json:"rule_type"`
	Condition   *translator.IRCondition `json:"condition"`
	Consequence json.RawMessage         `json:"consequence"`
}

func (h *BeliefHandler) AddRule(w http.ResponseWriter, r *http.Request) {
	var req addRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rules, err := translator.TranslateRule(&translator.IRRule{
		RuleType:    req.RuleType,
		Condition:   req.Condition,
		Consequence: req.Consequence,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.AddRules(r.Context(), chi.URLParam(r, "id"), rules); err != nil {
		h.writeServiceError(w, err)
		return
	}
	ids := make([]string, len(rules))
	for i, rule := range rules {
		ids[i] = rule.ID()
	}
	writeJSON(w, http.StatusCreated, map[string]any{"rule_ids": ids})
}

type simulateRequest struct {
	Statements []*translator.IRStatement `json:"statements"`
}

func (h *BeliefHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Statements) == 0 {
		writeError(w, http.StatusBadRequest, "statements are required")
		return
	}
	statements := make([]*domain.Statement, len(req.Statements))
	for i, ir := range req.Statements {
		st, err := translator.TranslateStatement(ir)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		statements[i] = st
	}

	res, err := h.svc.Simulate(r.Context(), chi.URLParam(r, "id"), statements)
	if err != nil {
		if res != nil {
			// The simulation itself succeeded; only persistence failed. The
			// caller gets both the outcome and the error, and may retry.
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":  err.Error(),
				"result": renderResult(res),
			})
			return
		}
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderResult(res))
}

type forkRequest struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy,omitempty"`
}

func (h *BeliefHandler) Fork(w http.ResponseWriter, r *http.Request) {
	var req forkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	strategy := domain.ForkingStrategy("")
	if req.Strategy != "" {
		var err error
		if strategy, err = domain.ParseStrategy(req.Strategy); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	id, err := h.svc.Fork(r.Context(), chi.URLParam(r, "id"), req.Name, strategy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *BeliefHandler) Statements(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.load(w, r)
	if !ok {
		return
	}
	out := make([]map[string]any, 0)
	for _, st := range bs.Statements() {
		out = append(out, renderStatement(st))
	}
	writeJSON(w, http.StatusOK, map[string]any{"statements": out})
}

func (h *BeliefHandler) Rules(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.load(w, r)
	if !ok {
		return
	}
	out := make([]map[string]any, 0)
	for _, rule := range bs.Rules() {
		out = append(out, map[string]any{
			"id":           rule.ID(),
			"condition":    rule.Condition,
			"consequences": rule.Consequences,
			"text":         rule.String(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": out})
}

func (h *BeliefHandler) State(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"world_state": bs.World()})
}

func (h *BeliefHandler) Forks(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.load(w, r)
	if !ok {
		return
	}
	out := make([]map[string]any, 0)
	for _, f := range bs.Forks() {
		entry := map[string]any{
			"child_id": f.Child.ID(),
			"name":     f.Child.Name(),
			"strategy": f.Strategy,
		}
		if f.Contradiction != nil {
			entry["contradiction"] = map[string]any{
				"existing": renderStatement(f.Contradiction.Existing),
				"incoming": renderStatement(f.Contradiction.Incoming),
			}
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"forks": out})
}

func (h *BeliefHandler) Tensions(w http.ResponseWriter, r *http.Request) {
	tensions, err := h.svc.Tensions(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0)
	for _, t := range tensions {
		out = append(out, map[string]any{
			"rule_a":          t.RuleA.ID(),
			"rule_b":          t.RuleB.ID(),
			"witness_binding": t.Witness,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tensions": out})
}

func (h *BeliefHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

func (h *BeliefHandler) load(w http.ResponseWriter, r *http.Request) (*fabric.BeliefSystem, bool) {
	bs, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return nil, false
	}
	return bs, true
}

func (h *BeliefHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrBeliefSystemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, fabric.ErrDuplicateRule),
		errors.Is(err, fabric.ErrRuleHasOr),
		errors.Is(err, domain.ErrNonGroundStatement),
		errors.Is(err, domain.ErrUnknownStrategy):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func renderStatement(st *domain.Statement) map[string]any {
	return map[string]any{
		"verb":     st.Verb,
		"terms":    st.Terms,
		"negated":  st.Negated,
		"priority": st.Priority,
		"text":     st.String(),
	}
}

func renderResult(res *fabric.SimulationResult) map[string]any {
	derived := make([]map[string]any, 0, len(res.DerivedFacts))
	for _, st := range res.DerivedFacts {
		derived = append(derived, renderStatement(st))
	}
	contradictions := make([]map[string]any, 0, len(res.Contradictions))
	for _, c := range res.Contradictions {
		contradictions = append(contradictions, map[string]any{
			"existing": renderStatement(c.Existing),
			"incoming": renderStatement(c.Incoming),
			"strategy": c.Strategy,
		})
	}
	forked := make([]string, 0, len(res.ForkedBeliefs))
	for _, child := range res.ForkedBeliefs {
		forked = append(forked, child.ID())
	}
	return map[string]any{
		"derived_facts":      derived,
		"applied_rules":      res.AppliedRules,
		"effects_applied":    res.EffectsApplied,
		"world_state_before": res.WorldStateBefore,
		"world_state_after":  res.WorldStateAfter,
		"world_state_diff":   res.WorldStateDiff(),
		"contradictions":     contradictions,
		"forked_beliefs":     forked,
	}
}
