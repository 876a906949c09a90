package fabric

import "github.com/Harshitk-cp/fabricator/internal/domain"

// factSet is an insertion-ordered set of ground statements keyed by content
// identity. Insertion order is what makes derived-fact ordering and leaf
// evaluation deterministic.
type factSet struct {
	order []*domain.Statement
	index map[string]*domain.Statement
}

func newFactSet() *factSet {
	return &factSet{index: make(map[string]*domain.Statement)}
}

func (f *factSet) has(s *domain.Statement) bool {
	_, ok := f.index[s.ID()]
	return ok
}

// add inserts a statement unless a content-equal one is present.
func (f *factSet) add(s *domain.Statement) bool {
	id := s.ID()
	if _, ok := f.index[id]; ok {
		return false
	}
	f.order = append(f.order, s)
	f.index[id] = s
	return true
}

// contradicts returns the held statement that is the content-equal negation
// of s, or nil.
func (f *factSet) contradicts(s *domain.Statement) *domain.Statement {
	opposite := s.Clone()
	opposite.Negated = !s.Negated
	return f.index[opposite.ID()]
}

// setPriority swaps in a copy of the held content-equal statement carrying
// the given priority. Priority is metadata, so the content identity is
// untouched.
func (f *factSet) setPriority(s *domain.Statement, priority int) {
	held, ok := f.index[s.ID()]
	if !ok {
		return
	}
	adjusted := held.Clone()
	adjusted.Priority = priority
	f.index[adjusted.ID()] = adjusted
	for i, st := range f.order {
		if st == held {
			f.order[i] = adjusted
			return
		}
	}
}

func (f *factSet) list() []*domain.Statement {
	return f.order
}

func (f *factSet) snapshot() []*domain.Statement {
	out := make([]*domain.Statement, len(f.order))
	for i, s := range f.order {
		out[i] = s.Clone()
	}
	return out
}

func (f *factSet) clone() *factSet {
	c := newFactSet()
	for _, s := range f.order {
		c.add(s.Clone())
	}
	return c
}

func (f *factSet) size() int { return len(f.order) }
