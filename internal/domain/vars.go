package domain

// OutwardVars returns the variable names a condition exposes to rule
// consequences. Only LEAF and AND nodes contribute bindings outward;
// quantified nodes (EXISTS, FORALL, NONE, COUNT) never leak their inner
// bindings. A greedy wildcard "*w" exposes the variable "?w". OR exposes the
// intersection of its children, since a consequence may only rely on
// variables bound in every disjunct.
func (c *Condition) OutwardVars() map[string]bool {
	switch c.Op {
	case OpLeaf:
		vars := make(map[string]bool)
		for _, t := range c.Terms {
			if IsVariable(t) {
				vars[t] = true
			} else if IsWildcard(t) {
				vars["?"+t[1:]] = true
			}
		}
		return vars
	case OpAnd:
		vars := make(map[string]bool)
		for _, child := range c.Children {
			for v := range child.OutwardVars() {
				vars[v] = true
			}
		}
		return vars
	case OpOr:
		var vars map[string]bool
		for _, child := range c.Children {
			cv := child.OutwardVars()
			if vars == nil {
				vars = cv
				continue
			}
			for v := range vars {
				if !cv[v] {
					delete(vars, v)
				}
			}
		}
		if vars == nil {
			vars = make(map[string]bool)
		}
		return vars
	}
	return make(map[string]bool)
}
