package stage

// Condition is one "still interested" predicate and the stage that owns it.
type Condition struct {
	Owner string
	Fn    func() bool
}

// Chain is an immutable AND of conditions. The zero value is always active.
//
// Conditions may close over stage-local state, so Active may change between
// calls, but the set of conditions never does: Extend returns a new chain.
type Chain struct {
	conds []Condition
}

// NewChain builds a chain from conditions.
func NewChain(conds ...Condition) Chain {
	return Chain{}.extend(conds)
}

// Extend returns a chain holding the receiver's conditions plus fn, owned by owner.
func (c Chain) Extend(owner string, fn func() bool) Chain {
	return c.extend([]Condition{{Owner: owner, Fn: fn}})
}

func (c Chain) extend(extra []Condition) Chain {
	conds := make([]Condition, 0, len(c.conds)+len(extra))
	conds = append(conds, c.conds...)
	for _, cond := range extra {
		if cond.Fn != nil {
			conds = append(conds, cond)
		}
	}
	return Chain{conds: conds}
}

// Active reports whether every condition holds. Evaluation stops at the
// first false condition.
func (c Chain) Active() bool {
	for _, cond := range c.conds {
		if !cond.Fn() {
			return false
		}
	}
	return true
}

// Inactive returns the owners whose condition currently reports false.
func (c Chain) Inactive() []string {
	var owners []string
	for _, cond := range c.conds {
		if !cond.Fn() {
			owners = append(owners, cond.Owner)
		}
	}
	return owners
}

// Owners lists the owners of all conditions, upstream-most last.
func (c Chain) Owners() []string {
	owners := make([]string, len(c.conds))
	for i, cond := range c.conds {
		owners[i] = cond.Owner
	}
	return owners
}

// Len returns the number of conditions.
func (c Chain) Len() int { return len(c.conds) }
