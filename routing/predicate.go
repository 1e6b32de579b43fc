package routing

// Matches reports whether every key of the predicate holds against the
// ticket context (logical AND). A sequence-valued predicate entry matches by
// membership; a scalar entry matches by strict equality. A key whose path
// does not resolve fails the predicate. Pure function: same inputs, same
// result, no side effects.
func Matches(ticket *TicketContext, predicate map[string]any) bool {
	for path, want := range predicate {
		resolved := resolvePath(ticket, path)
		if resolved.Kind() == KindAbsent {
			return false
		}
		wanted := FromAny(want)
		if wanted.Kind() == KindSequence {
			if !wanted.Contains(resolved) {
				return false
			}
			continue
		}
		if !resolved.Equal(wanted) {
			return false
		}
	}
	return true
}

// FirstMatch returns the first rule whose predicate matches the ticket.
// Rules must already be ordered by Order ascending with insertion-order
// tiebreak; the store guarantees this, so the scan itself is the precedence.
// Rules with no assignees are skipped so a hand-edited row can never produce
// an empty decision.
func FirstMatch(rules []*Rule, ticket *TicketContext) *Rule {
	for _, rule := range rules {
		if len(rule.Assignees) == 0 {
			continue
		}
		if Matches(ticket, rule.Predicate) {
			return rule
		}
	}
	return nil
}
