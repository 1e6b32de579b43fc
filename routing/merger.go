package routing

// confidenceThreshold is the fixed bar above which an advisor suggestion may
// reorder the assignee list. Below or at it, rules stand unchanged.
const confidenceThreshold = 0.8

// Merge combines the rule-derived and advisor-derived assignee lists into one
// ordered, de-duplicated result. The advisor's top pick becomes primary owner
// only above the confidence bar and only if whitelisted; rule-derived
// assignees are never dropped, only reordered after the advisor's pick.
// Deterministic: same inputs, same output.
func Merge(ruleAssignees, advisorAssignees []string, confidence float64, validAssignees map[string]bool) []string {
	if confidence <= confidenceThreshold || len(advisorAssignees) == 0 {
		return ruleAssignees
	}

	var merged []string
	seen := make(map[string]bool)
	appendOnce := func(assignee string) {
		if assignee == "" || seen[assignee] {
			return
		}
		seen[assignee] = true
		merged = append(merged, assignee)
	}

	// 1. The advisor's first suggestion leads, if whitelisted.
	if validAssignees[advisorAssignees[0]] {
		appendOnce(advisorAssignees[0])
	}

	// 2. Rule-based assignees follow in their original order.
	for _, assignee := range ruleAssignees {
		appendOnce(assignee)
	}

	// 3. Remaining whitelisted advisor suggestions trail.
	for _, assignee := range advisorAssignees[1:] {
		if validAssignees[assignee] {
			appendOnce(assignee)
		}
	}

	if len(merged) == 0 {
		return []string{DefaultQueue}
	}
	return merged
}
