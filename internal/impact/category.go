package impact

// Categorize classifies a match from its outcome and the averaged impacts.
// A tie counts as the player not being higher than their team.
func Categorize(outcome Outcome, yourImpact, teamImpact float64) Category {
	higher := yourImpact > teamImpact

	switch {
	case outcome == Victory && higher:
		return ImpactWins
	case outcome == Defeat && !higher:
		return ImpactLosses
	case outcome == Victory:
		return GuaranteedWins
	}
	return GuaranteedLosses
}

// Counts tallies categorized matches.
type Counts struct {
	ImpactWins       int `json:"impactWins"`
	ImpactLosses     int `json:"impactLosses"`
	GuaranteedWins   int `json:"guaranteedWins"`
	GuaranteedLosses int `json:"guaranteedLosses"`
}

// Total is the number of matches counted.
func (c Counts) Total() int {
	return c.ImpactWins + c.ImpactLosses + c.GuaranteedWins + c.GuaranteedLosses
}

// Add counts one match in category. Unknown categories are ignored.
func (c *Counts) Add(category Category) {
	switch category {
	case ImpactWins:
		c.ImpactWins++
	case ImpactLosses:
		c.ImpactLosses++
	case GuaranteedWins:
		c.GuaranteedWins++
	case GuaranteedLosses:
		c.GuaranteedLosses++
	}
}

// CountCategories tallies categories.
func CountCategories(categories []Category) Counts {
	var c Counts
	for _, category := range categories {
		c.Add(category)
	}
	return c
}
