package decision

import "github.com/panelvault/coverid/internal/models"

// OutcomeKind tags an Outcome.
type OutcomeKind string

const (
	KindNoMatch OutcomeKind = "no_match"
	KindChoices OutcomeKind = "choices"
)

// Outcome is either NoMatch or a non-empty list of choices, best first.
type Outcome struct {
	Kind    OutcomeKind
	Choices []models.ScoredCandidate
	// AutoAcceptable is set only by Policy.Decide, when the caller opted into
	// auto-accept and the top choice cleared the threshold.
	AutoAcceptable bool
}

// IsNoMatch reports whether nothing can be offered.
func (o Outcome) IsNoMatch() bool {
	return o.Kind != KindChoices || len(o.Choices) == 0
}

// Top returns the best choice.
func (o Outcome) Top() (models.ScoredCandidate, bool) {
	if o.IsNoMatch() {
		return models.ScoredCandidate{}, false
	}
	return o.Choices[0], true
}

// Decide keeps at most maxChoices of an already ranked list. It is NoMatch
// when the list is empty or maxChoices is not positive.
func Decide(ranked []models.ScoredCandidate, maxChoices int) Outcome {
	n := min(len(ranked), max(maxChoices, 0))
	if n == 0 {
		return Outcome{Kind: KindNoMatch}
	}

	choices := make([]models.ScoredCandidate, n)
	copy(choices, ranked[:n])

	return Outcome{Kind: KindChoices, Choices: choices}
}

// Decide applies the policy's choice limit and auto-accept threshold.
func (p Policy) Decide(ranked []models.ScoredCandidate) Outcome {
	p = p.normalized()

	out := Decide(ranked, p.MaxChoices)
	if top, ok := out.Top(); ok && p.AutoAcceptScore > 0 && top.MatchScore >= p.AutoAcceptScore {
		out.AutoAcceptable = true
	}
	return out
}
