package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelvault/coverid/internal/models"
)

func scored(id int64, score float64) models.ScoredCandidate {
	return models.ScoredCandidate{
		CatalogCandidate: models.CatalogCandidate{
			ID:          id,
			SeriesName:  "Amazing Spider-Man",
			IssueNumber: "300",
			Publisher:   "Marvel",
			CoverDate:   "1988-05-01",
			CoverImages: []string{"asm-300.jpg"},
		},
		MatchScore: score,
	}
}

func ranked(scores ...float64) []models.ScoredCandidate {
	out := make([]models.ScoredCandidate, 0, len(scores))
	for i, s := range scores {
		out = append(out, scored(int64(i+1), s))
	}
	return out
}

func TestDecideEmptyIsNoMatch(t *testing.T) {
	t.Parallel()

	out := Decide(nil, 5)
	assert.Equal(t, KindNoMatch, out.Kind)
	assert.True(t, out.IsNoMatch())
	_, ok := out.Top()
	assert.False(t, ok)
}

func TestDecideLimitsChoices(t *testing.T) {
	t.Parallel()

	in := ranked(0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3)

	out := Decide(in, 3)
	require.Equal(t, KindChoices, out.Kind)
	require.Len(t, out.Choices, 3)
	assert.Equal(t, int64(1), out.Choices[0].ID)
	assert.False(t, out.AutoAcceptable)

	assert.Len(t, Decide(in[:2], 5).Choices, 2)
}

func TestDecideNeverExceedsMaxChoices(t *testing.T) {
	t.Parallel()

	in := ranked(0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2)

	for _, limit := range []int{0, -1} {
		out := Decide(in, limit)
		assert.Equal(t, KindNoMatch, out.Kind, "limit %d", limit)
		assert.Empty(t, out.Choices, "limit %d", limit)
		assert.True(t, out.IsNoMatch())
	}
	for limit := 1; limit <= len(in)+1; limit++ {
		assert.LessOrEqual(t, len(Decide(in, limit).Choices), limit)
	}

	p := DefaultPolicy()
	p.MaxChoices = 0
	assert.Len(t, p.Decide(in).Choices, DefaultPolicy().MaxChoices, "policy falls back to its default limit")
}

func TestPolicyDecideAutoAccept(t *testing.T) {
	t.Parallel()

	in := ranked(0.97, 0.4)

	assert.False(t, DefaultPolicy().Decide(in).AutoAcceptable, "auto-accept is off by default")

	p := DefaultPolicy()
	p.AutoAcceptScore = 0.95
	assert.True(t, p.Decide(in).AutoAcceptable)

	p.AutoAcceptScore = 0.98
	assert.False(t, p.Decide(in).AutoAcceptable)

	assert.False(t, p.Decide(nil).AutoAcceptable)
}

func TestPolicyLabels(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	assert.Equal(t, LabelHighMatch, p.Label(0.70))
	assert.Equal(t, LabelPossibleMatch, p.Label(0.6999))
	assert.Equal(t, LabelPossibleMatch, p.Label(0.49))
	assert.Equal(t, LabelPossibleMatch, p.Label(0.45))
	assert.Equal(t, LabelLowMatch, p.Label(0.4499))

	custom := Policy{HighMatchLabel: 0.9, PossibleMatchLabel: 0.6}
	assert.Equal(t, LabelPossibleMatch, custom.Label(0.8))
	assert.Equal(t, LabelLowMatch, custom.Label(0.5))
}

func TestPolicyNormalized(t *testing.T) {
	t.Parallel()

	d := DefaultPolicy()
	assert.Equal(t, d, Policy{}.Normalized())

	p := Policy{MaxChoices: -1, HighMatchLabel: 2, PossibleMatchLabel: -0.1, AutoAcceptScore: 1.5}.Normalized()
	assert.Equal(t, d, p)

	inverted := Policy{MaxChoices: 3, HighMatchLabel: 0.4, PossibleMatchLabel: 0.6}.Normalized()
	assert.Equal(t, 3, inverted.MaxChoices)
	assert.InDelta(t, d.HighMatchLabel, inverted.HighMatchLabel, 1e-9)
	assert.InDelta(t, d.PossibleMatchLabel, inverted.PossibleMatchLabel, 1e-9)
}

func TestTopMatch(t *testing.T) {
	t.Parallel()

	c := scored(42, 0.49)
	c.MatchPath = "title-only search"

	tm := DefaultPolicy().TopMatch(c)
	assert.Equal(t, models.TopMatch{
		ID:         42,
		Series:     "Amazing Spider-Man",
		Issue:      "300",
		Year:       1988,
		Publisher:  "Marvel",
		CoverImage: "asm-300.jpg",
		Confidence: 49,
		Label:      LabelPossibleMatch,
		Note:       "title-only search",
	}, tm)

	assert.Equal(t, 0, Percent(-0.2))
	assert.Equal(t, 100, Percent(1.3))
	assert.Equal(t, 87, Percent(0.8666))
}

func TestSessionChoiceFlow(t *testing.T) {
	t.Parallel()

	s := NewSession(DefaultPolicy())
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Begin())
	assert.Equal(t, StateScoring, s.State())

	out, err := s.Resolve(ranked(0.9, 0.6))
	require.NoError(t, err)
	assert.Len(t, out.Choices, 2)
	assert.Equal(t, StateAwaitingUserChoice, s.State())

	err = s.Select(99)
	require.ErrorIs(t, err, ErrUnknownCandidate)
	assert.Equal(t, StateAwaitingUserChoice, s.State())

	require.NoError(t, s.Select(2))
	assert.Equal(t, StateSelected, s.State())
	assert.True(t, s.State().Terminal())

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(2), sel.ID)

	require.ErrorIs(t, s.Select(1), ErrInvalidTransition)
	require.ErrorIs(t, s.Rescan(), ErrInvalidTransition)
	require.ErrorIs(t, s.RequestManualSearch(), ErrInvalidTransition)
	require.ErrorIs(t, s.Begin(), ErrInvalidTransition)
	sel, _ = s.Selected()
	assert.Equal(t, int64(2), sel.ID)
}

func TestSessionNoMatch(t *testing.T) {
	t.Parallel()

	s := NewSession(DefaultPolicy())
	require.NoError(t, s.Begin())
	out, err := s.Resolve(nil)
	require.NoError(t, err)
	assert.True(t, out.IsNoMatch())
	assert.Equal(t, StateNoConfidentMatch, s.State())

	require.ErrorIs(t, s.Select(1), ErrInvalidTransition)
	require.NoError(t, s.RequestManualSearch())
	assert.Equal(t, StateManualSearch, s.State())
	assert.True(t, s.State().Terminal())
}

func TestSessionAutoAccept(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	p.AutoAcceptScore = 0.9
	s := NewSession(p)
	require.NoError(t, s.Begin())
	_, err := s.Resolve(ranked(0.95, 0.5))
	require.NoError(t, err)

	assert.Equal(t, StateAutoAccepted, s.State())
	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(1), sel.ID)
	require.ErrorIs(t, s.Select(2), ErrInvalidTransition)
}

func TestSessionRescanAndManualSearch(t *testing.T) {
	t.Parallel()

	s := NewSession(DefaultPolicy())
	require.NoError(t, s.Begin())
	_, err := s.Resolve(ranked(0.6))
	require.NoError(t, err)

	require.NoError(t, s.Rescan())
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.Outcome().Choices)

	require.NoError(t, s.Begin())
	_, err = s.Resolve(ranked(0.7))
	require.NoError(t, err)
	require.NoError(t, s.RequestManualSearch())
	assert.Equal(t, StateManualSearch, s.State())
	assert.Empty(t, s.View().Choices)
}

func TestSessionResolveRequiresScoring(t *testing.T) {
	t.Parallel()

	s := NewSession(DefaultPolicy())
	_, err := s.Resolve(ranked(0.9))
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateIdle, s.State())
}

func TestSessionView(t *testing.T) {
	t.Parallel()

	s := NewSession(Policy{MaxChoices: 1})
	require.NoError(t, s.Begin())
	_, err := s.Resolve(ranked(0.75, 0.5))
	require.NoError(t, err)

	v := s.View()
	assert.Equal(t, StateAwaitingUserChoice, v.State)
	require.Len(t, v.Choices, 1)
	assert.Equal(t, LabelHighMatch, v.Choices[0].Label)
	assert.Equal(t, 75, v.Choices[0].Confidence)
	assert.Nil(t, v.Selected)

	require.NoError(t, s.Select(1))
	require.NotNil(t, s.View().Selected)
}

func TestSessionAbort(t *testing.T) {
	t.Parallel()

	s := NewSession(DefaultPolicy())
	require.ErrorIs(t, s.Abort(), ErrInvalidTransition)
	require.NoError(t, s.Begin())
	require.NoError(t, s.Abort())
	assert.Equal(t, StateIdle, s.State())
}
