package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/panelvault/coverid/internal/models"
)

func TestScoreAndRankTieKeepsInputOrder(t *testing.T) {
	t.Parallel()

	tokens := models.ExtractedTokens{Title: "BATMAN", IssueNumber: ptr("1")}
	candidates := []models.CatalogCandidate{
		{ID: 10, SeriesName: "Batman", IssueNumber: "1", CoverDate: "1940-04-01"},
		{ID: 20, SeriesName: "Batman", IssueNumber: "1", CoverDate: "2011-11-01"},
	}

	ranked := ScoreAndRank(candidates, tokens)

	require.Len(t, ranked, 2)
	assert.InDelta(t, ranked[0].MatchScore, ranked[1].MatchScore, 1e-12)
	assert.Equal(t, int64(10), ranked[0].ID)
	assert.Equal(t, int64(20), ranked[1].ID)
}

func TestScoreAndRankOrdersByScore(t *testing.T) {
	t.Parallel()

	tokens := models.ExtractedTokens{
		Title:       "AMAZING SPIDER-MAN",
		IssueNumber: ptr("300"),
		Publisher:   ptr("Marvel"),
		Year:        ptr(1988),
	}
	candidates := []models.CatalogCandidate{
		{ID: 1, SeriesName: "Spawn", IssueNumber: "300", Publisher: "Image"},
		{ID: 2, SeriesName: "Amazing Spider-Man", IssueNumber: "299", Publisher: "Marvel", CoverDate: "1988-04-01"},
		{ID: 3, SeriesName: "Amazing Spider-Man", IssueNumber: "300", Publisher: "Marvel", CoverDate: "1988-05-01"},
	}

	ranked := ScoreAndRank(candidates, tokens)

	require.Len(t, ranked, 3)
	assert.Equal(t, int64(3), ranked[0].ID)
	assert.Equal(t, models.TierHigh, ranked[0].Tier)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].MatchScore, ranked[i].MatchScore)
	}
}

func TestScoreAndRankSkipsMalformed(t *testing.T) {
	t.Parallel()

	tokens := models.ExtractedTokens{Title: "SAGA", IssueNumber: ptr("1")}
	candidates := []models.CatalogCandidate{
		{ID: 1, SeriesName: "Saga", IssueNumber: ""},
		{ID: 2, SeriesName: "   ", IssueNumber: "1"},
		{ID: 3, SeriesName: "Saga", IssueNumber: "1"},
	}

	ranked := ScoreAndRank(candidates, tokens)

	require.Len(t, ranked, 1)
	assert.Equal(t, int64(3), ranked[0].ID)
}

func TestScoreAndRankAcceptsZeroID(t *testing.T) {
	t.Parallel()

	tokens := models.ExtractedTokens{Title: "SAGA", IssueNumber: ptr("1")}
	candidates := []models.CatalogCandidate{
		{ID: 0, SeriesName: "Saga", IssueNumber: "1"},
	}

	ranked := ScoreAndRank(candidates, tokens)

	require.Len(t, ranked, 1)
	assert.Equal(t, int64(0), ranked[0].ID)
	assert.NoError(t, candidates[0].Validate())
}

func TestScoreAndRankEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ScoreAndRank(nil, models.ExtractedTokens{}))
}

func TestScoreAndRankParallelMatchesSerial(t *testing.T) {
	t.Parallel()

	tokens := models.ExtractedTokens{Title: "X-MEN", IssueNumber: ptr("7"), Year: ptr(1990)}
	candidates := make([]models.CatalogCandidate, 0, 200)
	for i := range 200 {
		candidates = append(candidates, models.CatalogCandidate{
			ID:          int64(i + 1),
			SeriesName:  []string{"X-Men", "Uncanny X-Men", "X-Force", "New Mutants"}[i%4],
			IssueNumber: fmt.Sprint(i % 10),
			CoverDate:   fmt.Sprintf("%d-01-01", 1985+i%10),
		})
	}

	ranked := ScoreAndRank(candidates, tokens)
	require.Len(t, ranked, len(candidates))

	serial := make([]models.ScoredCandidate, 0, 10)
	for _, c := range candidates[:10] {
		serial = append(serial, Score(c, tokens))
	}
	byID := make(map[int64]models.ScoredCandidate, len(ranked))
	for _, r := range ranked {
		byID[r.ID] = r
	}
	for _, s := range serial {
		assert.Equal(t, s, byID[s.ID])
	}
	for i := 1; i < len(ranked); i++ {
		require.GreaterOrEqual(t, ranked[i-1].MatchScore, ranked[i].MatchScore)
	}
}

func TestPropertyRankingStable(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		tokens := tokensGen().Draw(t, "tokens")
		candidates := rapid.SliceOfN(candidateGen(), 0, 20).Draw(t, "candidates")
		for i := range candidates {
			candidates[i].ID = int64(i + 1)
		}

		ranked := ScoreAndRank(candidates, tokens)
		if len(ranked) != len(candidates) {
			t.Fatalf("ranked %d of %d candidates", len(ranked), len(candidates))
		}
		for i := 1; i < len(ranked); i++ {
			prev, cur := ranked[i-1], ranked[i]
			if prev.MatchScore < cur.MatchScore {
				t.Fatalf("not descending at %d", i)
			}
			if prev.MatchScore == cur.MatchScore && prev.ID > cur.ID {
				t.Fatalf("tie at %d reordered: %d before %d", i, prev.ID, cur.ID)
			}
		}

		again := ScoreAndRank(candidates, tokens)
		if len(again) != len(ranked) {
			t.Fatalf("non-deterministic length")
		}
		for i := range ranked {
			if again[i].ID != ranked[i].ID || again[i].MatchScore != ranked[i].MatchScore {
				t.Fatalf("non-deterministic order at %d", i)
			}
		}
	})
}
