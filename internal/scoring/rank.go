package scoring

import (
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/panelvault/coverid/internal/models"
)

// parallelThreshold is the batch size from which candidates are scored on
// several workers. Smaller batches are scored inline.
const parallelThreshold = 64

// ScoreAndRank scores every well-formed candidate and sorts them by match score,
// best first. Equal scores keep their input order. Candidates missing an issue
// number or series name are skipped with a warning.
func ScoreAndRank(candidates []models.CatalogCandidate, tokens models.ExtractedTokens) []models.ScoredCandidate {
	valid := make([]models.CatalogCandidate, 0, len(candidates))
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			log.Warn().Err(err).Int64("candidate_id", c.ID).Msg("skipping candidate")
			continue
		}
		valid = append(valid, c)
	}

	scored := make([]models.ScoredCandidate, len(valid))
	if len(valid) >= parallelThreshold {
		workers := min(runtime.GOMAXPROCS(0), len(valid))
		var wg sync.WaitGroup
		for w := range workers {
			wg.Go(func() {
				for i := w; i < len(valid); i += workers {
					scored[i] = Score(valid[i], tokens)
				}
			})
		}
		wg.Wait()
	} else {
		for i, c := range valid {
			scored[i] = Score(c, tokens)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})

	return scored
}
