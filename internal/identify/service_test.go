package identify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelvault/coverid/internal/catalog"
	"github.com/panelvault/coverid/internal/decision"
	"github.com/panelvault/coverid/internal/models"
)

const asm300 = "AMAZING SPIDER-MAN\n#300\nMARVEL COMICS\n1988\nCGC 9.8\nSN 12345678"

type recordingSource struct {
	src     catalog.Source
	err     error
	queries []catalog.Query
}

func (r *recordingSource) Search(ctx context.Context, q catalog.Query) ([]catalog.Record, error) {
	r.queries = append(r.queries, q)
	if r.err != nil {
		return nil, r.err
	}
	return r.src.Search(ctx, q)
}

func newSource(records ...catalog.Record) *recordingSource {
	return &recordingSource{src: catalog.NewFileSource(records)}
}

var spiderMan = []catalog.Record{
	{ID: 300, Volume: "The Amazing Spider-Man", IssueNumber: "300", Publisher: "Marvel", CoverDate: "1988-05-01"},
	{ID: 299, Volume: "The Amazing Spider-Man", IssueNumber: "299", Publisher: "Marvel", CoverDate: "1988-04-01"},
}

func TestIdentifyPrimaryQuery(t *testing.T) {
	t.Parallel()

	src := newSource(spiderMan...)
	res, err := NewService(src).Identify(context.Background(), asm300)
	require.NoError(t, err)

	require.Len(t, src.queries, 1)
	assert.Equal(t, "AMAZING SPIDER-MAN #300", res.Query)
	assert.Equal(t, ReasonNone, res.Reason)

	require.Len(t, res.Ranked, 1)
	top, ok := res.Outcome.Top()
	require.True(t, ok)
	assert.Equal(t, int64(300), top.ID)
	assert.Equal(t, models.TierHigh, top.Tier)
	assert.Empty(t, top.MatchPath)
	assert.False(t, res.Outcome.AutoAcceptable)
}

func TestIdentifyFallsBackToTitleOnly(t *testing.T) {
	t.Parallel()

	src := newSource(spiderMan[1])
	res, err := NewService(src).Identify(context.Background(), asm300)
	require.NoError(t, err)

	require.Len(t, src.queries, 2)
	assert.Equal(t, "300", src.queries[0].Issue)
	assert.Empty(t, src.queries[1].Issue)
	assert.Equal(t, "AMAZING SPIDER-MAN", res.Query)

	require.Len(t, res.Ranked, 1)
	got := res.Ranked[0]
	assert.Equal(t, MatchPathTitleOnly, got.MatchPath)
	assert.True(t, got.Penalized)
	assert.LessOrEqual(t, got.MatchScore, 0.49)

	tm := NewService(src).Policy().TopMatch(got)
	assert.Equal(t, MatchPathTitleOnly, tm.Note)
}

func TestIdentifyNoCandidates(t *testing.T) {
	t.Parallel()

	res, err := NewService(newSource(spiderMan...)).Identify(context.Background(), "WATCHMEN\n#1")
	require.NoError(t, err)
	assert.Equal(t, ReasonNoCandidates, res.Reason)
	assert.True(t, res.Outcome.IsNoMatch())
}

func TestIdentifyEmptyScan(t *testing.T) {
	t.Parallel()

	src := newSource(spiderMan...)
	res, err := NewService(src).Identify(context.Background(), "  \n ")
	require.NoError(t, err)
	assert.Empty(t, src.queries)
	assert.Equal(t, ReasonNoOCRText, res.Reason)
	assert.True(t, res.Outcome.IsNoMatch())
}

func TestIdentifyCatalogUnavailable(t *testing.T) {
	t.Parallel()

	src := newSource(spiderMan...)
	src.err = errors.New("connection refused")

	_, err := NewService(src).Identify(context.Background(), asm300)
	require.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIdentifyInto(t *testing.T) {
	t.Parallel()

	svc := NewService(newSource(spiderMan...), WithPolicy(decision.Policy{AutoAcceptScore: 0.9}))

	session := decision.NewSession(svc.Policy())
	_, err := svc.IdentifyInto(context.Background(), session, asm300)
	require.NoError(t, err)
	assert.Equal(t, decision.StateAutoAccepted, session.State())

	_, err = svc.IdentifyInto(context.Background(), session, asm300)
	require.ErrorIs(t, err, decision.ErrInvalidTransition)
}

func TestIdentifyIntoCatalogFailureResetsSession(t *testing.T) {
	t.Parallel()

	src := newSource()
	src.err = catalog.ErrCatalogUnavailable
	svc := NewService(src)

	session := decision.NewSession(svc.Policy())
	_, err := svc.IdentifyInto(context.Background(), session, asm300)
	require.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
	assert.Equal(t, decision.StateIdle, session.State())
}

func TestEvaluateSkipsMalformed(t *testing.T) {
	t.Parallel()

	svc := NewService(newSource(), WithLimit(5))
	res := svc.Evaluate(models.ExtractedTokens{Title: "SAGA"}, []models.CatalogCandidate{
		{ID: 1, SeriesName: "Saga"},
	})
	assert.Empty(t, res.Ranked)
	assert.Equal(t, ReasonNoCandidates, res.Reason)
}

func TestReplay(t *testing.T) {
	t.Parallel()

	svc := NewService(nil)
	candidates := catalog.Candidates(spiderMan, "")

	res := svc.Replay(asm300, candidates)
	assert.Equal(t, "AMAZING SPIDER-MAN #300", res.Query)
	require.Len(t, res.Ranked, 2)
	assert.Equal(t, int64(300), res.Ranked[0].ID)
	assert.True(t, res.Ranked[1].Penalized)

	blank := svc.Replay(" ", candidates)
	assert.Empty(t, blank.Ranked)
	assert.Empty(t, blank.Query)
	assert.Equal(t, ReasonNoOCRText, blank.Reason)
	assert.True(t, blank.Outcome.IsNoMatch())
}
