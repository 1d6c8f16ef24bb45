// Package identify runs a scan through extraction, the catalog lookup, scoring
// and the decision policy.
package identify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/panelvault/coverid/internal/catalog"
	"github.com/panelvault/coverid/internal/decision"
	"github.com/panelvault/coverid/internal/extraction"
	"github.com/panelvault/coverid/internal/models"
	"github.com/panelvault/coverid/internal/scoring"
)

// MatchPathTitleOnly marks candidates found by dropping the issue from the query.
const MatchPathTitleOnly = "matched on title only; issue not found in catalog"

// Reason explains an empty result. It is not an error.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonNoOCRText    Reason = "no_ocr_text"
	ReasonNoCandidates Reason = "no_candidates"
)

// Result is everything known about one identified scan.
type Result struct {
	Tokens  models.ExtractedTokens
	Query   string
	Ranked  []models.ScoredCandidate
	Outcome decision.Outcome
	Reason  Reason
}

// Service identifies scans against a catalog.
type Service struct {
	source catalog.Source
	policy decision.Policy
	limit  int
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy sets the decision policy.
func WithPolicy(p decision.Policy) Option {
	return func(s *Service) { s.policy = p.Normalized() }
}

// WithLimit caps the records fetched per catalog query.
func WithLimit(n int) Option {
	return func(s *Service) { s.limit = n }
}

func NewService(source catalog.Source, opts ...Option) *Service {
	s := &Service{
		source: source,
		policy: decision.DefaultPolicy(),
		limit:  catalog.DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the decision policy in use.
func (s *Service) Policy() decision.Policy { return s.policy }

// Identify extracts tokens from raw, fetches candidates and decides. The only
// error is a failed catalog fetch, wrapped in catalog.ErrCatalogUnavailable.
func (s *Service) Identify(ctx context.Context, raw string) (Result, error) {
	tokens := extraction.ExtractTokens(raw)
	candidates, query, err := s.fetch(ctx, tokens)
	if err != nil {
		return Result{Tokens: tokens, Query: query}, err
	}

	res := s.Evaluate(tokens, candidates)
	res.Query = query
	if strings.TrimSpace(raw) == "" {
		res.Reason = ReasonNoOCRText
	}

	log.Debug().
		Str("query", query).
		Int("candidates", len(candidates)).
		Int("ranked", len(res.Ranked)).
		Str("outcome", string(res.Outcome.Kind)).
		Msg("identified scan")
	return res, nil
}

// Evaluate scores already fetched candidates against tokens and decides.
func (s *Service) Evaluate(tokens models.ExtractedTokens, candidates []models.CatalogCandidate) Result {
	ranked := scoring.ScoreAndRank(candidates, tokens)
	res := Result{
		Tokens:  tokens,
		Ranked:  ranked,
		Outcome: s.policy.Decide(ranked),
	}
	if len(ranked) == 0 {
		res.Reason = ReasonNoCandidates
	}
	return res
}

// Replay runs Identify against candidates a catalog already returned for raw,
// without searching. A scan with no title gets no candidates, as Identify
// would not have queried the catalog.
func (s *Service) Replay(raw string, candidates []models.CatalogCandidate) Result {
	tokens := extraction.ExtractTokens(raw)
	if tokens.Title == "" {
		candidates = nil
	}

	res := s.Evaluate(tokens, candidates)
	if tokens.Title != "" {
		res.Query = s.query(tokens).String()
	}
	if strings.TrimSpace(raw) == "" {
		res.Reason = ReasonNoOCRText
	}
	return res
}

// IdentifyInto runs Identify and settles session with the outcome. The session
// must be idle. On a catalog failure the session goes back to idle.
func (s *Service) IdentifyInto(ctx context.Context, session *decision.Session, raw string) (Result, error) {
	if err := session.Begin(); err != nil {
		return Result{}, err
	}

	res, err := s.Identify(ctx, raw)
	if err != nil {
		if abortErr := session.Abort(); abortErr != nil {
			return res, errors.Join(err, abortErr)
		}
		return res, err
	}

	if _, err := session.Resolve(res.Ranked); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Service) fetch(ctx context.Context, tokens models.ExtractedTokens) ([]models.CatalogCandidate, string, error) {
	if tokens.Title == "" {
		return nil, "", nil
	}

	q := s.query(tokens)
	records, err := s.search(ctx, q)
	if err != nil {
		return nil, q.String(), err
	}
	if len(records) > 0 || q.Issue == "" {
		return catalog.Candidates(records, ""), q.String(), nil
	}

	fallback := catalog.Query{Title: q.Title, Limit: s.limit}
	log.Debug().Str("query", q.String()).Str("fallback", fallback.String()).Msg("no catalog hits, retrying without issue")

	records, err = s.search(ctx, fallback)
	if err != nil {
		return nil, fallback.String(), err
	}
	return catalog.Candidates(records, MatchPathTitleOnly), fallback.String(), nil
}

func (s *Service) query(tokens models.ExtractedTokens) catalog.Query {
	q := catalog.Query{Title: tokens.Title, Limit: s.limit}
	if tokens.HasIssue() {
		q.Issue = *tokens.IssueNumber
	}
	return q
}

func (s *Service) search(ctx context.Context, q catalog.Query) ([]catalog.Record, error) {
	records, err := s.source.Search(ctx, q)
	if err != nil {
		log.Error().Err(err).Str("query", q.String()).Msg("catalog search failed")
		if errors.Is(err, catalog.ErrCatalogUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", catalog.ErrCatalogUnavailable, err)
	}
	return records, nil
}
