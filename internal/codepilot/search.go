package codepilot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// keywordBoost is added once to a candidate's score when any query
// token appears in its text, regardless of how many tokens match.
const keywordBoost = 0.1

// stopWords are query tokens too generic to signal intent.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {},
	"how": {}, "do": {}, "does": {}, "what": {}, "where": {},
	"when": {}, "i": {}, "we": {}, "you": {},
}

// tokenizeQuery splits the query on non-alphanumeric runs, lowercases
// the pieces and drops single characters and stop words.
func tokenizeQuery(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9')
	})

	var tokens []string
	for _, f := range fields {
		token := strings.ToLower(f)
		if len(token) <= 1 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

type candidate struct {
	row   int
	score float32
}

// Search runs the retrieval pipeline against the current snapshot:
// embed (or reuse the cached vector for) the query, oversample from
// the vector index, apply metadata filters, boost keyword matches,
// and return the top K. An empty result after filtering is a valid
// outcome, not an error.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	if opts.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, opts.K)
	}

	start := time.Now()

	snap := s.current.Load()
	if snap == nil {
		return nil, ErrIndexUnavailable
	}

	vector, ok := s.cache.Get(query)
	if !ok {
		var err error
		vector, err = s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		s.cache.Put(query, vector)
	}

	oversample := s.cfg.Search.OversampleFactor
	if oversample <= 0 {
		oversample = 5
	}
	kPrime := opts.K * oversample
	if kPrime > snap.Index.Rows() {
		kPrime = snap.Index.Rows()
	}

	hits, err := snap.Index.Search(vector, kPrime)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	pathNeedle := strings.ToLower(opts.PathContains)
	candidates := make([]candidate, 0, len(hits))
	for _, h := range hits {
		meta := &snap.Chunks[h.Row]
		if pathNeedle != "" && !strings.Contains(strings.ToLower(meta.Path), pathNeedle) {
			continue
		}
		if opts.Lang != "" && meta.Lang != opts.Lang {
			continue
		}
		candidates = append(candidates, candidate{row: h.Row, score: h.Score})
	}

	tokens := tokenizeQuery(query)
	if len(tokens) > 0 {
		for i := range candidates {
			lower := strings.ToLower(snap.Chunks[candidates[i].row].Text)
			for _, token := range tokens {
				if strings.Contains(lower, token) {
					candidates[i].score += keywordBoost
					break
				}
			}
		}
	}

	// Candidates arrive ordered by raw similarity, so the stable sort
	// keeps that order for equal boosted scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > opts.K {
		candidates = candidates[:opts.K]
	}

	results := make([]SearchResult, len(candidates))
	for i, c := range candidates {
		meta := &snap.Chunks[c.row]
		results[i] = SearchResult{
			Repo:      meta.Repo,
			Path:      meta.Path,
			Lang:      meta.Lang,
			StartLine: meta.StartLine,
			EndLine:   meta.EndLine,
			Preview:   meta.Preview,
			Score:     c.score,
		}
	}

	return &SearchResponse{Results: results, Latency: time.Since(start)}, nil
}
