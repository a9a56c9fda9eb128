package codepilot

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// keywordDoc is the bleve document for one chunk. Chunk text is
// indexed but not stored; everything needed to render a hit is kept
// in stored fields so keyword search never re-reads source files.
type keywordDoc struct {
	Content   string  `json:"content"`
	Repo      string  `json:"repo"`
	Path      string  `json:"path"`
	Lang      string  `json:"lang"`
	StartLine float64 `json:"start_line"`
	EndLine   float64 `json:"end_line"`
	Preview   string  `json:"preview"`
}

// rebuildKeywordIndex replaces the bleve index at dir with one built
// from the given chunks. Doc ids are row ids, matching the vector
// index and the metadata array.
func rebuildKeywordIndex(dir string, chunks []ChunkMetadata) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("reset keyword index dir: %w", err)
	}
	index, err := bleve.New(dir, buildKeywordMapping())
	if err != nil {
		return fmt.Errorf("create keyword index: %w", err)
	}
	defer index.Close()

	batch := index.NewBatch()
	for row, c := range chunks {
		doc := keywordDoc{
			Content:   c.Text,
			Repo:      c.Repo,
			Path:      c.Path,
			Lang:      c.Lang,
			StartLine: float64(c.StartLine),
			EndLine:   float64(c.EndLine),
			Preview:   c.Preview,
		}
		if err := batch.Index(strconv.Itoa(row), doc); err != nil {
			return fmt.Errorf("index chunk row %d: %w", row, err)
		}
		if batch.Size() >= 200 {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("flush keyword batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("flush keyword batch: %w", err)
		}
	}
	return nil
}

func buildKeywordMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.DefaultField = "content"

	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = false
	contentField.Index = true
	docMapping.AddFieldMappingsAt("content", contentField)

	pathField := bleve.NewTextFieldMapping()
	pathField.Store = true
	pathField.Index = true
	docMapping.AddFieldMappingsAt("path", pathField)

	repoField := bleve.NewTextFieldMapping()
	repoField.Store = true
	repoField.Index = false
	docMapping.AddFieldMappingsAt("repo", repoField)

	langField := bleve.NewTextFieldMapping()
	langField.Store = true
	langField.Index = true
	langField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("lang", langField)

	previewField := bleve.NewTextFieldMapping()
	previewField.Store = true
	previewField.Index = false
	docMapping.AddFieldMappingsAt("preview", previewField)

	lineField := bleve.NewNumericFieldMapping()
	lineField.Store = true
	lineField.Index = false
	docMapping.AddFieldMappingsAt("start_line", lineField)
	docMapping.AddFieldMappingsAt("end_line", lineField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// SearchKeyword runs a full-text query against the keyword index.
// The index is opened per call; bleve handles are not kept in the
// snapshot so a re-ingest can replace the directory wholesale.
func (s *Service) SearchKeyword(query string, opts SearchOptions) (*SearchResponse, error) {
	if opts.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, opts.K)
	}
	if _, err := os.Stat(s.paths.KeywordDir); err != nil {
		return nil, ErrIndexUnavailable
	}

	index, err := bleve.Open(s.paths.KeywordDir)
	if err != nil {
		return nil, fmt.Errorf("open keyword index: %w", err)
	}
	defer index.Close()

	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")
	contentQuery.SetBoost(1.0)
	pathQuery := bleve.NewMatchQuery(query)
	pathQuery.SetField("path")
	pathQuery.SetBoost(1.5)
	disjunction := bleve.NewDisjunctionQuery(contentQuery, pathQuery)

	// Fetch extra hits so post-filters cannot drain the page.
	fetch := opts.K
	if opts.PathContains != "" || opts.Lang != "" {
		fetch *= 5
	}
	req := bleve.NewSearchRequestOptions(disjunction, fetch, 0, false)
	req.Fields = []string{"repo", "path", "lang", "start_line", "end_line", "preview"}

	res, err := index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search keyword index: %w", err)
	}

	results := make([]SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := SearchResult{
			Score: float32(hit.Score),
		}
		r.Repo, _ = hit.Fields["repo"].(string)
		r.Path, _ = hit.Fields["path"].(string)
		r.Lang, _ = hit.Fields["lang"].(string)
		r.Preview, _ = hit.Fields["preview"].(string)
		r.StartLine = parseNumericField(hit.Fields["start_line"])
		r.EndLine = parseNumericField(hit.Fields["end_line"])
		if !matchesFilters(&r, opts) {
			continue
		}
		results = append(results, r)
		if len(results) == opts.K {
			break
		}
	}
	return &SearchResponse{Results: results, Latency: res.Took}, nil
}

func matchesFilters(r *SearchResult, opts SearchOptions) bool {
	if opts.Lang != "" && r.Lang != opts.Lang {
		return false
	}
	if opts.PathContains != "" && !strings.Contains(strings.ToLower(r.Path), strings.ToLower(opts.PathContains)) {
		return false
	}
	return true
}

func parseNumericField(val any) int {
	switch v := val.(type) {
	case float64:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
