package search

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/paging"
)

// Index is an in-memory bleve index over the headlines loaded in one
// session. Documents are keyed by list position, so duplicate URLs from
// different pages stay separately addressable.
type Index struct {
	mu         sync.RWMutex
	idx        bleve.Index
	items      []news.Article
	generation uint64
}

func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	return &Index{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.IncludeTermVectors = true

	text := func() *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		fm.Store = false
		return fm
	}

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("description", text())
	dm.AddFieldMappingsAt("content", text())
	dm.AddFieldMappingsAt("source", text())
	dm.AddFieldMappingsAt("author", text())

	im.DefaultMapping = dm
	return im
}

// Apply brings the index in line with a loader snapshot. A new refresh
// generation rebuilds the index; otherwise only the appended tail is added.
func (x *Index) Apply(s paging.Snapshot) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	start := len(x.items)
	if s.Generation != x.generation || len(s.Items) < start {
		if err := x.resetLocked(); err != nil {
			return err
		}
		x.generation = s.Generation
		start = 0
	}
	if start == len(s.Items) {
		return nil
	}

	batch := x.idx.NewBatch()
	for i := start; i < len(s.Items); i++ {
		a := s.Items[i]
		if err := batch.Index(docID(i), map[string]any{
			"title":       a.Title,
			"description": a.Description,
			"content":     a.Content,
			"source":      a.SourceName(),
			"author":      a.Author,
		}); err != nil {
			return fmt.Errorf("indexing %s: %w", a.URL, err)
		}
	}
	if err := x.idx.Batch(batch); err != nil {
		return fmt.Errorf("indexing batch: %w", err)
	}
	x.items = s.Items
	return nil
}

func (x *Index) resetLocked() error {
	if len(x.items) == 0 {
		return nil
	}
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating search index: %w", err)
	}
	_ = x.idx.Close()
	x.idx = fresh
	x.items = nil
	return nil
}

// Search returns the best matching headlines, best first. Queries shorter
// than two characters match nothing.
func (x *Index) Search(query string, limit int) ([]Result, error) {
	if len(strings.TrimSpace(query)) < 2 || limit <= 0 {
		return []Result{}, nil
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range boostedFields {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.boost)
			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.boost * 0.8)
			qs = append(qs, mq, pq)
		}
	}
	if len(qs) == 0 {
		return []Result{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	res, err := x.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	out := make([]Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		pos, err := strconv.Atoi(strings.TrimPrefix(h.ID, "item:"))
		if err != nil || pos < 0 || pos >= len(x.items) {
			continue
		}
		out = append(out, Result{Article: x.items[pos], Position: pos, Score: h.Score})
	}
	return out, nil
}

// DocCount reports how many headlines are indexed.
func (x *Index) DocCount() (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n, err := x.idx.DocCount()
	return int(n), err
}

func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.idx.Close()
}

var boostedFields = []struct {
	name  string
	boost float64
}{
	{"title", 4.0},
	{"description", 2.0},
	{"source", 1.5},
	{"author", 1.2},
	{"content", 1.0},
}

func docID(pos int) string { return "item:" + strconv.Itoa(pos) }

// tokenize lowercases text and splits it on anything that is not a letter
// or digit, dropping single characters.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			terms = append(terms, f)
		}
	}
	return terms
}
