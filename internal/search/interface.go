package search

import (
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/paging"
)

// Result is one hit. Position is the article's index in the loaded list.
type Result struct {
	Article  news.Article
	Position int
	Score    float64
}

// Searcher is the query side of an index.
type Searcher interface {
	Search(query string, limit int) ([]Result, error)
}

// SnapshotListener is implemented by searchers that follow a loader.
type SnapshotListener interface {
	Apply(s paging.Snapshot) error
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}

var (
	_ Searcher         = (*Index)(nil)
	_ SnapshotListener = (*Index)(nil)
	_ DebugStatser     = (*Index)(nil)
)
