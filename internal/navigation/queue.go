// Package navigation carries one-shot "article selected" events from the
// list to whoever performs the navigation.
package navigation

import (
	"sync"

	"github.com/pders01/headlines/internal/news"
)

// Queue holds at most one pending selection. A consumed event is gone for
// good, so a selection can never be replayed.
type Queue struct {
	mu      sync.Mutex
	pending *news.Article
}

// Emit replaces any pending selection.
func (q *Queue) Emit(a news.Article) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = &a
}

// Consume returns the pending selection and clears it.
func (q *Queue) Consume() (news.Article, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		return news.Article{}, false
	}
	a := *q.pending
	q.pending = nil
	return a, true
}

// Pending reports whether a selection is waiting.
func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending != nil
}

// Clear drops any pending selection.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
}
