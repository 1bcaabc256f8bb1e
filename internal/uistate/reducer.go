// Package uistate derives what the screen should show from loader state.
package uistate

import (
	"sync"

	"github.com/pders01/headlines/internal/paging"
)

// EmptyNotice is shown once each time the feed turns out to be empty.
const EmptyNotice = "feed is empty"

type Kind int

const (
	Loading Kind = iota
	Success
	Empty
	Error
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Empty:
		return "empty"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// DisplayState is derived and never stored as a source of truth. Message is
// set only for Error.
type DisplayState struct {
	Kind    Kind
	Message string
}

// Reduce maps the two load directions and the item count to a display
// state. A refresh in progress wins over everything; the append direction
// never changes the top-level state.
func Reduce(refresh, _ paging.LoadStatus, itemCount int) DisplayState {
	switch {
	case refresh.IsLoading():
		return DisplayState{Kind: Loading}
	case refresh.IsError():
		msg := "unknown error"
		if refresh.Err != nil {
			msg = refresh.Err.Error()
		}
		return DisplayState{Kind: Error, Message: msg}
	case itemCount == 0:
		return DisplayState{Kind: Empty}
	default:
		return DisplayState{Kind: Success}
	}
}

// FromSnapshot reduces a loader snapshot. An idle loader that has not
// started its first refresh counts as loading.
func FromSnapshot(s paging.Snapshot) DisplayState {
	if s.Phase == paging.PhaseIdle {
		return DisplayState{Kind: Loading}
	}
	return Reduce(s.Refresh, s.Append, len(s.Items))
}

// Tracker follows snapshots and queues the empty-feed notice exactly once
// per transition into Empty.
type Tracker struct {
	mu     sync.Mutex
	state  DisplayState
	seen   bool
	notice string
}

// Observe re-derives the display state and returns it.
func (t *Tracker) Observe(s paging.Snapshot) DisplayState {
	next := FromSnapshot(s)

	t.mu.Lock()
	defer t.mu.Unlock()
	if next.Kind == Empty && (!t.seen || t.state.Kind != Empty) {
		t.notice = EmptyNotice
	}
	t.state = next
	t.seen = true
	return next
}

// State returns the last derived state.
func (t *Tracker) State() DisplayState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// TakeNotice returns the pending notice and clears it.
func (t *Tracker) TakeNotice() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.notice
	t.notice = ""
	return n, n != ""
}
