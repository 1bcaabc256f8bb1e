package paging

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/news"
)

// Snapshot is an immutable view of a loader. Items is shared between
// snapshots and must not be modified.
type Snapshot struct {
	Items   []news.Article
	Refresh LoadStatus
	Append  LoadStatus
	NextKey Key
	Phase   Phase
	// Generation counts committed refreshes. Items of two snapshots with the
	// same Generation share a prefix.
	Generation uint64
	// Seq increases with every committed change.
	Seq uint64
}

// EndOfFeed reports that the last page has been loaded.
func (s Snapshot) EndOfFeed() bool {
	return (s.Phase == PhaseLoaded || s.Phase == PhaseAppendFailed) && s.NextKey == NoKey
}

type direction int

const (
	dirRefresh direction = iota
	dirAppend
)

func (d direction) String() string {
	if d == dirRefresh {
		return "refresh"
	}
	return "append"
}

type flight struct {
	dir    direction
	key    Key
	cancel context.CancelFunc
	op     *Op
}

// SubscriptionID identifies a subscriber for Unsubscribe.
type SubscriptionID uint64

type subscriber struct {
	fn      func(Snapshot)
	last    uint64
	removed atomic.Bool
}

type delivery struct {
	snap   Snapshot
	target *subscriber
}

// Loader accumulates pages for one session. At most one request is in
// flight at a time; a refresh supersedes an in-flight append. All methods
// are safe for concurrent use and never block on the network.
type Loader struct {
	source   Source
	pageSize int
	ctx      context.Context
	cancel   context.CancelFunc

	mu            sync.Mutex
	phase         Phase
	items         []news.Article
	nextKey       Key
	refreshStatus LoadStatus
	appendStatus  LoadStatus
	generation    uint64
	seq           uint64
	inflight      *flight
	closed        bool

	subMu      sync.Mutex
	subs       map[SubscriptionID]*subscriber
	nextSub    SubscriptionID
	pending    []delivery
	delivering bool
}

// NewLoader returns an idle loader. Nothing is fetched until Refresh.
func NewLoader(source Source, pageSize int) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		source:   source,
		pageSize: pageSize,
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[SubscriptionID]*subscriber),
	}
}

// Snapshot returns the current committed state.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Loader) snapshotLocked() Snapshot {
	return Snapshot{
		Items:      l.items,
		Refresh:    l.refreshStatus,
		Append:     l.appendStatus,
		NextKey:    l.nextKey,
		Phase:      l.phase,
		Generation: l.generation,
		Seq:        l.seq,
	}
}

// commitLocked records a state change and returns the snapshot to publish.
func (l *Loader) commitLocked() Snapshot {
	l.seq++
	return l.snapshotLocked()
}

// Refresh discards everything and loads the first page. It is a no-op while
// a refresh is already in flight.
func (l *Loader) Refresh() *Op {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return skippedOp(ErrClosed)
	}
	if l.inflight != nil && l.inflight.dir == dirRefresh {
		l.mu.Unlock()
		return skippedOp(nil)
	}
	return l.startRefreshLocked()
}

// LoadMore loads the page after the last one. It is a no-op at the end of
// the feed, before the first page has loaded, or while any load is in
// flight.
func (l *Loader) LoadMore() *Op {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return skippedOp(ErrClosed)
	}
	if l.inflight != nil || l.nextKey == NoKey ||
		(l.phase != PhaseLoaded && l.phase != PhaseAppendFailed) {
		l.mu.Unlock()
		return skippedOp(nil)
	}
	return l.startAppendLocked()
}

// Retry replays the last failed load with the key it failed on.
func (l *Loader) Retry() *Op {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return skippedOp(ErrClosed)
	}
	if l.inflight != nil {
		l.mu.Unlock()
		return skippedOp(nil)
	}
	switch l.phase {
	case PhaseRefreshFailed:
		return l.startRefreshLocked()
	case PhaseAppendFailed:
		return l.startAppendLocked()
	default:
		l.mu.Unlock()
		return skippedOp(nil)
	}
}

// startRefreshLocked must be called with l.mu held and releases it.
func (l *Loader) startRefreshLocked() *Op {
	if l.inflight != nil {
		debuglog.Debugf("refresh supersedes append of page %d", l.inflight.key)
		l.inflight.cancel()
		l.inflight = nil
	}
	l.items = nil
	l.nextKey = NoKey
	l.phase = PhaseRefreshing
	l.refreshStatus = loading
	l.appendStatus = notLoading
	return l.launchLocked(dirRefresh, NoKey)
}

// startAppendLocked must be called with l.mu held and releases it.
func (l *Loader) startAppendLocked() *Op {
	l.phase = PhaseAppending
	l.appendStatus = loading
	return l.launchLocked(dirAppend, l.nextKey)
}

func (l *Loader) launchLocked(dir direction, key Key) *Op {
	ctx, cancel := context.WithCancel(l.ctx)
	f := &flight{dir: dir, key: key, cancel: cancel, op: newOp()}
	l.inflight = f
	snap := l.commitLocked()
	l.mu.Unlock()

	debuglog.WithFields(map[string]any{"direction": dir.String(), "key": int(key)}).Debugf("load started")
	l.publish(snap, nil)
	go l.run(ctx, f)
	return f.op
}

func (l *Loader) run(ctx context.Context, f *flight) {
	page, err := l.source.Load(ctx, f.key, l.pageSize)
	defer f.cancel()

	l.mu.Lock()
	if l.inflight != f {
		closed := l.closed
		l.mu.Unlock()
		if closed {
			f.op.finish(ErrClosed)
		} else {
			f.op.finish(ErrSuperseded)
		}
		debuglog.Debugf("dropped %s result for page %d", f.dir, f.key)
		return
	}
	l.inflight = nil

	var opErr error
	if err != nil {
		lerr := classify(f.key, err)
		opErr = lerr
		switch f.dir {
		case dirRefresh:
			l.items = nil
			l.nextKey = NoKey
			l.phase = PhaseRefreshFailed
			l.refreshStatus = failed(lerr)
		case dirAppend:
			l.phase = PhaseAppendFailed
			l.appendStatus = failed(lerr)
		}
		debuglog.WithFields(map[string]any{"direction": f.dir.String(), "key": int(f.key), "kind": lerr.Kind.String()}).
			Warnf("load failed: %v", lerr)
	} else {
		switch f.dir {
		case dirRefresh:
			l.items = page.Items[:len(page.Items):len(page.Items)]
			l.generation++
			l.refreshStatus = notLoading
		case dirAppend:
			// Full slice expression forces a copy so published snapshots
			// never see their backing array change.
			l.items = append(l.items[:len(l.items):len(l.items)], page.Items...)
			l.appendStatus = notLoading
		}
		l.nextKey = page.NextKey
		l.phase = PhaseLoaded
		debuglog.WithFields(map[string]any{"direction": f.dir.String(), "key": int(f.key), "items": len(page.Items), "next": int(page.NextKey)}).
			Debugf("load committed")
	}
	snap := l.commitLocked()
	l.mu.Unlock()

	l.publish(snap, nil)
	f.op.finish(opErr)
}

// Close cancels in-flight work and drops all subscribers. Results that
// arrive afterwards are discarded. Committed items stay readable through
// Snapshot.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.inflight = nil
	l.mu.Unlock()
	l.cancel()

	l.subMu.Lock()
	for id, sub := range l.subs {
		sub.removed.Store(true)
		delete(l.subs, id)
	}
	l.subMu.Unlock()
}

// Subscribe registers fn for every committed change and immediately delivers
// the current snapshot. Deliveries are serialised and in order; fn may call
// back into the loader.
func (l *Loader) Subscribe(fn func(Snapshot)) SubscriptionID {
	sub := &subscriber{fn: fn}

	l.subMu.Lock()
	l.nextSub++
	id := l.nextSub
	l.subs[id] = sub
	l.subMu.Unlock()

	l.publish(l.Snapshot(), sub)
	return id
}

// Unsubscribe stops deliveries to id. Unknown ids are ignored.
func (l *Loader) Unsubscribe(id SubscriptionID) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	if sub, ok := l.subs[id]; ok {
		sub.removed.Store(true)
		delete(l.subs, id)
	}
}

// publish queues snap for target (or every subscriber when target is nil).
// Whoever finds no delivery running drains the queue; a nested or concurrent
// call only enqueues, so callbacks can re-enter the loader.
func (l *Loader) publish(snap Snapshot, target *subscriber) {
	l.subMu.Lock()
	l.pending = append(l.pending, delivery{snap: snap, target: target})
	if l.delivering {
		l.subMu.Unlock()
		return
	}
	l.delivering = true

	for len(l.pending) > 0 {
		d := l.pending[0]
		l.pending = l.pending[1:]

		var targets []*subscriber
		if d.target != nil {
			targets = []*subscriber{d.target}
		} else {
			targets = make([]*subscriber, 0, len(l.subs))
			for _, sub := range l.subs {
				targets = append(targets, sub)
			}
		}
		l.subMu.Unlock()

		for _, sub := range targets {
			// A subscriber never goes backwards, even when two commits were
			// queued out of order.
			if sub.removed.Load() || (sub.last != 0 && d.snap.Seq <= sub.last) {
				continue
			}
			sub.last = d.snap.Seq
			sub.fn(d.snap)
		}

		l.subMu.Lock()
	}
	l.delivering = false
	l.subMu.Unlock()
}
