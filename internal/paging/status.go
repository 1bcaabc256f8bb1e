package paging

// LoadState is the coarse state of one load direction.
type LoadState int

const (
	StateNotLoading LoadState = iota
	StateLoading
	StateError
)

func (s LoadState) String() string {
	switch s {
	case StateNotLoading:
		return "not-loading"
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// LoadStatus is tracked separately for refresh and append. Err is set only
// in StateError.
type LoadStatus struct {
	State LoadState
	Err   *LoadError
}

var (
	notLoading = LoadStatus{State: StateNotLoading}
	loading    = LoadStatus{State: StateLoading}
)

func failed(err *LoadError) LoadStatus {
	return LoadStatus{State: StateError, Err: err}
}

func (s LoadStatus) IsLoading() bool { return s.State == StateLoading }
func (s LoadStatus) IsError() bool   { return s.State == StateError }

func (s LoadStatus) String() string {
	if s.State == StateError && s.Err != nil {
		return "error(" + s.Err.Error() + ")"
	}
	return s.State.String()
}

// Phase is the loader's position in its state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRefreshing
	PhaseLoaded
	PhaseRefreshFailed
	PhaseAppending
	PhaseAppendFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRefreshing:
		return "refreshing"
	case PhaseLoaded:
		return "loaded"
	case PhaseRefreshFailed:
		return "refresh-failed"
	case PhaseAppending:
		return "appending"
	case PhaseAppendFailed:
		return "append-failed"
	default:
		return "unknown"
	}
}
