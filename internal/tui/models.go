package tui

type View int

const (
	ViewHeadlines View = iota
	ViewReader
	ViewSearch
)

func (v View) String() string {
	switch v {
	case ViewHeadlines:
		return "headlines"
	case ViewReader:
		return "reader"
	case ViewSearch:
		return "search"
	default:
		return "unknown"
	}
}
