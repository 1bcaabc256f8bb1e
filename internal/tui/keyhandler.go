package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/headlines/internal/config"
)

const (
	searchDebounce = 150 * time.Millisecond
	maxQueryLength = 256
)

type KeyHandler struct {
	app      *App
	config   *config.Config
	bindings config.KeyBindings
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, config: cfg, bindings: cfg.Keys.Bindings}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	return kh.app.view == ViewSearch && kh.app.searchInput.Focused()
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return kh.navigateBack()
	case "ctrl+c":
		return kh.app, tea.Quit
	case "enter":
		// Read the best match.
		if items := kh.app.searchList.Items(); len(items) > 0 {
			if i, ok := items[0].(searchResultItem); ok {
				kh.app.nav.Emit(i.result.Article)
			}
		}
		return kh.app, nil
	case "tab", "down":
		if len(kh.app.searchList.Items()) > 0 {
			kh.app.searchInput.Blur()
			kh.app.searchList.Select(0)
		}
		return kh.app, nil
	default:
		return kh.delegateToSearchInput(msg)
	}
}

// delegateToSearchInput updates the query and schedules a debounced search.
func (kh *KeyHandler) delegateToSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := sanitizeSearchInput(kh.app.searchInput.Value())
	newSearchInput, cmd := kh.app.searchInput.Update(msg)
	kh.app.searchInput = newSearchInput

	query := sanitizeSearchInput(kh.app.searchInput.Value())
	if query == prev {
		return kh.app, cmd
	}
	if len(query) < 2 {
		kh.app.searchList.SetItems([]list.Item{})
		return kh.app, cmd
	}
	kh.app.searchSeq++
	seq := kh.app.searchSeq
	return kh.app, tea.Batch(cmd, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceFireMsg{seq: seq, query: query}
	}))
}

// handleCustomKeys handles only our own action keys.
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "ctrl+c", kh.bindings.Quit:
		return kh.app, tea.Quit, true
	case kh.bindings.Back:
		if kh.app.view != ViewHeadlines {
			model, cmd := kh.navigateBack()
			return model, cmd, true
		}
		return kh.app, nil, true
	}

	switch kh.app.view {
	case ViewHeadlines:
		return kh.handleHeadlinesCustomKeys(key)
	case ViewReader:
		return kh.handleReaderCustomKeys(key)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleHeadlinesCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	app := kh.app
	switch key {
	case kh.bindings.Refresh:
		app.loader.Refresh()
		return app, app.setStatus(MsgRefreshing, StatusInfo), true
	case kh.bindings.Retry:
		if op := app.loader.Retry(); !op.Started() {
			return app, app.setStatus(MsgNothingToRetry, StatusInfo), true
		}
		return app, app.setStatus(MsgRetrying, StatusInfo), true
	case kh.bindings.Open:
		if art, ok := app.selectedArticle(); ok {
			return app, app.openInBrowser(art), true
		}
		return app, nil, true
	case kh.bindings.Search:
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	}
	return app, nil, false
}

func (kh *KeyHandler) handleReaderCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	if key == kh.bindings.Open {
		if art, ok := kh.app.selectedArticle(); ok {
			return kh.app, kh.app.openInBrowser(art), true
		}
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

// delegateToCharm lets the bubbles components handle keys we don't intercept.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	app := kh.app

	switch app.view {
	case ViewHeadlines:
		if msg.String() == "enter" {
			if art, ok := app.selectedArticle(); ok {
				app.nav.Emit(art)
			}
			return app, nil
		}
		app.headlineList, cmd = app.headlineList.Update(msg)
		app.maybeLoadMore()
		return app, cmd

	case ViewSearch:
		switch msg.String() {
		case "tab", "shift+tab", kh.bindings.Search:
			app.searchInput.Focus()
			return app, nil
		case "up":
			if app.searchList.Index() == 0 {
				app.searchInput.Focus()
				return app, nil
			}
		case "enter":
			if art, ok := app.selectedArticle(); ok {
				app.nav.Emit(art)
			}
			return app, nil
		}
		app.searchList, cmd = app.searchList.Update(msg)
		return app, cmd

	case ViewReader:
		app.viewport, cmd = app.viewport.Update(msg)
		return app, cmd

	default:
		return app, nil
	}
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	app := kh.app
	switch app.view {
	case ViewSearch:
		app.view = ViewHeadlines
		app.searchInput.Reset()
		app.searchInput.Blur()
		app.searchList.SetItems([]list.Item{})
		return app, nil

	case ViewReader:
		app.current = nil
		app.loadingArticle = false
		if app.previousView == ViewSearch {
			app.view = ViewSearch
			app.searchInput.Blur()
			return app, nil
		}
		app.view = ViewHeadlines
		return app, nil

	default:
		return app, tea.Quit
	}
}

func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	app := kh.app
	app.previousView = app.view
	app.view = ViewSearch
	app.searchInput.Reset()
	app.searchInput.Focus()
	app.searchList.SetItems([]list.Item{})
	if app.index == nil {
		return app, nil
	}
	if n, err := app.index.DocCount(); err == nil {
		return app, app.setStatus(MsgIndexedCount(n), StatusInfo)
	}
	return app, nil
}

// sanitizeSearchInput trims, flattens whitespace and limits query length.
func sanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if r := []rune(input); len(r) > maxQueryLength {
		input = strings.TrimSpace(string(r[:maxQueryLength]))
	}
	return input
}

// GetHelpForCurrentView returns our own key hints. The bubbles components
// document the rest.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	b := kh.bindings
	switch kh.app.view {
	case ViewHeadlines:
		return []string{
			"enter: read",
			b.Open + ": open",
			b.Refresh + ": refresh",
			b.Retry + ": retry",
			b.Search + ": search",
			b.Quit + ": quit",
		}
	case ViewReader:
		return []string{b.Open + ": open in browser", b.Back + ": back"}
	case ViewSearch:
		if kh.app.searchInput.Focused() {
			return []string{"enter: read first", "tab: results", "esc: back"}
		}
		return []string{"enter: read", b.Search + ": edit query", b.Back + ": back"}
	default:
		return []string{}
	}
}
