package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/paging"
)

func TestKeyHandler_BindingsFromConfig(t *testing.T) {
	app, _ := newTestApp(t, nil)

	assert.NotNil(t, app.keyHandler)
	assert.Equal(t, "r", app.keyHandler.bindings.Refresh)
	assert.Equal(t, "R", app.keyHandler.bindings.Retry)
}

func TestKeyHandler_Quit(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		app, _ := newTestApp(t, nil)
		_, cmd := app.keyHandler.HandleKey(msg)
		require.NotNil(t, cmd, msg.String())
		assert.IsType(t, tea.QuitMsg{}, cmd(), msg.String())
	}
}

func TestKeyHandler_QuitKeyTypesInSearch(t *testing.T) {
	app, _ := newTestApp(t, nil)
	app.Update(runes("/"))
	require.True(t, app.searchInput.Focused())

	app.keyHandler.HandleKey(runes("q"))
	assert.Equal(t, ViewSearch, app.view)
	assert.Equal(t, "q", app.searchInput.Value())
}

func TestKeyHandler_Refresh(t *testing.T) {
	app, loader := newTestApp(t, nil)

	app.Update(runes("r"))

	assert.Equal(t, MsgRefreshing, app.status.text)
	assert.True(t, loader.Snapshot().Refresh.IsLoading())
}

func TestKeyHandler_RetryWithoutFailure(t *testing.T) {
	app, loader := newTestApp(t, nil)

	app.Update(runes("R"))

	assert.Equal(t, MsgNothingToRetry, app.status.text)
	assert.Equal(t, paging.PhaseIdle, loader.Snapshot().Phase)
}

func TestKeyHandler_BackFromSearch(t *testing.T) {
	app, _ := newTestApp(t, nil)

	app.Update(runes("/"))
	require.Equal(t, ViewSearch, app.view)
	app.Update(runes("climate"))
	assert.Equal(t, "climate", app.searchInput.Value())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewHeadlines, app.view)
	assert.Empty(t, app.searchInput.Value())
}

func TestKeyHandler_EscOnHeadlinesStays(t *testing.T) {
	app, _ := newTestApp(t, nil)

	_, cmd := app.keyHandler.HandleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Equal(t, ViewHeadlines, app.view)
}

func TestKeyHandler_SearchFocusSwitch(t *testing.T) {
	app, _ := newTestApp(t, nil)
	app.Update(snapshotMsg{snap: loaded(1, 1, testArticles(3), 2)})
	app.Update(runes("/"))

	// Nothing to move to yet.
	app.keyHandler.HandleKey(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, app.searchInput.Focused())

	app.searchList.InsertItem(0, headlineItem{article: testArticles(1)[0]})
	app.keyHandler.HandleKey(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, app.searchInput.Focused())

	app.keyHandler.HandleKey(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, app.searchInput.Focused())
}

func TestKeyHandler_DelegatesToViewport(t *testing.T) {
	app, _ := newTestApp(t, nil)
	app.openReader(testArticles(1)[0])

	app.keyHandler.HandleKey(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, ViewReader, app.view)
	assert.NotNil(t, app.current)
}

func TestKeyHandler_HelpPerView(t *testing.T) {
	app, _ := newTestApp(t, nil)

	assert.Contains(t, app.keyHandler.GetHelpForCurrentView(), "r: refresh")
	assert.Contains(t, app.keyHandler.GetHelpForCurrentView(), "R: retry")

	app.view = ViewReader
	assert.Contains(t, app.keyHandler.GetHelpForCurrentView(), "o: open in browser")

	app.view = ViewSearch
	app.searchInput.Focus()
	assert.Contains(t, app.keyHandler.GetHelpForCurrentView(), "tab: results")

	app.view = View(99)
	assert.Empty(t, app.keyHandler.GetHelpForCurrentView())
}

func TestSanitizeSearchInput(t *testing.T) {
	long := make([]rune, maxQueryLength+10)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims", "  climate  ", "climate"},
		{"collapses whitespace", "climate \t\n  summit", "climate summit"},
		{"empty", "   ", ""},
		{"limits length", string(long), string(long[:maxQueryLength])},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeSearchInput(tt.input))
		})
	}
}
