package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/launcher"
	"github.com/pders01/headlines/internal/navigation"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/paging"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/uistate"
)

const searchResultLimit = 50

// searchIndex is what the app needs from the headline index.
type searchIndex interface {
	search.Searcher
	search.SnapshotListener
	search.DebugStatser
}

// Opener hands a link to the system browser.
type Opener interface {
	Open(rawURL string) error
}

type App struct {
	config     *config.Config
	loader     *paging.Loader
	index      searchIndex
	opener     Opener
	nav        *navigation.Queue
	tracker    *uistate.Tracker
	keyHandler *KeyHandler

	headlineList list.Model
	searchList   list.Model
	searchInput  textinput.Model
	viewport     viewport.Model
	spinner      spinner.Model

	view           View
	previousView   View
	snapshot       paging.Snapshot
	current        *news.Article
	loadingArticle bool
	status         status
	statusSeq      int
	searchSeq      int
	width          int
	height         int

	snapshots chan paging.Snapshot
	done      chan struct{}
	subID     paging.SubscriptionID

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

// NewApp builds the UI for one loader. The index may be nil, which disables
// search.
func NewApp(cfg *config.Config, loader *paging.Loader, index *search.Index) *App {
	headlineList := list.New([]list.Item{}, newDelegate(), 0, 0)
	headlineList.Title = "› headlines"
	headlineList.SetShowStatusBar(false)
	headlineList.SetFilteringEnabled(false)
	headlineList.SetShowHelp(false)

	searchList := list.New([]list.Item{}, newDelegate(), 0, 0)
	searchList.Title = "› search results"
	searchList.SetShowStatusBar(false)
	searchList.SetShowHelp(false)
	searchList.SetFilteringEnabled(false)

	si := textinput.New()
	si.Placeholder = "Search loaded headlines..."

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	app := &App{
		config:       cfg,
		loader:       loader,
		opener:       launcher.NewLauncher(cfg),
		nav:          &navigation.Queue{},
		tracker:      &uistate.Tracker{},
		headlineList: headlineList,
		searchList:   searchList,
		searchInput:  si,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		view:         ViewHeadlines,
		previousView: ViewHeadlines,
		snapshots:    make(chan paging.Snapshot, 1),
		done:         make(chan struct{}),
	}
	if index != nil {
		app.index = index
	}
	app.keyHandler = NewKeyHandler(app, cfg)
	app.subID = loader.Subscribe(app.deliver)

	return app
}

// deliver keeps only the newest snapshot in the channel. The loader never
// runs two deliveries to one subscriber at once, so whatever is buffered is
// always older than s.
func (a *App) deliver(s paging.Snapshot) {
	for {
		select {
		case a.snapshots <- s:
			return
		default:
		}
		select {
		case <-a.snapshots:
		default:
		}
	}
}

// Close stops snapshot delivery. The loader itself belongs to the caller.
func (a *App) Close() {
	select {
	case <-a.done:
		return
	default:
	}
	a.loader.Unsubscribe(a.subID)
	close(a.done)
}

func (a *App) waitForSnapshot() tea.Cmd {
	ch, done := a.snapshots, a.done
	return func() tea.Msg {
		select {
		case s := <-ch:
			return snapshotMsg{snap: s}
		case <-done:
			return nil
		}
	}
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Article.WordWrapMaxWidth
	minWidth := a.config.UI.Article.WordWrapMinWidth

	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width > 0 && a.width < minWidth+10 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.waitForSnapshot(),
		a.spinner.Tick,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Six rows of chrome surround the list; see View.
		a.headlineList.SetSize(msg.Width, max(msg.Height-6, 1))
		a.searchList.SetSize(msg.Width, max(msg.Height-10, 5))
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 3
		a.searchInput.Width = max(msg.Width-8, 10)

	case tea.KeyMsg:
		_, cmd := a.keyHandler.HandleKey(msg)
		cmds = append(cmds, cmd)
		return a, a.finishUpdate(cmds)

	case snapshotMsg:
		cmds = append(cmds, a.applySnapshot(msg.snap), a.waitForSnapshot())

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case statusClearMsg:
		if msg.id == a.status.id {
			a.status = status{}
		}

	case articleRenderedMsg:
		if a.view == ViewReader && a.current != nil && a.current.URL == msg.url {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
		}

	case searchDebounceFireMsg:
		if msg.seq == a.searchSeq {
			cmds = append(cmds, a.performSearch(msg.query))
		}

	case searchResultsMsg:
		if a.view == ViewSearch && msg.query == sanitizeSearchInput(a.searchInput.Value()) {
			items := make([]list.Item, len(msg.results))
			for i, r := range msg.results {
				items[i] = searchResultItem{result: r}
			}
			a.searchList.SetItems(items)
		}

	case errorMsg:
		if a.view == ViewReader && a.loadingArticle {
			a.loadingArticle = false
		}
		cmds = append(cmds, a.setStatus(msg.err.Error(), StatusError))
	}

	return a, a.finishUpdate(cmds)
}

// finishUpdate drains one pending navigation event, so a selection turns
// into a screen change exactly once.
func (a *App) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if art, ok := a.nav.Consume(); ok {
		cmds = append(cmds, a.openReader(art))
	}
	return tea.Batch(cmds...)
}

func (a *App) applySnapshot(s paging.Snapshot) tea.Cmd {
	if s.Seq != 0 && s.Seq <= a.snapshot.Seq {
		return nil
	}
	generationChanged := s.Generation != a.snapshot.Generation
	a.snapshot = s
	a.tracker.Observe(s)

	items := make([]list.Item, len(s.Items))
	for i, art := range s.Items {
		items[i] = headlineItem{article: art}
	}
	a.headlineList.SetItems(items)
	if generationChanged {
		a.headlineList.Select(0)
	}

	if a.index != nil {
		if err := a.index.Apply(s); err != nil {
			debuglog.Warnf("search index update failed: %v", err)
		}
	}

	var cmds []tea.Cmd
	if notice, ok := a.tracker.TakeNotice(); ok {
		cmds = append(cmds, a.setStatus(notice, StatusWarn))
	}
	a.maybeLoadMore()
	return tea.Batch(cmds...)
}

// maybeLoadMore asks for the next page once the cursor is close to the end
// of what is loaded. A failed append is only retried on request.
func (a *App) maybeLoadMore() {
	if a.view != ViewHeadlines || a.snapshot.Append.IsError() {
		return
	}
	n := len(a.snapshot.Items)
	if n == 0 {
		return
	}
	distance := max(a.config.UI.PrefetchDistance, 1)
	if a.headlineList.Index() >= n-distance {
		a.loader.LoadMore()
	}
}

func (a *App) setStatus(text string, kind StatusKind) tea.Cmd {
	a.statusSeq++
	id := a.statusSeq
	a.status = status{text: text, kind: kind, id: id}
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return statusClearMsg{id: id}
	})
}

func (a *App) openReader(art news.Article) tea.Cmd {
	a.previousView = a.view
	a.view = ViewReader
	a.current = &art
	a.loadingArticle = true
	a.viewport.SetContent("")
	return a.renderArticle(art)
}

func (a *App) selectedArticle() (news.Article, bool) {
	var item list.Item
	switch a.view {
	case ViewSearch:
		item = a.searchList.SelectedItem()
	case ViewReader:
		if a.current != nil {
			return *a.current, true
		}
		return news.Article{}, false
	default:
		item = a.headlineList.SelectedItem()
	}
	switch it := item.(type) {
	case headlineItem:
		return it.article, true
	case searchResultItem:
		return it.result.Article, true
	}
	return news.Article{}, false
}

func (a *App) View() string {
	bodyHeight := max(a.height-3, 1)
	var content string

	switch a.view {
	case ViewHeadlines:
		content = a.headlinesView(bodyHeight)
	case ViewReader:
		if a.loadingArticle {
			content = renderCentered(a.width, bodyHeight,
				a.spinner.View()+" "+renderMuted(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}
	case ViewSearch:
		content = a.searchView(bodyHeight)
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width-1, 0)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) headlinesView(height int) string {
	header := renderHeader("› headlines", MsgLoadedCount(len(a.snapshot.Items), a.config.API.Country), a.width)
	bodyHeight := max(height-2, 1)

	state := a.tracker.State()
	var body string
	switch state.Kind {
	case uistate.Loading:
		body = renderCentered(a.width, bodyHeight,
			a.spinner.View()+" "+renderMuted(MsgLoadingHeadline))
	case uistate.Error:
		body = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
			lipgloss.Center,
			ErrorMessageStyle.Render("✗ "+state.Message),
			"",
			renderHelp("press "+a.config.Keys.Bindings.Retry+" to retry"),
		))
	case uistate.Empty:
		body = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
			lipgloss.Center,
			GetCompactBanner("No headlines right now"),
			"",
			renderHelp("press "+a.config.Keys.Bindings.Refresh+" to refresh"),
		))
	default:
		body = lipgloss.JoinVertical(lipgloss.Top, a.headlineList.View(), a.footer())
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		MaxHeight(height).
		Render(lipgloss.JoinVertical(lipgloss.Top, header, body))
}

// footer reflects the append direction below the list.
func (a *App) footer() string {
	s := a.snapshot
	switch {
	case s.Append.IsLoading():
		return FooterStyle.Render(a.spinner.View() + " " + MsgLoadingMore)
	case s.Append.IsError():
		return FooterStyle.Render(ErrorMessageStyle.Render("✗ "+s.Append.Err.Error()) +
			" • press " + a.config.Keys.Bindings.Retry + " to retry")
	case s.EndOfFeed():
		return FooterStyle.Render(MsgEndOfFeed)
	default:
		return ""
	}
}

func (a *App) searchView(height int) string {
	inputWidth := a.searchInput.Width

	var helpText string
	switch {
	case a.index == nil:
		helpText = "Search is unavailable • Esc: back"
	case a.searchInput.Focused():
		helpText = "Type to search • Tab/↓: results • Esc: back"
	case len(a.searchList.Items()) > 0:
		helpText = "↑↓: navigate • Enter: read • Tab/↑: search box • Esc: back"
	default:
		helpText = MsgNoResults + " • Tab/↑: search box • Esc: back"
	}

	subtitle := ""
	if n := len(a.searchList.Items()); n > 0 {
		subtitle = MsgResultsCount(n)
	}

	searchContent := lipgloss.JoinVertical(
		lipgloss.Top,
		renderHeader("› search", subtitle, a.width),
		"",
		renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), inputWidth),
		renderMuted(helpText),
		"",
		a.searchList.View(),
	)

	return lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		MaxHeight(height).
		Render(searchContent)
}

func (a *App) statusBar() string {
	text := a.status.render()
	if a.status.text == "" {
		text = strings.Join(a.keyHandler.GetHelpForCurrentView(), " • ")
	}
	return StatusBarStyle.Width(a.width).Render(text)
}

type headlineItem struct {
	article news.Article
}

func (i headlineItem) Title() string { return i.article.DisplayTitle() }

func (i headlineItem) Description() string {
	return articleMeta(i.article)
}

func (i headlineItem) FilterValue() string { return i.article.Title }

type searchResultItem struct {
	result search.Result
}

func (i searchResultItem) Title() string { return i.result.Article.DisplayTitle() }

func (i searchResultItem) Description() string {
	return fmt.Sprintf("#%d • %s", i.result.Position+1, articleMeta(i.result.Article))
}

func (i searchResultItem) FilterValue() string { return i.result.Article.Title }

// articleMeta is the one-line byline shown under a headline.
func articleMeta(a news.Article) string {
	parts := make([]string, 0, 2)
	if src := a.SourceName(); src != "" {
		parts = append(parts, src)
	}
	if t := a.Published(); !t.IsZero() {
		parts = append(parts, t.Local().Format("Jan 2 15:04"))
	}
	if len(parts) == 0 {
		return truncateEnd(a.DisplayDescription(), 80)
	}
	return strings.Join(parts, " • ")
}

type snapshotMsg struct {
	snap paging.Snapshot
}

type articleRenderedMsg struct {
	url     string
	content string
}

type searchResultsMsg struct {
	query   string
	results []search.Result
}

type searchDebounceFireMsg struct {
	seq   int
	query string
}

type statusClearMsg struct {
	id int
}

type errorMsg struct {
	err error
}
