package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/headlines/internal/news"
)

// articleMarkdown lays out an article for the reader.
func articleMarkdown(article news.Article, maxDescription int) string {
	var content strings.Builder
	content.WriteString(fmt.Sprintf("# %s\n\n", article.DisplayTitle()))

	var byline []string
	if src := article.SourceName(); src != "" {
		byline = append(byline, src)
	}
	if article.Author != "" {
		byline = append(byline, article.Author)
	}
	if t := article.Published(); !t.IsZero() {
		byline = append(byline, t.Format(time.RFC1123))
	}
	if len(byline) > 0 {
		content.WriteString(fmt.Sprintf("*%s*\n\n", strings.Join(byline, " • ")))
	}

	if article.URL != "" {
		content.WriteString(fmt.Sprintf("[Read Online](%s)\n\n", article.URL))
	}
	if article.ImageURL != "" {
		content.WriteString(fmt.Sprintf("**Image:** %s\n\n", article.ImageURL))
	}

	content.WriteString("---\n\n")

	description := article.DisplayDescription()
	if maxDescription > 0 {
		description = truncateEnd(description, maxDescription)
	}
	content.WriteString(description)
	content.WriteString("\n\n")

	if body := strings.TrimSpace(article.Content); body != "" {
		content.WriteString(body)
		content.WriteString("\n")
	}

	return content.String()
}

func (a *App) renderArticle(article news.Article) tea.Cmd {
	markdown := articleMarkdown(article, a.config.UI.Article.MaxDescriptionLength)
	r, rendererErr := a.getRenderer()

	return func() tea.Msg {
		if rendererErr != nil {
			return articleRenderedMsg{url: article.URL, content: "Error initializing renderer: " + rendererErr.Error()}
		}
		rendered, err := r.Render(markdown)
		if err != nil {
			// Still answer with content so the loading state always clears.
			return articleRenderedMsg{
				url:     article.URL,
				content: fmt.Sprintf("# Error\n\nFailed to render article: %s\n\nPress Escape to go back.", err.Error()),
			}
		}
		return articleRenderedMsg{url: article.URL, content: rendered}
	}
}

func (a *App) performSearch(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	index := a.index
	if index == nil || len(query) < 2 {
		return nil
	}
	return func() tea.Msg {
		results, err := index.Search(query, searchResultLimit)
		if err != nil {
			return errorMsg{err: wrapErr("search", err)}
		}
		return searchResultsMsg{query: query, results: results}
	}
}

func (a *App) openInBrowser(article news.Article) tea.Cmd {
	if article.URL == "" {
		return a.setStatus(MsgNoLink, StatusWarn)
	}
	return tea.Batch(
		a.setStatus("Opening "+truncateMiddle(article.URL, 60), StatusInfo),
		a.openLink(article.URL),
	)
}

func (a *App) openLink(rawURL string) tea.Cmd {
	opener := a.opener
	return func() tea.Msg {
		if err := opener.Open(rawURL); err != nil {
			return errorMsg{err: wrapErr("open link", err)}
		}
		return nil
	}
}
