package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArticleFallbacks(t *testing.T) {
	a := Article{URL: "https://example.com/a", Title: "  ", Source: SourceRef{ID: "bbc-news"}}

	assert.Equal(t, NoTitle, a.DisplayTitle())
	assert.Equal(t, NoDescription, a.DisplayDescription())
	assert.Equal(t, "bbc-news", a.SourceName())

	a.Title = "Markets rally"
	a.Description = "Stocks up"
	a.Source.Name = "BBC News"
	assert.Equal(t, "Markets rally", a.DisplayTitle())
	assert.Equal(t, "Stocks up", a.DisplayDescription())
	assert.Equal(t, "BBC News", a.SourceName())
}

func TestArticleEqualityByContent(t *testing.T) {
	a := Article{URL: "https://test.com/article", Title: "Test Article", Source: SourceRef{ID: "t", Name: "T"}}
	b := Article{URL: "https://test.com/article", Title: "Test Article", Source: SourceRef{ID: "t", Name: "T"}}
	assert.True(t, a == b)

	b.Source.Name = "Other"
	assert.False(t, a == b)
}

func TestArticlePublished(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", "2024-01-01T10:30:00Z", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"fractional", "2024-01-01T10:30:00.5Z", time.Date(2024, 1, 1, 10, 30, 0, 500000000, time.UTC)},
		{"date only", "2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"empty", "", time.Time{}},
		{"garbage", "yesterday", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Article{PublishedAt: tt.in}.Published()
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}
