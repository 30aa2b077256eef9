package processor

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/scraper"
)

func sampleArticles() []*scraper.Article {
	a1 := &scraper.Article{Title: "最初の記事", URL: "https://note.com/u/n/n1", PublishedAt: "2024年1月15日", Views: 1000, Likes: 100, Comments: 10}
	a1.SetText("こんにちは world これはテストです")

	a2 := &scraper.Article{Title: "Second post", URL: "https://note.com/u/n/n2", Views: 500, Likes: 25, Comments: 2}
	a2.SetText("short body text")

	a3 := &scraper.Article{Title: "Draft stats row", URL: "https://note.com/u/n/n3"}

	return []*scraper.Article{a1, a2, a3}
}

func TestStatistics(t *testing.T) {
	p := New(sampleArticles(), t.TempDir(), observability.NewNop())

	stats := p.Statistics()

	assert.Equal(t, 3, stats.TotalArticles)
	assert.Equal(t, 1500, stats.TotalViews)
	assert.Equal(t, 125, stats.TotalLikes)
	assert.Equal(t, 12, stats.TotalComments)
	assert.InDelta(t, 500.0, stats.AvgViews, 0.01)
	// Only the two articles with views count toward the ratio: 125/1500.
	assert.InDelta(t, 8.33, stats.LikeRatio, 0.01)
	assert.Greater(t, stats.TotalWords, 0)
}

func TestStatisticsEmpty(t *testing.T) {
	p := New(nil, t.TempDir(), observability.NewNop())

	stats := p.Statistics()

	assert.Equal(t, 0, stats.TotalArticles)
	assert.Zero(t, stats.AvgViews)
	assert.Zero(t, stats.LikeRatio)
}

func TestSaveCSV(t *testing.T) {
	dir := t.TempDir()
	p := New(sampleArticles(), dir, observability.NewNop())

	path, err := p.SaveCSV()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "note_data_"))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, []string{"title", "url", "published_at", "views", "likes", "comments", "char_count", "text_content"}, records[0])
	assert.Equal(t, "最初の記事", records[1][0])
	assert.Equal(t, "1000", records[1][3])
	assert.Equal(t, "0", records[3][3])
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	p := New(sampleArticles(), dir, observability.NewNop())

	path, err := p.WriteReport()
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	report := string(content)
	assert.Contains(t, report, "Articles: 3")
	assert.Contains(t, report, "Views: 1500")
	assert.Contains(t, report, "Top 5 by views")
	assert.Contains(t, report, "1. 最初の記事 - 1000 views")
}

func TestRenderSummary(t *testing.T) {
	p := New(sampleArticles(), t.TempDir(), observability.NewNop())

	var buf bytes.Buffer
	p.RenderSummary(&buf)

	out := buf.String()
	assert.Contains(t, out, "最初の記事")
	assert.Contains(t, out, "1000")
	assert.Contains(t, out, "TOTAL (3 articles)")
}

func TestCountWordsSkipsPunctuation(t *testing.T) {
	assert.Equal(t, 3, countWords("hello, big world!"))
	assert.Equal(t, 0, countWords("... --- !!!"))
	assert.Equal(t, 0, countWords(""))
}
