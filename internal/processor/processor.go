// Package processor turns crawled records into the deliverables: a CSV
// export, a text summary report, and a console table.
package processor

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/scraper"
)

type Processor struct {
	articles  []*scraper.Article
	outputDir string
	logger    *observability.Logger
}

func New(articles []*scraper.Article, outputDir string, logger *observability.Logger) *Processor {
	return &Processor{
		articles:  articles,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Stats are the aggregate figures reported over one crawl.
type Stats struct {
	TotalArticles int
	TotalViews    int
	TotalLikes    int
	TotalComments int
	TotalChars    int
	TotalWords    int
	AvgViews      float64
	AvgLikes      float64
	AvgComments   float64
	AvgChars      float64
	// LikeRatio is total likes over total views (percent), computed over
	// articles with a nonzero view count.
	LikeRatio float64
}

// Statistics computes the aggregates.
func (p *Processor) Statistics() Stats {
	stats := Stats{TotalArticles: len(p.articles)}
	if len(p.articles) == 0 {
		return stats
	}

	viewedViews, viewedLikes := 0, 0
	for _, a := range p.articles {
		stats.TotalViews += a.Views
		stats.TotalLikes += a.Likes
		stats.TotalComments += a.Comments
		stats.TotalChars += a.CharCount
		stats.TotalWords += countWords(a.TextContent)
		if a.Views > 0 {
			viewedViews += a.Views
			viewedLikes += a.Likes
		}
	}

	n := float64(len(p.articles))
	stats.AvgViews = round2(float64(stats.TotalViews) / n)
	stats.AvgLikes = round2(float64(stats.TotalLikes) / n)
	stats.AvgComments = round2(float64(stats.TotalComments) / n)
	stats.AvgChars = round2(float64(stats.TotalChars) / n)

	if viewedViews > 0 {
		stats.LikeRatio = round2(float64(viewedLikes) / float64(viewedViews) * 100)
	}

	return stats
}

// SaveCSV writes all records to a timestamped CSV file in the output
// directory and returns its path.
func (p *Processor) SaveCSV() (string, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(p.outputDir, fmt.Sprintf("note_data_%s.csv", time.Now().Format("20060102_150405")))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			p.logger.Warn("Failed to close CSV file", "error", closeErr.Error())
		}
	}()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"title", "url", "published_at", "views", "likes", "comments", "char_count", "text_content"}); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, a := range p.articles {
		record := []string{
			a.Title,
			a.URL,
			a.PublishedAt,
			strconv.Itoa(a.Views),
			strconv.Itoa(a.Likes),
			strconv.Itoa(a.Comments),
			strconv.Itoa(a.CharCount),
			a.TextContent,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	p.logger.Info("CSV saved", "path", path, "records", len(p.articles))
	return path, nil
}

// WriteReport writes the human-readable summary to a timestamped text file
// and returns its path.
func (p *Processor) WriteReport() (string, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	stats := p.Statistics()
	path := filepath.Join(p.outputDir, fmt.Sprintf("note_report_%s.txt", time.Now().Format("20060102_150405")))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			p.logger.Warn("Failed to close report file", "error", closeErr.Error())
		}
	}()

	fmt.Fprintf(file, "# note Dashboard Data Report\n\n")
	fmt.Fprintf(file, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(file, "## Totals\n\n")
	fmt.Fprintf(file, "- Articles: %d\n", stats.TotalArticles)
	fmt.Fprintf(file, "- Views: %d\n", stats.TotalViews)
	fmt.Fprintf(file, "- Likes: %d\n", stats.TotalLikes)
	fmt.Fprintf(file, "- Comments: %d\n", stats.TotalComments)
	fmt.Fprintf(file, "- Characters: %d\n", stats.TotalChars)
	fmt.Fprintf(file, "- Words: %d\n\n", stats.TotalWords)

	fmt.Fprintf(file, "## Per-article averages\n\n")
	fmt.Fprintf(file, "- Views: %.1f\n", stats.AvgViews)
	fmt.Fprintf(file, "- Likes: %.1f\n", stats.AvgLikes)
	fmt.Fprintf(file, "- Comments: %.1f\n", stats.AvgComments)
	fmt.Fprintf(file, "- Characters: %.1f\n\n", stats.AvgChars)

	fmt.Fprintf(file, "## Engagement\n\n")
	fmt.Fprintf(file, "- Like ratio: %.2f%% (likes over views)\n\n", stats.LikeRatio)

	fmt.Fprintf(file, "## Top 5 by views\n\n")
	for i, a := range p.topBy(func(a *scraper.Article) int { return a.Views }) {
		fmt.Fprintf(file, "%d. %s - %d views\n", i+1, a.Title, a.Views)
	}

	fmt.Fprintf(file, "\n## Top 5 by likes\n\n")
	for i, a := range p.topBy(func(a *scraper.Article) int { return a.Likes }) {
		fmt.Fprintf(file, "%d. %s - %d likes\n", i+1, a.Title, a.Likes)
	}

	p.logger.Info("Report saved", "path", path)
	return path, nil
}

// RenderSummary prints the run summary and the top articles by views to the
// given writer.
func (p *Processor) RenderSummary(w io.Writer) {
	stats := p.Statistics()

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	table.Header([]string{"Title", "Views", "Likes", "Comments", "Chars"})

	rows := make([][]string, 0, 6)
	for _, a := range p.topBy(func(a *scraper.Article) int { return a.Views }) {
		rows = append(rows, []string{
			truncateTitle(a.Title, 40),
			strconv.Itoa(a.Views),
			strconv.Itoa(a.Likes),
			strconv.Itoa(a.Comments),
			strconv.Itoa(a.CharCount),
		})
	}
	rows = append(rows, []string{
		fmt.Sprintf("TOTAL (%d articles)", stats.TotalArticles),
		strconv.Itoa(stats.TotalViews),
		strconv.Itoa(stats.TotalLikes),
		strconv.Itoa(stats.TotalComments),
		strconv.Itoa(stats.TotalChars),
	})

	table.Bulk(rows)
	table.Render()
}

func truncateTitle(title string, max int) string {
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}
	return string(runes[:max-1]) + "…"
}

// topBy returns up to five articles sorted descending by the given metric.
func (p *Processor) topBy(metric func(*scraper.Article) int) []*scraper.Article {
	sorted := make([]*scraper.Article, len(p.articles))
	copy(sorted, p.articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return metric(sorted[i]) > metric(sorted[j])
	})
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	return sorted
}

// countWords segments text per UAX #29 and counts tokens that carry at least
// one letter or digit.
func countWords(text string) int {
	count := 0
	tokens := words.FromString(text)
	for tokens.Next() {
		if hasLetterOrDigit(tokens.Value()) {
			count++
		}
	}
	return count
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
