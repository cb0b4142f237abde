package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// ReportRowsSelector marks the export table as rendered.
const ReportRowsSelector = "table.bordered tbody tr"

const collectHrefsJS = `Array.from(document.querySelectorAll('a'))
	.map(a => a.getAttribute('href'))
	.filter(Boolean)`

// LinkSource yields the workbook URLs to download.
type LinkSource interface {
	Links(ctx context.Context) ([]string, error)
}

// BrowserSource renders the export page in headless Chrome and collects its workbook links.
type BrowserSource struct {
	PageURL  string
	BaseURL  string
	Headless bool
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Links implements LinkSource.
func (b *BrowserSource) Links(ctx context.Context) ([]string, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", b.Headless))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if b.Timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, b.Timeout)
		defer cancel()
	}

	start := time.Now()
	var hrefs []string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(b.PageURL),
		chromedp.WaitVisible(ReportRowsSelector, chromedp.ByQuery),
		chromedp.Evaluate(collectHrefsJS, &hrefs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load export page %q: %w", b.PageURL, err)
	}

	links := ExcelLinks(hrefs, b.BaseURL)
	logger.Info("Export page scanned",
		slog.String("url", b.PageURL),
		slog.Int("anchors", len(hrefs)),
		slog.Int("workbooks", len(links)),
		slog.Duration("elapsed", time.Since(start)))
	return links, nil
}

// ExcelLinks keeps the hrefs pointing at .xls/.xlsx files and makes them absolute.
func ExcelLinks(hrefs []string, baseURL string) []string {
	var links []string
	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		lower := strings.ToLower(href)
		if !strings.HasSuffix(lower, ".xls") && !strings.HasSuffix(lower, ".xlsx") {
			continue
		}
		links = append(links, NormalizeLink(href, baseURL))
	}
	return links
}

// NormalizeLink resolves protocol-relative ("//host/x") and root-relative ("/x") links.
func NormalizeLink(href, baseURL string) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return strings.TrimRight(baseURL, "/") + href
	default:
		return href
	}
}

// FileName is the last path segment of a download URL, without its query.
func FileName(link string) string {
	if u, err := url.Parse(link); err == nil && u.Path != "" {
		if name, err := url.PathUnescape(path.Base(u.Path)); err == nil {
			return name
		}
		return path.Base(u.Path)
	}
	link, _, _ = strings.Cut(link, "?")
	return path.Base(link)
}
