// Package render prints HTML documents to PDF with headless Chrome.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/fablecraft/backend/internal/infrastructure/config"
)

const defaultTimeout = 30 * time.Second

// A4 in inches
const (
	paperWidth  = 8.27
	paperHeight = 11.69
	margin      = 0.6
)

// ErrEmptyDocument is returned for blank input
var ErrEmptyDocument = errors.New("document is empty")

// ErrRenderTimeout is returned when Chrome does not finish in time
var ErrRenderTimeout = errors.New("pdf rendering timed out")

// footerTemplate numbers every page
const footerTemplate = `<div style="font-size:8px;width:100%;text-align:center;color:#666;">` +
	`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`

// ChromeRenderer converts HTML to PDF through the DevTools protocol. The
// browser is started lazily by the first Render.
type ChromeRenderer struct {
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromeRenderer creates a renderer. With a remote URL it attaches to a
// running Chrome; otherwise it launches a local headless one.
func NewChromeRenderer(cfg config.RenderConfig, logger *zap.Logger) *ChromeRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ChromeRenderer{
		timeout: cfg.Timeout,
		logger:  logger.Named("render"),
	}
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}

	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// Render prints the HTML to an A4 PDF
func (r *ChromeRenderer) Render(ctx context.Context, title, body string) ([]byte, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyDocument
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// stop the tab when the request context ends
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	document := Document(title, body)
	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate("<span></span>").
				WithFooterTemplate(footerTemplate).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrRenderTimeout, r.timeout)
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("generated PDF is empty")
	}

	r.logger.Info("PDF rendered",
		zap.String("title", title),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)),
	)
	return pdf, nil
}

// Close shuts the browser down
func (r *ChromeRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// Document wraps a body fragment into a printable HTML page. Complete
// documents are returned unchanged.
func Document(title, body string) string {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return body
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html><html><head><meta charset=\"UTF-8\">")
	if title != "" {
		buf.WriteString("<title>")
		buf.WriteString(html.EscapeString(title))
		buf.WriteString("</title>")
	}
	buf.WriteString("<style>")
	buf.WriteString(printCSS)
	buf.WriteString("</style></head><body>")
	buf.WriteString(body)
	buf.WriteString("</body></html>")
	return buf.String()
}

const printCSS = `body{font-family:Georgia,serif;font-size:11pt;line-height:1.5;color:#222}` +
	`h1{font-size:22pt;border-bottom:2px solid #444;padding-bottom:4px}` +
	`h2{font-size:16pt;margin-top:24pt;page-break-after:avoid}` +
	`h3{font-size:13pt;margin-top:14pt;page-break-after:avoid}` +
	`ul{margin:4pt 0}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:2pt 6pt}`
