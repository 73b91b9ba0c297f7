package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// HTMLConverter renders HTML documents to PDF bytes through a headless
// Chrome instance driven over the DevTools protocol. Each conversion runs
// in its own browser context; the contract is a synchronous call that
// suspends until bytes are ready or an error is reported.
type HTMLConverter struct {
	logger  *slog.Logger
	timeout time.Duration
}

// NewHTMLConverter creates an HTMLConverter with the given per-conversion
// timeout.
func NewHTMLConverter(logger *slog.Logger, timeout time.Duration) *HTMLConverter {
	return &HTMLConverter{
		logger:  logger.With("system", "htmlpdf"),
		timeout: timeout,
	}
}

// ConvertHTML renders the given HTML document and returns the PDF bytes.
func (c *HTMLConverter) ConvertHTML(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("print to pdf: %w", err)
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	c.logger.Debug("html rendered", "html_bytes", len(html), "pdf_bytes", len(pdf))
	return pdf, nil
}
