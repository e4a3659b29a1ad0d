package convert

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

// HTMLConverter prints HTML to PDF with headless Chromium.
type HTMLConverter struct {
	log        *logger.Logger
	execPath   string
	timeout    time.Duration
	paperWidth float64
}

func NewHTMLConverter(log *logger.Logger, execPath string, timeout time.Duration) *HTMLConverter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTMLConverter{
		log:        log.With("client", "HTMLConverter"),
		execPath:   execPath,
		timeout:    timeout,
		paperWidth: 8.5,
	}
}

func (h *HTMLConverter) Supports(from, to string) bool {
	return h != nil && from == "html" && to == "pdf"
}

func (h *HTMLConverter) Convert(ctx context.Context, in Input) ([]byte, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if h.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(h.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	runCtx, cancelRun := chromedp.NewContext(allocCtx)
	defer cancelRun()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, h.timeout)
	defer cancelTimeout()

	var pdf []byte
	dataURL := "data:text/html," + url.PathEscape(string(in.Bytes))
	err := chromedp.Run(runCtx,
		chromedp.Navigate(dataURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, perr := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(h.paperWidth).
				WithPaperHeight(11).
				Do(ctx)
			if perr == nil {
				pdf = buf
			}
			return perr
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp print %s: %w", in.FileName, err)
	}
	return pdf, nil
}
