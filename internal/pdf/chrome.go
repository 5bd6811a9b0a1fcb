package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aniladanir/lr-gateway/internal/domain"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

const DefaultTimeout = 60 * time.Second

type Renderer struct {
	outDir     string
	chromePath string
	company    string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewRenderer creates a renderer writing PDFs into outDir. An empty
// chromePath lets chromedp find the browser on PATH.
func NewRenderer(outDir, chromePath, company string, timeout time.Duration, logger *slog.Logger) (*Renderer, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Renderer{
		outDir:     outDir,
		chromePath: chromePath,
		company:    company,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// RenderLR renders rec with template templateID and returns the PDF path.
// The whole browser session is bounded by the renderer timeout.
func (r *Renderer) RenderLR(ctx context.Context, templateID int, rec domain.LRRecord, raw string) (string, error) {
	html, err := RenderHTML(templateID, r.company, rec, raw)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("render timed out after %s: %w", r.timeout, err)
		}
		return "", fmt.Errorf("render pdf: %w", err)
	}

	path := filepath.Join(r.outDir, fmt.Sprintf("LR-%s-%s.pdf", sanitize(rec.TruckNumber), uuid.NewString()))
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	r.logger.Debug("pdf rendered", "path", path, "template", templateID)
	return path, nil
}
