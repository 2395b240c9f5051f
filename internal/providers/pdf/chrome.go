package pdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// networkQuietPeriod is how long a page must have no pending requests before
// it is considered settled.
const networkQuietPeriod = 500 * time.Millisecond

// ChromeRasterizer prints markup to PDF with a shared headless Chrome. The
// browser process is started on first use; every Acquire opens a separate
// browser context so no state is shared between documents.
type ChromeRasterizer struct {
	cfg *config.RenderConfigHolder
	log *zap.Logger

	mu            sync.Mutex
	allocCtx      context.Context
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
}

func NewChromeRasterizer(lc fx.Lifecycle, cfg *config.RenderConfigHolder, log *zap.Logger) domain.Rasterizer {
	r := &ChromeRasterizer{cfg: cfg, log: log.Named("rasterizer.chrome")}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			r.Close()
			return nil
		},
	})
	return r
}

func (r *ChromeRasterizer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx != nil && r.browserCtx.Err() == nil {
		return r.browserCtx, nil
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.DisableGPU, chromedp.NoSandbox)
	if path := r.cfg.Get().ChromePath; path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, err
	}

	r.allocCtx, r.cancelAlloc = allocCtx, cancelAlloc
	r.browserCtx, r.cancelBrowser = browserCtx, cancelBrowser
	r.log.Info("headless browser started")
	return browserCtx, nil
}

func (r *ChromeRasterizer) Acquire(ctx context.Context) (domain.RenderContext, error) {
	parent, err := r.browser()
	if err != nil {
		return nil, fmt.Errorf("%w: start browser: %w", domain.ErrRender, err)
	}

	tabCtx, cancel := chromedp.NewContext(parent, chromedp.WithNewBrowserContext())
	tracker := newNetworkTracker()
	chromedp.ListenTarget(tabCtx, tracker.observe)

	if err := chromedp.Run(tabCtx, network.Enable(), page.SetLifecycleEventsEnabled(true)); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: open context: %w", domain.ErrRender, err)
	}

	return &chromeContext{
		ctx:     tabCtx,
		cancel:  cancel,
		tracker: tracker,
		paper:   r.cfg.Get(),
	}, nil
}

// Close stops the browser process.
func (r *ChromeRasterizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelBrowser != nil {
		r.cancelBrowser()
	}
	if r.cancelAlloc != nil {
		r.cancelAlloc()
	}
	r.browserCtx, r.allocCtx = nil, nil
}

type chromeContext struct {
	ctx     context.Context
	cancel  context.CancelFunc
	tracker *networkTracker
	paper   config.RenderConfig
	once    sync.Once
}

func (c *chromeContext) Print(ctx context.Context, markup string) ([]byte, error) {
	stop := context.AfterFunc(ctx, c.cancel)
	defer stop()

	var out []byte
	err := chromedp.Run(c.ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, markup).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(c.tracker.waitIdle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(c.paper.PaperWidth).
				WithPaperHeight(c.paper.PaperHeight).
				Do(ctx)
			out = buf
			return err
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(err, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRender, err)
	}
	return out, nil
}

// Release closes the browser context. It is safe to call more than once.
func (c *chromeContext) Release() {
	c.once.Do(c.cancel)
}

type networkTracker struct {
	mu         sync.Mutex
	inflight   map[network.RequestID]struct{}
	lastChange time.Time
}

func newNetworkTracker() *networkTracker {
	return &networkTracker{
		inflight:   make(map[network.RequestID]struct{}),
		lastChange: time.Now(),
	}
}

func (t *networkTracker) observe(ev any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.inflight[e.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(t.inflight, e.RequestID)
	case *network.EventLoadingFailed:
		delete(t.inflight, e.RequestID)
	default:
		return
	}
	t.lastChange = time.Now()
}

func (t *networkTracker) idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && time.Since(t.lastChange) >= networkQuietPeriod
}

// waitIdle blocks until no request has been pending for networkQuietPeriod.
func (t *networkTracker) waitIdle(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if t.idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
