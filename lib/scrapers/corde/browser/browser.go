// Package browser drives a live Chromium-family browser through the corpus
// query form and exposes the results view as a harvest.Page.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"corde-harvester/lib/scrapers/corde"
	"corde-harvester/lib/telemetry"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("corde.lib.scrapers.corde.browser")

var ErrUnsupportedBrowser = errors.New("unsupported browser")

const (
	report_session_dialog = "session.dialog"
)

type Options struct {
	// Browser is one of chrome, chromium or edge.
	Browser string
	// ExecPath overrides the executable lookup.
	ExecPath string
	Headless bool
	// SearchURL defaults to corde.SearchURL.
	SearchURL string
	Selectors corde.Selectors
	// SubmitTimeout bounds the wait for the user to submit a query.
	SubmitTimeout time.Duration
	// PageTimeout bounds every page operation.
	PageTimeout time.Duration
	// ClicksPerSecond paces pagination, 0 defaults to 1.
	ClicksPerSecond float64
	Tel             telemetry.API
}

var edgeCandidates = map[string][]string{
	"linux":   {"microsoft-edge", "microsoft-edge-stable"},
	"darwin":  {"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"},
	"windows": {`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`, `C:\Program Files\Microsoft\Edge\Application\msedge.exe`},
}

// ExecPath resolves the executable for a browser name, "" lets chromedp
// find a Chrome installation on its own.
func ExecPath(browser string) (string, error) {
	switch strings.ToLower(browser) {
	case "", "chrome":
		return "", nil
	case "chromium":
		for _, name := range []string{"chromium", "chromium-browser"} {
			if path, err := exec.LookPath(name); err == nil {
				return path, nil
			}
		}
		return "", fmt.Errorf("chromium executable not found in PATH")
	case "edge":
		for _, candidate := range edgeCandidates[runtime.GOOS] {
			if path, err := exec.LookPath(candidate); err == nil {
				return path, nil
			}
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("microsoft edge executable not found")
	case "firefox":
		return "", fmt.Errorf("%w: firefox does not speak the chrome devtools protocol, use chrome, chromium or edge", ErrUnsupportedBrowser)
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedBrowser, browser)
}

// Session is one running browser.
type Session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    Options
	limiter *rate.Limiter
	tel     telemetry.API

	dialogOpen atomic.Bool
}

// Launch starts the browser, it is closed when ctx is done or Close is
// called.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	if opts.SearchURL == "" {
		opts.SearchURL = corde.SearchURL
	}
	if opts.Selectors == (corde.Selectors{}) {
		opts.Selectors = corde.DefaultSelectors()
	}
	if opts.SubmitTimeout == 0 {
		opts.SubmitTimeout = 5 * time.Minute
	}
	if opts.PageTimeout == 0 {
		opts.PageTimeout = 30 * time.Second
	}
	if opts.ClicksPerSecond <= 0 {
		opts.ClicksPerSecond = 1
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}

	execPath := opts.ExecPath
	if execPath == "" {
		var err error
		execPath, err = ExecPath(opts.Browser)
		if err != nil {
			return nil, err
		}
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.ClicksPerSecond), 1),
		tel:     telemetry.NewScopedAPI("corde_browser", opts.Tel),
	}

	chromedp.ListenTarget(browserCtx, func(ev any) {
		e, ok := ev.(*page.EventJavascriptDialogOpening)
		if !ok {
			return
		}
		if e.Type == page.DialogTypeBeforeunload {
			// leave-page prompts would block reloads, accept them right away
			go func() {
				err := chromedp.Run(browserCtx, page.HandleJavaScriptDialog(true))
				if err != nil {
					s.tel.ReportWarning(report_session_dialog, err)
				}
			}()
			return
		}
		s.dialogOpen.Store(true)
	})

	// starts the browser process
	err := chromedp.Run(browserCtx)
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	return s, nil
}

func (s *Session) Close() {
	s.cancel()
}

// run executes actions in the browser tab, bounded by timeout and by the
// caller's ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// OpenSearch opens the query form and blocks until the user has submitted
// a query and its results are shown.
func (s *Session) OpenSearch(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session:OpenSearch")
	defer span.End()
	span.SetAttributes(attribute.String("url", s.opts.SearchURL))

	err := s.run(ctx, s.opts.PageTimeout,
		chromedp.Navigate(s.opts.SearchURL),
		chromedp.WaitReady(s.opts.Selectors.Submit, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open search form")
		return fmt.Errorf("open search form: %w", err)
	}

	err = s.run(ctx, s.opts.SubmitTimeout,
		chromedp.WaitNotPresent(s.opts.Selectors.Submit, chromedp.ByQuery),
		chromedp.WaitVisible(s.opts.Selectors.Ready, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no query submitted")
		return fmt.Errorf("wait for query results: %w", err)
	}
	return nil
}

// Page returns the results view of this session.
func (s *Session) Page() *Page {
	return &Page{session: s}
}

func jsString(s string) string {
	encoded, _ := json.Marshal(s)
	return string(encoded)
}
