// Package browser owns the Chrome subprocess for one check: allocator and
// browser contexts with a combined cancel, event capture for console
// output, exceptions and native dialogs, and screenshot artifacts. Each
// check gets its own Session; sessions share nothing.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/rohelgravityer/marketeers-login-check/internal/probe"
)

// Options configures a Session.
type Options struct {
	// Headless runs Chrome without a window. Turn off to watch a check.
	Headless bool

	// UserAgent overrides the browser user agent. Empty keeps Chrome's.
	UserAgent string

	// WindowWidth and WindowHeight set the viewport.
	WindowWidth  int
	WindowHeight int

	// ExecPath points at a specific Chrome/Chromium binary. Empty lets
	// chromedp find one.
	ExecPath string

	// ArtifactDir receives screenshots. Empty disables artifacts.
	ArtifactDir string

	// ElementTimeout bounds element-level waits made through Run.
	ElementTimeout time.Duration

	// Logger receives session events. Nil means slog.Default.
	Logger *slog.Logger
}

// dialogEvent records a native JavaScript dialog the page tried to open.
// The login form must never trigger one; the session auto-dismisses and
// remembers it so tests can assert on the count.
type dialogEvent struct {
	kind    string
	message string
}

// consoleEvent tracks calls to the browser's console functions.
type consoleEvent struct {
	api  string
	args []string
}

// Session is one isolated browser/context/page triple.
type Session struct {
	ctx            context.Context
	cancel         context.CancelFunc
	artifacts      *Artifacts
	logger         *slog.Logger
	elementTimeout time.Duration

	mu              sync.RWMutex
	dialogEvents    []dialogEvent
	consoleEvents   []consoleEvent
	exceptionEvents []string
}

// defaultElementTimeout is the standard element wait, matching the budget
// the suite has always used for individual locators.
const defaultElementTimeout = 15 * time.Second

// Open starts a Chrome subprocess and returns a ready Session. Close must
// be called on every exit path; it tears down the subprocess.
func Open(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.IgnoreCertErrors,
		// Slight hardening against the staging rate limiter's bot
		// detection; same flag the manual QA profile uses.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if runtime.GOOS == "linux" {
		// CI runs the checker inside a container; Chrome refuses to
		// start there without this flag.
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Debug))

	s := &Session{
		ctx: ctx,
		cancel: func() {
			ctxCancel()
			allocCancel()
		},
		logger:         logger,
		elementTimeout: opts.ElementTimeout,
	}
	if s.elementTimeout <= 0 {
		s.elementTimeout = defaultElementTimeout
	}

	if opts.ArtifactDir != "" {
		artifacts, err := NewArtifacts(opts.ArtifactDir)
		if err != nil {
			s.cancel()
			return nil, err
		}
		s.artifacts = artifacts
	}

	s.listen()

	// Start the subprocess now so the first navigation does not pay the
	// startup cost inside its own timeout.
	if err := chromedp.Run(ctx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return s, nil
}

// listen subscribes to console, exception and dialog events for the life of
// the session.
func (s *Session) listen() {
	chromedp.ListenTarget(s.ctx, func(ev any) {
		switch ev := ev.(type) {
		case *cdpruntime.EventConsoleAPICalled:
			args := make([]string, len(ev.Args))
			for i, arg := range ev.Args {
				args[i] = string(arg.Value)
			}
			s.mu.Lock()
			s.consoleEvents = append(s.consoleEvents, consoleEvent{api: ev.Type.String(), args: args})
			s.mu.Unlock()

		case *cdpruntime.EventExceptionThrown:
			s.mu.Lock()
			s.exceptionEvents = append(s.exceptionEvents, ev.ExceptionDetails.Error())
			s.mu.Unlock()

		case *page.EventJavascriptDialogOpening:
			s.mu.Lock()
			s.dialogEvents = append(s.dialogEvents, dialogEvent{
				kind:    string(ev.Type),
				message: ev.Message,
			})
			s.mu.Unlock()
			s.logger.Warn("unexpected native dialog", "type", ev.Type, "message", ev.Message)

			// Dismiss from a fresh goroutine; handling a dialog from
			// inside the event callback deadlocks chromedp.
			go func() {
				if err := chromedp.Run(s.ctx, page.HandleJavaScriptDialog(false)); err != nil {
					s.logger.Warn("failed to dismiss dialog", "error", err)
				}
			}()
		}
	})
}

// Close tears down the browser subprocess. Safe to defer immediately after
// Open.
func (s *Session) Close() {
	s.cancel()
}

// Context exposes the session's chromedp context. Contexts derived from it
// with timeouts remain valid for chromedp.Run.
func (s *Session) Context() context.Context {
	return s.ctx
}

// RunID returns the artifact run identifier, or empty when no artifact
// directory was configured.
func (s *Session) RunID() string {
	if s.artifacts == nil {
		return ""
	}
	return s.artifacts.RunID()
}

// Run executes actions against the page, bounded by the element timeout.
func (s *Session) Run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.elementTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Navigate loads url and waits for the DOM to be ready. The given ctx
// bounds the whole operation; it must derive from Context.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// InterstitialVisible probes briefly for the rate limiter's bot-check page.
func (s *Session) InterstitialVisible(ctx context.Context) (bool, error) {
	m, err := probe.FirstVisible(ctx, 2*time.Second, probe.InterstitialCues())
	if err != nil {
		return false, err
	}
	return m.Found, nil
}

// WaitQuiescent blocks until the document settles, within ctx's deadline.
// Used after an interstitial to let the real page replace it.
func (s *Session) WaitQuiescent(ctx context.Context) error {
	var settled bool
	return chromedp.Run(ctx,
		chromedp.Poll(`document.readyState === "complete"`, &settled),
		chromedp.Sleep(500*time.Millisecond),
	)
}

// Location returns the page's current URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Title returns the page's current title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := chromedp.Run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// OuterHTML captures the full document markup, for offline cue scanning and
// failure dumps.
func (s *Session) OuterHTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Evaluate runs a JavaScript expression and unmarshals its result into res.
func (s *Session) Evaluate(ctx context.Context, expr string, res any) error {
	return chromedp.Run(ctx, chromedp.Evaluate(expr, res))
}

// Back navigates one step back in the history.
func (s *Session) Back(ctx context.Context) error {
	return chromedp.Run(ctx, chromedp.NavigateBack())
}

// SaveScreenshot captures the viewport and writes it under the artifact
// directory, returning the file path.
func (s *Session) SaveScreenshot(ctx context.Context, name string) (string, error) {
	if s.artifacts == nil {
		return "", fmt.Errorf("no artifact directory configured")
	}
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return "", fmt.Errorf("failed to take screenshot: %w", err)
	}
	path, err := s.artifacts.Save(name, buf)
	if err != nil {
		return "", err
	}
	s.logger.Info("screenshot saved", "path", path)
	return path, nil
}

// SaveDump writes raw data under the artifact directory, returning the file
// path. Used for failure-time HTML captures.
func (s *Session) SaveDump(name string, data []byte) (string, error) {
	if s.artifacts == nil {
		return "", fmt.Errorf("no artifact directory configured")
	}
	return s.artifacts.Save(name, data)
}

// Cookies exports all cookies of the browser, for remember-me round trips.
func (s *Session) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to export cookies: %w", err)
	}
	return cookies, nil
}

// SetCookies imports previously exported cookies into this session.
func (s *Session) SetCookies(ctx context.Context, cookies []*network.Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
		}
		if c.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &expires
		}
		params = append(params, p)
	}
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("failed to import cookies: %w", err)
	}
	return nil
}

// DialogCount reports how many native dialogs the page opened so far.
func (s *Session) DialogCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dialogEvents)
}

// ExceptionCount reports how many uncaught page exceptions were observed.
func (s *Session) ExceptionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.exceptionEvents)
}

// DumpEvents logs the captured console and exception events. Called at the
// end of failed checks to aid debugging.
func (s *Session) DumpEvents() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.consoleEvents {
		s.logger.Debug("browser console event", "api", e.api, "args", e.args)
	}
	for _, e := range s.exceptionEvents {
		s.logger.Debug("browser exception", "detail", e)
	}
	for _, d := range s.dialogEvents {
		s.logger.Debug("browser dialog", "type", d.kind, "message", d.message)
	}
}
