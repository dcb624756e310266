// Package checker runs the end-to-end login check: open the login page,
// submit the known-good credentials, classify where the browser ended up,
// and assemble the evidence into a report.
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rohelgravityer/marketeers-login-check/internal/browser"
	"github.com/rohelgravityer/marketeers-login-check/internal/config"
	"github.com/rohelgravityer/marketeers-login-check/internal/loginpage"
	"github.com/rohelgravityer/marketeers-login-check/internal/navigator"
	"github.com/rohelgravityer/marketeers-login-check/internal/outcome"
	"github.com/rohelgravityer/marketeers-login-check/internal/probe"
	"github.com/rohelgravityer/marketeers-login-check/internal/report"
)

// Checker runs login checks against one configured target.
type Checker struct {
	Config *config.Config
	Logger *slog.Logger

	// ExecPath overrides the Chrome binary location; empty uses the
	// chromedp default lookup.
	ExecPath string
}

// New returns a Checker for cfg.
func New(cfg *config.Config, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{Config: cfg, Logger: logger}
}

// Run performs one full check. The returned Run is always usable, even on
// error. The error wraps navigator.ErrInconclusive when the environment
// rather than the product was at fault.
func (c *Checker) Run(ctx context.Context) (*report.Run, error) {
	cfg := c.Config
	run := &report.Run{
		ID:        uuid.NewString(),
		Target:    cfg.LoginURL(),
		StartedAt: time.Now(),
	}
	defer func() { run.Duration = time.Since(run.StartedAt) }()

	session, err := browser.Open(browser.Options{
		Headless:       cfg.Headless,
		UserAgent:      config.DefaultUserAgent,
		WindowWidth:    config.DefaultWindowWidth,
		WindowHeight:   config.DefaultWindowHeight,
		ExecPath:       c.ExecPath,
		ArtifactDir:    cfg.ArtifactDir,
		ElementTimeout: cfg.LoginTimeout,
		Logger:         c.Logger,
	})
	if err != nil {
		err = fmt.Errorf("%w: could not start browser: %w", navigator.ErrInconclusive, err)
		return c.finish(run, report.VerdictInconclusive, err), err
	}
	defer session.Close()
	if id := session.RunID(); id != "" {
		run.ID = id
	}

	page := loginpage.New(session, loginpage.Config{
		LoginURL:           cfg.LoginURL(),
		NavigationAttempts: cfg.NavigationAttempts,
		NavigationTimeout:  cfg.NavigationTimeout,
		ProbeTimeout:       cfg.ProbeTimeout,
		Logger:             c.Logger,
	})

	sctx := session.Context()

	if err := c.step(run, "open login page", func() error {
		return page.Open(sctx)
	}); err != nil {
		return c.finish(run, VerdictFor(outcome.Indeterminate, err), err), err
	}

	c.probeAffordances(sctx, run)

	if err := c.step(run, "submit valid credentials", func() error {
		return page.SubmitCredentials(sctx, cfg.Email, cfg.Password)
	}); err != nil {
		err = fmt.Errorf("%w: %w", navigator.ErrInconclusive, err)
		return c.finish(run, report.VerdictInconclusive, err), err
	}

	classifier := outcome.New(cfg.DashboardRegexp())
	classifier.Interval = cfg.PollInterval

	start := time.Now()
	loc := classifier.Classify(sctx, cfg.LoginTimeout, session.Location)
	run.AddStep("classify post-submit location", loc.String(), "", time.Since(start))

	verdict := VerdictFor(loc, nil)
	switch loc {
	case outcome.ReachedTarget:
		c.Logger.Info("login reached the dashboard", "target", run.Target)
	case outcome.RemainedAtSource:
		c.Logger.Warn("login remained on the login page", "target", run.Target)
		c.captureFailure(sctx, session, page, run)
	default:
		err = fmt.Errorf("%w: post-submit location could not be read", navigator.ErrInconclusive)
	}
	return c.finish(run, verdict, err), err
}

// VerdictFor maps a location classification and an optional terminal error
// onto a run verdict. Environment errors are inconclusive; only a readable
// page that stayed on the login form is a product failure.
func VerdictFor(loc outcome.Location, err error) report.Verdict {
	if err != nil {
		if errors.Is(err, navigator.ErrInconclusive) {
			return report.VerdictInconclusive
		}
		return report.VerdictFail
	}
	switch loc {
	case outcome.ReachedTarget:
		return report.VerdictPass
	case outcome.RemainedAtSource:
		return report.VerdictFail
	default:
		return report.VerdictInconclusive
	}
}

// FeatureDetail renders a tri-state affordance probe for the report.
func FeatureDetail(m probe.Match, err error) string {
	switch {
	case err != nil:
		return fmt.Sprintf("probe error: %v", err)
	case m.Found:
		return fmt.Sprintf("present (%s)", m.Name)
	default:
		return probe.FeatureAbsent.String()
	}
}

func (c *Checker) step(run *report.Run, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if err != nil {
		run.AddStep(name, "error", err.Error(), time.Since(start))
		c.Logger.Error(name, "error", err)
		return err
	}
	run.AddStep(name, "ok", "", time.Since(start))
	return nil
}

// probeAffordances records which optional login page features exist. The
// probes only look; exercising the features is the e2e suite's job.
func (c *Checker) probeAffordances(ctx context.Context, run *report.Run) {
	for _, f := range []struct {
		name string
		cues []probe.Candidate
	}{
		{"password visibility toggle", probe.VisibilityToggleCues()},
		{"forgot password link", probe.ForgotPasswordCues()},
	} {
		start := time.Now()
		m, err := probe.FirstVisible(ctx, c.Config.ProbeTimeout, f.cues)
		run.AddStep("probe "+f.name, probeOutcome(m, err), FeatureDetail(m, err), time.Since(start))
	}
}

func probeOutcome(m probe.Match, err error) string {
	switch {
	case err != nil:
		return "error"
	case m.Found:
		return "present"
	default:
		return "absent"
	}
}

// captureFailure gathers evidence for a rejected login: the visible error
// cue if any, a screenshot, and the page markup for offline cue scanning.
func (c *Checker) captureFailure(ctx context.Context, session *browser.Session, page *loginpage.Page, run *report.Run) {
	start := time.Now()
	m, err := page.ErrorCue(ctx)
	switch {
	case err != nil:
		run.AddStep("probe error cue", "error", err.Error(), time.Since(start))
	case m.Found:
		run.AddStep("probe error cue", "present", m.Name, time.Since(start))
	default:
		// No visible cue for a rejected login is worth flagging even
		// though the URL evidence already decides the verdict.
		run.AddStep("probe error cue", "absent", "login rejected without a visible error cue", time.Since(start))
		c.Logger.Warn("login rejected but no error cue is visible", "target", run.Target)
	}

	if path, err := session.SaveScreenshot(ctx, "login_failed.png"); err == nil {
		run.AddArtifact(path)
	} else {
		c.Logger.Warn("could not capture failure screenshot", "error", err)
	}

	if html, err := session.OuterHTML(ctx); err == nil {
		if scan := probe.ScanHTML(html); scan.Found {
			run.AddStep("scan page markup", "present", scan.Name, 0)
		}
		if path, err := session.SaveDump("login_failed.html", []byte(html)); err == nil {
			run.AddArtifact(path)
		}
	} else {
		c.Logger.Warn("could not capture failure markup", "error", err)
	}
}

func (c *Checker) finish(run *report.Run, verdict report.Verdict, err error) *report.Run {
	run.Verdict = verdict
	if err != nil {
		run.Error = err.Error()
	}
	return run
}
