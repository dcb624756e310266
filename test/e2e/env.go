// Package e2e holds the browser-driven tests for the agency login flow.
//
// The tests need a reachable deployment and a valid credential pair, so
// they are gated on the LOGINCHECK_EMAIL and LOGINCHECK_PASSWORD
// environment variables and skip themselves otherwise. By convention every
// root test that launches Chrome has a name ending in "_Browser" so the
// whole set can be selected or excluded with -run.
package e2e

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rohelgravityer/marketeers-login-check/internal/browser"
	"github.com/rohelgravityer/marketeers-login-check/internal/config"
	"github.com/rohelgravityer/marketeers-login-check/internal/log"
	"github.com/rohelgravityer/marketeers-login-check/internal/loginpage"
	"github.com/rohelgravityer/marketeers-login-check/internal/navigator"
	"github.com/rohelgravityer/marketeers-login-check/internal/outcome"
)

// TestEnv carries everything one browser-driven test needs.
type TestEnv struct {
	Config  *config.Config
	Session *browser.Session
	Page    *loginpage.Page
}

// IntegrationEnv reads the target configuration from the environment and
// skips the test when the credential pair is not provided.
func IntegrationEnv(t *testing.T) *config.Config {
	t.Helper()

	if os.Getenv(config.EnvEmail) == "" || os.Getenv(config.EnvPassword) == "" {
		t.Skipf("browser test requires %s and %s", config.EnvEmail, config.EnvPassword)
	}

	cfg := config.New()
	require.NoError(t, cfg.ApplyEnv())
	if cfg.ArtifactDir == config.DefaultArtifactDir {
		cfg.ArtifactDir = t.TempDir()
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

// StartSession launches Chrome for cfg and returns the session plus a page
// object already pointed at the login URL. The browser is torn down by
// t.Cleanup.
func StartSession(t *testing.T, cfg *config.Config) *TestEnv {
	t.Helper()

	logger := log.NewLogger(testWriter{t}, testing.Verbose())
	session, err := browser.Open(browser.Options{
		Headless:       cfg.Headless,
		UserAgent:      config.DefaultUserAgent,
		WindowWidth:    config.DefaultWindowWidth,
		WindowHeight:   config.DefaultWindowHeight,
		ArtifactDir:    cfg.ArtifactDir,
		ElementTimeout: cfg.LoginTimeout,
		Logger:         logger,
	})
	require.NoError(t, err, "could not start Chrome")
	t.Cleanup(session.Close)

	page := loginpage.New(session, loginpage.Config{
		LoginURL:           cfg.LoginURL(),
		NavigationAttempts: cfg.NavigationAttempts,
		NavigationTimeout:  cfg.NavigationTimeout,
		ProbeTimeout:       cfg.ProbeTimeout,
		Logger:             logger,
	})
	return &TestEnv{Config: cfg, Session: session, Page: page}
}

// OpenLoginPage is StartSession plus navigating to the login form. A page
// that cannot be opened is an environment problem, so the test is skipped
// rather than failed.
func OpenLoginPage(t *testing.T, cfg *config.Config) *TestEnv {
	t.Helper()

	env := StartSession(t, cfg)
	if err := env.Page.Open(env.Session.Context()); err != nil {
		if reason := inconclusiveReason(err); reason != "" {
			t.Skipf("login page did not load: %s", reason)
		}
		require.NoError(t, err)
	}
	return env
}

// inconclusiveReason returns a non-empty skip reason when err is an
// environment failure rather than a product one. Only those may turn into
// skips; everything else stays a hard failure.
func inconclusiveReason(err error) string {
	if errors.Is(err, navigator.ErrInconclusive) {
		return err.Error()
	}
	return ""
}

// Classify waits up to the login timeout for the post-submit location to
// settle against the dashboard pattern.
func (e *TestEnv) Classify(ctx context.Context) outcome.Location {
	classifier := outcome.New(e.Config.DashboardRegexp())
	classifier.Interval = e.Config.PollInterval
	return classifier.Classify(ctx, e.Config.LoginTimeout, e.Session.Location)
}

// RequireStillOnLogin asserts that the submit did not navigate to the
// dashboard and that the browser sits on the login form itself, not on
// some third page a rejection might bounce to. A screenshot is captured
// when the dashboard was unexpectedly reached.
func (e *TestEnv) RequireStillOnLogin(t *testing.T, ctx context.Context) {
	t.Helper()

	loc := e.Classify(ctx)
	if loc == outcome.ReachedTarget {
		if path, err := e.Session.SaveScreenshot(ctx, t.Name()+".png"); err == nil {
			t.Logf("screenshot of unexpected dashboard: %s", path)
		}
	}
	require.Equal(t, outcome.RemainedAtSource, loc,
		"credentials should have been rejected")

	url, err := e.Session.Location(ctx)
	require.NoError(t, err)
	require.Truef(t, stillOnLogin(url),
		"rejected login should stay on the login form, got %s", url)
}

// stillOnLogin reports whether url is the login form. Redirecting a
// rejected login anywhere else would pass a pure dashboard-pattern check
// while still being a regression.
func stillOnLogin(url string) bool {
	return strings.Contains(url, "/login")
}

// reopenLogin navigates the existing session back to the login form
// between attempts of a multi-submit test. Navigation exhaustion mid-test
// is environmental and skips, same as at test start.
func (e *TestEnv) reopenLogin(t *testing.T, ctx context.Context) {
	t.Helper()
	if err := e.Page.Open(ctx); err != nil {
		if reason := inconclusiveReason(err); reason != "" {
			t.Skipf("login page stopped loading mid-test: %s", reason)
		}
		require.NoError(t, err)
	}
	// Give client-side state a beat to reset between submissions.
	time.Sleep(200 * time.Millisecond)
}

// testWriter adapts t.Logf so browser logs land in the test output.
type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}
