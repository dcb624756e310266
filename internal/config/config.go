// Package config holds the runtime configuration for the Marketeers login
// checker: the target application addresses, test credentials, timeout and
// retry budgets, and the artifact output location.
package config

import (
	"regexp"
	"time"
)

// Default configuration values. These mirror the budgets we have been running
// against the staging environment; all of them can be overridden per target
// via the YAML config file or environment variables.
const (
	// DefaultBaseURL is the staging deployment of the Marketeers UI.
	DefaultBaseURL = "https://marketeers-stage-ui.ollkom.com"

	// DefaultLoginPath is the agency login form relative to BaseURL.
	DefaultLoginPath = "/agency/login"

	// DefaultDashboardPattern matches the post-login landing page. The app
	// appends tenant segments after /dashboard, so the pattern stays loose.
	DefaultDashboardPattern = `.*/dashboard.*`

	// DefaultNavigationTimeout is generous because the staging environment
	// sits behind a rate limiter that occasionally serves an interstitial
	// before the real page.
	DefaultNavigationTimeout = 60 * time.Second

	// DefaultNavigationAttempts is the retry budget for loading the login
	// page. Retries apply to navigation only, never to assertions.
	DefaultNavigationAttempts = 3

	// DefaultLoginTimeout bounds the wait for the dashboard URL after
	// submitting valid credentials.
	DefaultLoginTimeout = 15 * time.Second

	// DefaultPollInterval is the sampling interval used when classifying
	// the page location against a URL pattern.
	DefaultPollInterval = 300 * time.Millisecond

	// DefaultProbeTimeout is the per-candidate budget when probing for
	// optional UI affordances or error cues.
	DefaultProbeTimeout = 3 * time.Second

	// DefaultArtifactDir receives screenshots captured on navigation
	// exhaustion and at the end of failed checks.
	DefaultArtifactDir = "artifacts"

	// DefaultWindowWidth and DefaultWindowHeight match the viewport the
	// manual QA runs use, so screenshots line up with what QA sees.
	DefaultWindowWidth  = 1366
	DefaultWindowHeight = 768

	// DefaultUserAgent is sent to reduce bot-detection flakiness on the
	// staging rate limiter.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// Config holds all options for a single login check target.
//
// The struct is flat rather than nested because the option count is small
// and every field maps directly to a YAML key or environment variable.
type Config struct {
	// BaseURL is the scheme://host[:port] of the application under test.
	BaseURL string `yaml:"baseURL"`

	// LoginPath is the login form path, joined to BaseURL.
	LoginPath string `yaml:"loginPath"`

	// DashboardPattern is the regular expression a post-login URL must
	// match for the check to count as reaching the target.
	DashboardPattern string `yaml:"dashboardPattern"`

	// Email and Password are the known-good credential pair for the
	// target. They are masked by the logging layer and never persisted
	// into run history.
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	// Headless controls whether Chrome runs without a visible window.
	Headless bool `yaml:"headless"`

	// NavigationTimeout bounds each navigation attempt.
	NavigationTimeout time.Duration `yaml:"navigationTimeout"`

	// NavigationAttempts is the navigation retry budget (>= 1).
	NavigationAttempts int `yaml:"navigationAttempts"`

	// LoginTimeout bounds the wait for the dashboard after submit.
	LoginTimeout time.Duration `yaml:"loginTimeout"`

	// PollInterval is the URL sampling interval during classification.
	PollInterval time.Duration `yaml:"pollInterval"`

	// ProbeTimeout is the per-candidate visibility budget for probes.
	ProbeTimeout time.Duration `yaml:"probeTimeout"`

	// ArtifactDir is where screenshots and failure dumps are written.
	ArtifactDir string `yaml:"artifactDir"`

	// HistoryDB is the directory holding the run history database. Empty
	// disables history recording.
	HistoryDB string `yaml:"historyDB"`
}

// New returns a Config populated with the documented defaults. Credentials
// are intentionally left empty; they must come from the config file or the
// environment.
func New() *Config {
	return &Config{
		BaseURL:            DefaultBaseURL,
		LoginPath:          DefaultLoginPath,
		DashboardPattern:   DefaultDashboardPattern,
		Headless:           true,
		NavigationTimeout:  DefaultNavigationTimeout,
		NavigationAttempts: DefaultNavigationAttempts,
		LoginTimeout:       DefaultLoginTimeout,
		PollInterval:       DefaultPollInterval,
		ProbeTimeout:       DefaultProbeTimeout,
		ArtifactDir:        DefaultArtifactDir,
	}
}

// LoginURL returns the absolute login page address.
func (c *Config) LoginURL() string {
	return c.BaseURL + c.LoginPath
}

// DashboardRegexp compiles DashboardPattern. Call Validate first; this
// panics on an invalid pattern the same way regexp.MustCompile does.
func (c *Config) DashboardRegexp() *regexp.Regexp {
	return regexp.MustCompile(c.DashboardPattern)
}

// Validate checks the configuration for values that would make a check
// meaningless. It returns the first problem found.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	if c.Email == "" || c.Password == "" {
		return ErrNoCredentials
	}
	if c.NavigationAttempts < 1 {
		return ErrInvalidAttempts
	}
	if c.NavigationTimeout <= 0 || c.LoginTimeout <= 0 || c.ProbeTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	if _, err := regexp.Compile(c.DashboardPattern); err != nil {
		return ErrInvalidDashboardPattern
	}
	return nil
}
