// Package loginpage is the page object for the agency login screen. It
// locates the form controls through ordered selector candidates, because
// the UI exposes no stable test IDs and the markup shifts between builds.
package loginpage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/rohelgravityer/marketeers-login-check/internal/navigator"
	"github.com/rohelgravityer/marketeers-login-check/internal/probe"
)

// Selectors holds the ordered locator candidates for each control. Order is
// by reliability on the current UI build; the first visible one wins.
type Selectors struct {
	Email    []string
	Password []string
	Submit   []string
	Toggle   []string
	Forgot   []string
	Remember []string
}

// DefaultSelectors returns the candidate lists observed to work against the
// staging UI.
func DefaultSelectors() Selectors {
	return Selectors{
		Email: []string{
			`input[type="email"]`,
			`input[name="email"]`,
			`input[id*="email"]`,
			`input[placeholder*="email" i]`,
		},
		Password: []string{
			`input[type="password"]`,
			`input[name="password"]`,
			`input[id*="password"]`,
			`input[placeholder*="password" i]`,
		},
		Submit: []string{
			`button[type="submit"]`,
			`input[type="submit"]`,
			`.login-btn`,
			`.submit-btn`,
		},
		Toggle: []string{
			`[data-testid=password-visibility-toggle]`,
			`button[aria-label*="password" i]`,
			`input[type="password"] ~ button, input[type="password"] + * button`,
		},
		Forgot: []string{
			`a[href*="forgot"]`,
			`a[href*="reset"]`,
			`a[href*="recover"]`,
		},
		Remember: []string{
			`input[type="checkbox"][name*="remember" i]`,
			`input[type="checkbox"]`,
		},
	}
}

// Driver is the browser surface the page object needs.
type Driver interface {
	navigator.Driver
	Run(actions ...chromedp.Action) error
	Location(ctx context.Context) (string, error)
	SaveScreenshot(ctx context.Context, name string) (string, error)
}

// Page drives the login screen of one browser session.
type Page struct {
	driver       Driver
	nav          *navigator.Navigator
	selectors    Selectors
	loginURL     string
	probeTimeout time.Duration
	logger       *slog.Logger
}

// Config assembles a Page.
type Config struct {
	LoginURL           string
	NavigationAttempts int
	NavigationTimeout  time.Duration
	ProbeTimeout       time.Duration
	Selectors          *Selectors
	Logger             *slog.Logger
}

// New returns a Page for the given session-backed driver.
func New(driver Driver, cfg Config) *Page {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	selectors := DefaultSelectors()
	if cfg.Selectors != nil {
		selectors = *cfg.Selectors
	}
	return &Page{
		driver: driver,
		nav: &navigator.Navigator{
			Driver:   driver,
			Attempts: cfg.NavigationAttempts,
			Timeout:  cfg.NavigationTimeout,
			Logger:   logger,
			Diagnose: func(ctx context.Context) (string, error) {
				return driver.SaveScreenshot(ctx, "login_goto_timeout.png")
			},
		},
		selectors:    selectors,
		loginURL:     cfg.LoginURL,
		probeTimeout: cfg.ProbeTimeout,
		logger:       logger,
	}
}

// Open navigates to the login page with the full retry budget and requires
// the three basic controls to be visible. An inconclusive navigation is
// surfaced as navigator.ErrInconclusive.
func (p *Page) Open(ctx context.Context) error {
	if err := p.nav.Goto(ctx, p.loginURL); err != nil {
		return err
	}
	for _, control := range []struct {
		name string
		sels []string
	}{
		{"email input", p.selectors.Email},
		{"password input", p.selectors.Password},
		{"submit button", p.selectors.Submit},
	} {
		if _, err := p.firstVisible(ctx, control.name, control.sels); err != nil {
			return err
		}
	}
	return nil
}

// firstVisible finds the first visible selector among sels, giving each up
// to the probe timeout. The returned string is a usable CSS selector.
func (p *Page) firstVisible(ctx context.Context, kind string, sels []string) (string, error) {
	candidates := make([]probe.Candidate, len(sels))
	for i, sel := range sels {
		candidates[i] = probe.CSS(sel, sel)
	}
	m, err := probe.FirstVisible(ctx, p.probeTimeout, candidates)
	if err != nil {
		return "", fmt.Errorf("locating %s: %w", kind, err)
	}
	if !m.Found {
		return "", fmt.Errorf("no %s found on login page", kind)
	}
	return m.Name, nil
}

// FillCredentials clears both fields and types the given values. Empty
// values leave the cleared field empty, which is exactly what the
// empty-credential scenarios need.
func (p *Page) FillCredentials(ctx context.Context, email, password string) error {
	emailSel, err := p.firstVisible(ctx, "email input", p.selectors.Email)
	if err != nil {
		return err
	}
	passwordSel, err := p.firstVisible(ctx, "password input", p.selectors.Password)
	if err != nil {
		return err
	}

	actions := []chromedp.Action{
		chromedp.Clear(emailSel, chromedp.ByQuery),
		chromedp.Clear(passwordSel, chromedp.ByQuery),
	}
	if email != "" {
		actions = append(actions, chromedp.SendKeys(emailSel, email, chromedp.ByQuery))
	}
	if password != "" {
		actions = append(actions, chromedp.SendKeys(passwordSel, password, chromedp.ByQuery))
	}
	if err := p.driver.Run(actions...); err != nil {
		return fmt.Errorf("failed to fill credentials: %w", err)
	}
	p.logger.Debug("credentials filled", "email", email, "password", password)
	return nil
}

// Submit clicks the submit button, falling back to the Enter key if no
// candidate button can be clicked.
func (p *Page) Submit(ctx context.Context) error {
	sel, err := p.firstVisible(ctx, "submit button", p.selectors.Submit)
	if err == nil {
		if clickErr := p.driver.Run(chromedp.Click(sel, chromedp.ByQuery)); clickErr == nil {
			return nil
		}
	}
	// Some builds wrap the button in an overlay that swallows the click.
	if err := p.driver.Run(chromedp.KeyEvent("\r")); err != nil {
		return fmt.Errorf("could not submit login form: %w", err)
	}
	return nil
}

// SubmitCredentials fills both fields and clicks submit.
func (p *Page) SubmitCredentials(ctx context.Context, email, password string) error {
	if err := p.FillCredentials(ctx, email, password); err != nil {
		return err
	}
	return p.Submit(ctx)
}

// SubmitWithEnter fills both fields and presses Enter with focus in the
// password field, the most common Enter-to-submit pattern.
func (p *Page) SubmitWithEnter(ctx context.Context, email, password string) error {
	if err := p.FillCredentials(ctx, email, password); err != nil {
		return err
	}
	passwordSel, err := p.firstVisible(ctx, "password input", p.selectors.Password)
	if err != nil {
		return err
	}
	if err := p.driver.Run(
		chromedp.Focus(passwordSel, chromedp.ByQuery),
		chromedp.KeyEvent("\r"),
	); err != nil {
		return fmt.Errorf("failed to press Enter in password field: %w", err)
	}
	return nil
}

// FocusEmail puts keyboard focus in the email field.
func (p *Page) FocusEmail(ctx context.Context) error {
	sel, err := p.firstVisible(ctx, "email input", p.selectors.Email)
	if err != nil {
		return err
	}
	return p.driver.Run(chromedp.Focus(sel, chromedp.ByQuery))
}

// PasswordInputType reads the password input's type attribute, which flips
// to "text" when a visibility toggle is active.
func (p *Page) PasswordInputType(ctx context.Context) (string, error) {
	sel := p.selectors.Password[0]
	var value string
	var ok bool
	if err := p.driver.Run(chromedp.AttributeValue(sel, "type", &value, &ok, chromedp.ByQuery)); err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("password input has no type attribute")
	}
	return value, nil
}

// ClickVisibilityToggle finds and clicks the password visibility toggle.
// Absence is an explicit non-match, not an error.
func (p *Page) ClickVisibilityToggle(ctx context.Context) (probe.Match, error) {
	return p.clickFirst(ctx, p.selectors.Toggle)
}

// ClickForgotPassword finds and clicks the forgot/reset affordance.
func (p *Page) ClickForgotPassword(ctx context.Context) (probe.Match, error) {
	return p.clickFirst(ctx, p.selectors.Forgot)
}

// CheckRememberMe ticks the remember-me checkbox if one exists.
func (p *Page) CheckRememberMe(ctx context.Context) (probe.Match, error) {
	return p.clickFirst(ctx, p.selectors.Remember)
}

func (p *Page) clickFirst(ctx context.Context, sels []string) (probe.Match, error) {
	candidates := make([]probe.Candidate, len(sels))
	for i, sel := range sels {
		candidates[i] = probe.CSS(sel, sel)
	}
	m, err := probe.FirstVisible(ctx, p.probeTimeout, candidates)
	if err != nil || !m.Found {
		return m, err
	}
	if err := p.driver.Run(chromedp.Click(m.Name, chromedp.ByQuery)); err != nil {
		return m, fmt.Errorf("failed to click %q: %w", m.Name, err)
	}
	return m, nil
}

// ErrorCue probes the ordered error-cue candidates.
func (p *Page) ErrorCue(ctx context.Context) (probe.Match, error) {
	return probe.FirstVisible(ctx, p.probeTimeout, probe.ErrorCues())
}

// LockoutCue probes the lockout/captcha candidates.
func (p *Page) LockoutCue(ctx context.Context) (probe.Match, error) {
	return probe.FirstVisible(ctx, p.probeTimeout, probe.LockoutCues())
}

// Location reports the page's current URL.
func (p *Page) Location(ctx context.Context) (string, error) {
	return p.driver.Location(ctx)
}
