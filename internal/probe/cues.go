package probe

// Candidate sets for the cues this suite cares about. Ordered by how likely
// each selector is on the current UI build; evaluation short-circuits on the
// first visible one.

// ErrorCues are the ways the login form has been observed to surface a
// failed-login message. The exact copy and container change between UI
// builds, so nothing here assumes specific text beyond common phrasing.
func ErrorCues() []Candidate {
	return []Candidate{
		CSS("aria-alert", `[role="alert"]`),
		TextMatch("failure-text", `invalid|incorrect|wrong|failed|not match|try again`),
		CSS("mui-alert", `.MuiAlert-message`),
		CSS("toastify-body", `.Toastify__toast-body`),
		CSS("error-testid", `[data-testid=error]`),
		CSS("error-class", `.error, .error-message, .text-error`),
		TextMatch("required-text", `email.*required|password.*required`),
	}
}

// LockoutCues are signals that rapid failed attempts tripped a rate limit,
// lockout, or captcha.
func LockoutCues() []Candidate {
	return []Candidate{
		TextMatch("lockout-text", `locked|too many|try again later|captcha`),
		CSS("captcha-image", `img[alt*="captcha" i]`),
		CSS("captcha-frame", `iframe[src*="captcha"]`),
	}
}

// VisibilityToggleCues locate a password show/hide control. The common case
// is a button with an accessible label; the fallback is any button adjacent
// to the password input.
func VisibilityToggleCues() []Candidate {
	return []Candidate{
		CSS("toggle-testid", `[data-testid=password-visibility-toggle]`),
		CSS("toggle-aria", `button[aria-label*="password" i]`),
		CSS("toggle-adjacent", `input[type="password"] ~ button, input[type="password"] + * button`),
	}
}

// ForgotPasswordCues locate a forgot/reset password affordance.
func ForgotPasswordCues() []Candidate {
	return []Candidate{
		CSS("recover-href", `a[href*="forgot"], a[href*="reset"], a[href*="recover"]`),
		TextMatch("recover-text", `(forgot|reset).*(password|passcode)`),
	}
}

// InterstitialCues detect the rate limiter's bot-check page that sometimes
// precedes the real login form on staging.
func InterstitialCues() []Candidate {
	return []Candidate{
		TextMatch("bot-check-text", `checking your browser|just a moment`),
	}
}
