package config

import "errors"

// Validation errors returned by Config.Validate. Package-level sentinels so
// callers can match with errors.Is while still getting a readable message.
var (
	// ErrNoBaseURL is returned when the target base URL is empty.
	ErrNoBaseURL = errors.New("no base URL configured")

	// ErrNoCredentials is returned when the known-good email or password
	// is missing. The checker cannot classify a login without them.
	ErrNoCredentials = errors.New("missing credentials: set email and password in the config file or LOGINCHECK_EMAIL / LOGINCHECK_PASSWORD")

	// ErrInvalidAttempts is returned when the navigation retry budget is
	// less than one attempt.
	ErrInvalidAttempts = errors.New("invalid navigation attempts: must be at least 1")

	// ErrInvalidTimeout is returned when any timeout budget is zero or
	// negative. An unbounded wait is never allowed.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidPollInterval is returned when the URL sampling interval is
	// zero or negative, which would spin the classifier loop.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be positive")

	// ErrInvalidDashboardPattern is returned when the dashboard URL
	// pattern does not compile as a regular expression.
	ErrInvalidDashboardPattern = errors.New("invalid dashboard pattern: not a valid regular expression")
)
