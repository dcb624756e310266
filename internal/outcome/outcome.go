// Package outcome classifies the result of a browser action by sampling the
// observable page location against a target URL pattern within a bounded
// time budget.
package outcome

import (
	"context"
	"regexp"
	"time"
)

// Location is the terminal classification of a navigation outcome.
// Exactly one Location is produced per classification cycle.
type Location int

const (
	// Indeterminate means the page location could not be read, so neither
	// success nor failure can be claimed. Callers treat this like an
	// environment problem, not a product defect.
	Indeterminate Location = iota

	// ReachedTarget means the location matched the target pattern at or
	// before the moment the budget expired.
	ReachedTarget

	// RemainedAtSource means the location stayed readable but never
	// matched the target pattern within the budget.
	RemainedAtSource
)

// String returns a short human-readable name for logs and reports.
func (l Location) String() string {
	switch l {
	case ReachedTarget:
		return "reached-target"
	case RemainedAtSource:
		return "remained-at-source"
	default:
		return "indeterminate"
	}
}

// LocationFunc reports the current page URL. The browser session's Location
// method satisfies this; tests substitute fakes.
type LocationFunc func(ctx context.Context) (string, error)

// Classifier polls a location source at a fixed interval. A plain polling
// loop is used instead of a push-based wait: the budget is seconds and each
// test classifies once, so simplicity wins over efficiency.
type Classifier struct {
	// Pattern is the target URL pattern.
	Pattern *regexp.Regexp

	// Interval is the sampling interval. Zero means DefaultInterval.
	Interval time.Duration
}

// DefaultInterval matches the cadence the suite has always sampled at.
const DefaultInterval = 300 * time.Millisecond

// New returns a Classifier for the given pattern using DefaultInterval.
func New(pattern *regexp.Regexp) *Classifier {
	return &Classifier{Pattern: pattern, Interval: DefaultInterval}
}

// Classify samples loc until the pattern matches or budget expires and
// returns the resulting Location. The final sample is taken at expiry, so a
// match that lands exactly on the deadline still counts as ReachedTarget.
// Read errors during the budget are tolerated; only a final unreadable
// location yields Indeterminate.
func (c *Classifier) Classify(ctx context.Context, budget time.Duration, loc LocationFunc) Location {
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	deadline := time.Now().Add(budget)
	for {
		url, err := loc(ctx)
		if err == nil && c.Pattern.MatchString(url) {
			return ReachedTarget
		}
		if time.Now().After(deadline) {
			break
		}

		remaining := time.Until(deadline)
		if remaining < interval {
			interval = remaining
		}
		select {
		case <-ctx.Done():
			return Indeterminate
		case <-time.After(interval):
		}
	}

	// Budget spent: one authoritative final read.
	url, err := loc(ctx)
	if err != nil {
		return Indeterminate
	}
	if c.Pattern.MatchString(url) {
		return ReachedTarget
	}
	return RemainedAtSource
}
