// Package probe evaluates ordered sets of heuristic locator candidates
// against the live page. The login screen does not expose stable test IDs,
// so cues and affordances are found by trying likely selectors in order and
// accepting the first visible one. "Not found" is an explicit result, never
// a swallowed error.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Candidate is one named way of locating a cue or affordance on the page.
type Candidate struct {
	// Name identifies the candidate in logs and reports.
	Name string

	// Visible reports whether the candidate is currently visible. It is
	// given a context bounded by the per-candidate timeout; blocking
	// until visible or deadline is the expected behavior.
	Visible func(ctx context.Context) (bool, error)
}

// Match is the result of evaluating an ordered candidate set. The zero
// value means no candidate became visible.
type Match struct {
	Found bool
	Name  string
}

// FeatureStatus is the tri-state result of checking an optional UI
// affordance. Optional features are never folded into a plain pass/fail.
type FeatureStatus int

const (
	// FeatureAbsent means the affordance does not exist on this screen.
	// That is a design choice of the product, not a defect.
	FeatureAbsent FeatureStatus = iota

	// FeaturePassed means the affordance exists and behaved as expected.
	FeaturePassed

	// FeatureFailed means the affordance exists but misbehaved.
	FeatureFailed
)

// String returns a short name for reports.
func (s FeatureStatus) String() string {
	switch s {
	case FeaturePassed:
		return "present-and-passed"
	case FeatureFailed:
		return "present-and-failed"
	default:
		return "absent"
	}
}

// FirstVisible evaluates candidates in order, giving each up to perCandidate
// to become visible, and returns the first match. A candidate that times out
// is treated as absent and evaluation continues; any other error aborts,
// because it means the browser itself is gone rather than the element.
func FirstVisible(ctx context.Context, perCandidate time.Duration, candidates []Candidate) (Match, error) {
	for _, cand := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, perCandidate)
		visible, err := cand.Visible(probeCtx)
		cancel()

		if err != nil {
			if isProbeTimeout(err, ctx) {
				continue
			}
			return Match{}, fmt.Errorf("probing %q: %w", cand.Name, err)
		}
		if visible {
			return Match{Found: true, Name: cand.Name}, nil
		}
	}
	return Match{}, nil
}

// isProbeTimeout distinguishes a per-candidate deadline (candidate absent)
// from a dead parent context (browser gone).
func isProbeTimeout(err error, parent context.Context) bool {
	if parent.Err() != nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout)
}

// CSS returns a candidate that is visible when sel matches a visible
// element.
func CSS(name, sel string) Candidate {
	return Candidate{
		Name: name,
		Visible: func(ctx context.Context) (bool, error) {
			if err := chromedp.Run(ctx, chromedp.WaitVisible(sel, chromedp.ByQuery)); err != nil {
				return false, err
			}
			return true, nil
		},
	}
}

// TextMatch returns a candidate that is visible when the page's rendered
// text matches the given case-insensitive JavaScript regular expression.
func TextMatch(name, pattern string) Candidate {
	expr := fmt.Sprintf(
		`document.body ? new RegExp(%q, "i").test(document.body.innerText) : false`, pattern)
	return Candidate{
		Name: name,
		Visible: func(ctx context.Context) (bool, error) {
			var matched bool
			if err := chromedp.Run(ctx, chromedp.Poll(expr, &matched)); err != nil {
				return false, err
			}
			return matched, nil
		},
	}
}
