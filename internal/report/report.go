// Package report defines the result model for a login check run and
// renders it as Markdown or JSON.
package report

import (
	"time"
)

// Verdict is the terminal result of a whole check run.
type Verdict string

const (
	// VerdictPass means the valid credential pair reached the dashboard.
	VerdictPass Verdict = "pass"

	// VerdictFail means the application misbehaved: the login was
	// rejected, or an assertion about the page failed.
	VerdictFail Verdict = "fail"

	// VerdictInconclusive means the environment prevented evaluation;
	// the product is not implicated.
	VerdictInconclusive Verdict = "inconclusive"
)

// Step records one stage of the check with its observed outcome.
type Step struct {
	Name     string        `json:"name"`
	Outcome  string        `json:"outcome"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Run is the full record of one login check.
type Run struct {
	// ID is the artifact run identifier, shared with the screenshot
	// directory for this run.
	ID string `json:"id"`

	// Target is the login URL checked.
	Target string `json:"target"`

	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`

	Verdict Verdict `json:"verdict"`

	// Steps lists the stages in execution order.
	Steps []Step `json:"steps"`

	// Artifacts are file paths of captured screenshots and dumps.
	Artifacts []string `json:"artifacts,omitempty"`

	// Error carries the terminal error for fail/inconclusive runs.
	Error string `json:"error,omitempty"`
}

// AddStep appends a step record.
func (r *Run) AddStep(name, outcome, detail string, d time.Duration) {
	r.Steps = append(r.Steps, Step{Name: name, Outcome: outcome, Detail: detail, Duration: d})
}

// AddArtifact records an artifact path, ignoring empty ones.
func (r *Run) AddArtifact(path string) {
	if path != "" {
		r.Artifacts = append(r.Artifacts, path)
	}
}
