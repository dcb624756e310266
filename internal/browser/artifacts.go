package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Artifacts manages the per-run directory that receives screenshots and
// failure dumps. Each Session gets its own run directory so artifacts from
// concurrent checks never collide.
type Artifacts struct {
	dir   string
	runID string
}

// NewArtifacts creates the run directory under base. The run ID combines a
// timestamp, for humans scanning the directory, with a short unique suffix.
func NewArtifacts(base string) (*Artifacts, error) {
	runID := fmt.Sprintf("%s-%s",
		time.Now().Format("20060102-150405"),
		uuid.NewString()[:8])
	dir := filepath.Join(base, runID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Artifacts{dir: dir, runID: runID}, nil
}

// RunID identifies this run's artifact directory.
func (a *Artifacts) RunID() string {
	return a.runID
}

// Dir returns the run's artifact directory.
func (a *Artifacts) Dir() string {
	return a.dir
}

// Save writes data under the run directory and returns the full path.
func (a *Artifacts) Save(name string, data []byte) (string, error) {
	path := filepath.Join(a.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save artifact %s: %w", name, err)
	}
	return path, nil
}
