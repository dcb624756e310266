package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rohelgravityer/marketeers-login-check/internal/report"
)

func testRun(id, target string, verdict report.Verdict, started time.Time) *report.Run {
	return &report.Run{
		ID:        id,
		Target:    target,
		StartedAt: started,
		Duration:  4 * time.Second,
		Verdict:   verdict,
		Steps: []report.Step{
			{Name: "open login page", Outcome: "ok"},
		},
	}
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer db.Close()

	require.Equal(t, filepath.Join(dir, "logincheck.db"), db.Path())
	require.FileExists(t, db.Path())
}

func TestOpenWithoutCreateFailsOnMissingFile(t *testing.T) {
	_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestSaveAndRecent(t *testing.T) {
	db, err := Open(t.TempDir(), DefaultOptions())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	target := "https://staging.example.com/agency/login"

	require.NoError(t, db.Save(ctx, testRun("run-1", target, report.VerdictPass, base)))
	require.NoError(t, db.Save(ctx, testRun("run-2", target, report.VerdictFail, base.Add(time.Hour))))
	require.NoError(t, db.Save(ctx, testRun("run-3", "https://other.example.com", report.VerdictPass, base)))

	runs, err := db.Recent(ctx, target, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-2", runs[0].ID)
	require.Equal(t, "run-1", runs[1].ID)
	require.Equal(t, report.VerdictFail, runs[0].Verdict)
	require.Len(t, runs[0].Steps, 1)
	require.Equal(t, "open login page", runs[0].Steps[0].Name)
}

func TestRecentOrdersSubsecondTimestamps(t *testing.T) {
	db, err := Open(t.TempDir(), DefaultOptions())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	target := "https://staging.example.com/agency/login"

	// A run half a second after a whole-second run must sort as newer.
	require.NoError(t, db.Save(ctx, testRun("run-whole", target, report.VerdictPass, base)))
	require.NoError(t, db.Save(ctx, testRun("run-frac", target, report.VerdictFail, base.Add(500*time.Millisecond))))

	runs, err := db.Recent(ctx, target, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-frac", runs[0].ID)
	require.Equal(t, "run-whole", runs[1].ID)
}

func TestRecentHonorsLimit(t *testing.T) {
	db, err := Open(t.TempDir(), DefaultOptions())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	target := "https://staging.example.com/agency/login"
	for i := 0; i < 5; i++ {
		run := testRun("run", target, report.VerdictPass, base.Add(time.Duration(i)*time.Minute))
		run.ID = run.ID + "-" + run.StartedAt.Format("150405")
		require.NoError(t, db.Save(ctx, run))
	}

	runs, err := db.Recent(ctx, target, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

func TestConsecutiveFailures(t *testing.T) {
	db, err := Open(t.TempDir(), DefaultOptions())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	target := "https://staging.example.com/agency/login"

	seq := []report.Verdict{
		report.VerdictPass,
		report.VerdictFail,
		report.VerdictInconclusive,
		report.VerdictFail,
	}
	for i, v := range seq {
		run := testRun("run", target, v, base.Add(time.Duration(i)*time.Minute))
		run.ID = run.ID + "-" + run.StartedAt.Format("150405")
		require.NoError(t, db.Save(ctx, run))
	}

	// Two failures since the pass; the inconclusive run does not count.
	count, err := db.ConsecutiveFailures(ctx, target)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestConsecutiveFailuresEmptyHistory(t *testing.T) {
	db, err := Open(t.TempDir(), DefaultOptions())
	require.NoError(t, err)
	defer db.Close()

	count, err := db.ConsecutiveFailures(context.Background(), "https://nowhere.example.com")
	require.NoError(t, err)
	require.Zero(t, count)
}
