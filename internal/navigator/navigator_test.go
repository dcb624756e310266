package navigator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	navigateErrs  []error // consumed per attempt; nil entry means success
	navigateCalls int

	interstitial      bool
	interstitialCalls int

	quiescentErr   error
	quiescentCalls int
}

func (f *fakeDriver) Navigate(ctx context.Context, url string) error {
	f.navigateCalls++
	if f.navigateCalls <= len(f.navigateErrs) {
		return f.navigateErrs[f.navigateCalls-1]
	}
	return nil
}

func (f *fakeDriver) InterstitialVisible(ctx context.Context) (bool, error) {
	f.interstitialCalls++
	return f.interstitial, nil
}

func (f *fakeDriver) WaitQuiescent(ctx context.Context) error {
	f.quiescentCalls++
	return f.quiescentErr
}

func newNavigator(d Driver, attempts int) *Navigator {
	return &Navigator{
		Driver:     d,
		Attempts:   attempts,
		Timeout:    time.Second,
		NewBackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}
}

func TestGotoFirstAttemptSucceeds(t *testing.T) {
	t.Parallel()

	d := &fakeDriver{}
	n := newNavigator(d, 3)

	err := n.Goto(context.Background(), "https://marketeers-stage-ui.ollkom.com/agency/login")

	require.NoError(t, err)
	require.Equal(t, 1, d.navigateCalls)
	require.Equal(t, 0, d.quiescentCalls, "no interstitial means no quiescence wait")
}

func TestGotoRecoversWithinBudget(t *testing.T) {
	t.Parallel()

	timeout := errors.New("net::ERR_TIMED_OUT")
	d := &fakeDriver{navigateErrs: []error{timeout, timeout, nil}}
	n := newNavigator(d, 3)

	err := n.Goto(context.Background(), "https://marketeers-stage-ui.ollkom.com/agency/login")

	require.NoError(t, err)
	require.Equal(t, 3, d.navigateCalls)
}

func TestGotoExhaustionIsInconclusive(t *testing.T) {
	t.Parallel()

	rateLimited := errors.New("net::ERR_HTTP_RESPONSE_CODE_FAILURE")
	d := &fakeDriver{navigateErrs: []error{rateLimited, rateLimited, rateLimited}}
	n := newNavigator(d, 3)

	var diagnosed bool
	n.Diagnose = func(ctx context.Context) (string, error) {
		diagnosed = true
		return "artifacts/login_goto_timeout.png", nil
	}

	err := n.Goto(context.Background(), "https://marketeers-stage-ui.ollkom.com/agency/login")

	require.ErrorIs(t, err, ErrInconclusive, "exhaustion must be inconclusive, not a hard failure")
	require.ErrorIs(t, err, rateLimited, "the last navigation error must be preserved")
	require.Equal(t, 3, d.navigateCalls)
	require.True(t, diagnosed, "exhaustion must capture a diagnostic artifact")
}

func TestGotoToleratesInterstitialOncePerAttempt(t *testing.T) {
	t.Parallel()

	d := &fakeDriver{interstitial: true}
	n := newNavigator(d, 3)

	err := n.Goto(context.Background(), "https://marketeers-stage-ui.ollkom.com/agency/login")

	require.NoError(t, err)
	require.Equal(t, 1, d.quiescentCalls)
}

func TestGotoInterstitialNeverSettles(t *testing.T) {
	t.Parallel()

	d := &fakeDriver{interstitial: true, quiescentErr: context.DeadlineExceeded}
	n := newNavigator(d, 2)

	err := n.Goto(context.Background(), "https://marketeers-stage-ui.ollkom.com/agency/login")

	require.ErrorIs(t, err, ErrInconclusive)
	require.Equal(t, 2, d.quiescentCalls, "each attempt tolerates the interstitial once")
}

func TestGotoSingleAttemptBudget(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	d := &fakeDriver{navigateErrs: []error{boom}}
	n := newNavigator(d, 1)

	err := n.Goto(context.Background(), "https://marketeers-stage-ui.ollkom.com/agency/login")

	require.ErrorIs(t, err, ErrInconclusive)
	require.Equal(t, 1, d.navigateCalls)
}

func TestGotoStopsOnContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	boom := errors.New("boom")
	d := &fakeDriver{navigateErrs: []error{boom, boom, boom}}
	n := newNavigator(d, 3)

	err := n.Goto(ctx, "https://marketeers-stage-ui.ollkom.com/agency/login")

	require.ErrorIs(t, err, ErrInconclusive)
	require.LessOrEqual(t, d.navigateCalls, 2, "cancellation must stop the retry loop")
}

func TestGotoDiagnoseFailureStillInconclusive(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	d := &fakeDriver{navigateErrs: []error{boom}}
	n := newNavigator(d, 1)
	n.Diagnose = func(ctx context.Context) (string, error) {
		return "", errors.New("screenshot failed too")
	}

	err := n.Goto(context.Background(), "https://marketeers-stage-ui.ollkom.com/agency/login")

	require.ErrorIs(t, err, ErrInconclusive)
}

func TestDefaultBackOffStartsAtInitialInterval(t *testing.T) {
	t.Parallel()

	bo := defaultBackOff()
	first := bo.NextBackOff()

	// The exponential policy jitters around the initial interval.
	require.Greater(t, first, 700*time.Millisecond)
	require.Less(t, first, 3*time.Second)
}
