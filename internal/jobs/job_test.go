package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	gh "github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/orgu/internal/config"
	"github.com/sevigo/orgu/internal/core"
	"github.com/sevigo/orgu/internal/github"
	"github.com/sevigo/orgu/internal/gitutil"
	"github.com/sevigo/orgu/mocks"
)

const testInstallationID int64 = 123

type fixture struct {
	client   *mocks.MockCheckRunClient
	tokens   *mocks.MockTokenSource
	checkout *mocks.MockCheckouter
	job      *RunJob
}

func newFixture(t *testing.T, command []string, timeout time.Duration) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		client:   mocks.NewMockCheckRunClient(ctrl),
		tokens:   mocks.NewMockTokenSource(ctrl),
		checkout: mocks.NewMockCheckouter(ctrl),
	}
	jobCfg := config.JobConfig{Name: "test", Command: command, WrapStdout: true, Timeout: timeout}
	f.job = NewRunJob(jobCfg, testInstallationID, f.client, f.tokens, f.checkout, testLogger())
	return f
}

func testDispatch() *core.DispatchRequest {
	return &core.DispatchRequest{
		RequestID:      "req-1",
		DeliveryID:     "del-1",
		InstallationID: testInstallationID,
		EventName:      core.EventPullRequest,
		Action:         "synchronize",
		Repository: core.Repository{
			FullName: "sevigo/orgu",
			Name:     "orgu",
			Owner:    core.User{Login: "sevigo"},
		},
		HeadSHA: "abc123",
	}
}

func (f *fixture) expectCreate(t *testing.T) *gomock.Call {
	return f.client.EXPECT().CreateCheckRun(gomock.Any(), "sevigo", "orgu", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, opts gh.CreateCheckRunOptions) (*gh.CheckRun, error) {
			assert.Equal(t, "run-test", opts.Name)
			assert.Equal(t, "abc123", opts.HeadSHA)
			assert.Equal(t, "in_progress", opts.GetStatus())
			return &gh.CheckRun{ID: gh.Ptr(int64(7))}, nil
		})
}

func (f *fixture) expectToken() *gomock.Call {
	return f.tokens.EXPECT().FetchToken(gomock.Any()).Return("abcd", nil)
}

func (f *fixture) expectCheckout(t *testing.T) *gomock.Call {
	dir := t.TempDir()
	return f.checkout.EXPECT().CreateDirAndCheckout(gomock.Any(), gitutil.CheckoutSpec{
		Owner: "sevigo", Repo: "orgu", SHA: "abc123", Token: "abcd",
	}).Return(gitutil.NewWorkDir(dir, ""), nil)
}

func (f *fixture) expectUpdate(got *gh.UpdateCheckRunOptions) *gomock.Call {
	return f.client.EXPECT().UpdateCheckRun(gomock.Any(), "sevigo", "orgu", int64(7), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int64, opts gh.UpdateCheckRunOptions) (*gh.CheckRun, error) {
			*got = opts
			return &gh.CheckRun{ID: gh.Ptr(int64(7))}, nil
		})
}

func TestRunJob_CommandSucceeded(t *testing.T) {
	f := newFixture(t, []string{"echo", "hello"}, 5*time.Second)
	var got gh.UpdateCheckRunOptions
	gomock.InOrder(f.expectCreate(t), f.expectToken(), f.expectCheckout(t), f.expectUpdate(&got))

	require.NoError(t, f.job.HandleDispatch(context.Background(), testDispatch()))

	assert.Equal(t, "completed", got.GetStatus())
	assert.Equal(t, github.ConclusionSuccess, got.GetConclusion())
	assert.Equal(t, "Runner executed job successfully", got.Output.GetTitle())
	text := got.Output.GetText()
	assert.Contains(t, text, "## stdout\n```\nhello\n")
	assert.Contains(t, text, "GITHUB_TOKEN=****\n")
	assert.Contains(t, text, "CI_COMMIT=abc123\n")
	assert.NotContains(t, text, "abcd")
}

func TestRunJob_CommandFailed(t *testing.T) {
	f := newFixture(t, []string{"false"}, 5*time.Second)
	var got gh.UpdateCheckRunOptions
	gomock.InOrder(f.expectCreate(t), f.expectToken(), f.expectCheckout(t), f.expectUpdate(&got))

	require.NoError(t, f.job.HandleDispatch(context.Background(), testDispatch()))

	assert.Equal(t, github.ConclusionFailure, got.GetConclusion())
	assert.Equal(t, "Runner ran job but it failed", got.Output.GetTitle())
	assert.True(t, strings.HasPrefix(got.Output.GetSummary(), "Command failed with exit status 1: `false`"), got.Output.GetSummary())
}

func TestRunJob_JobEnvironmentReachesCommand(t *testing.T) {
	t.Setenv("ORGU_HOST_ONLY", "leaked")
	f := newFixture(t, []string{"env"}, 5*time.Second)
	var got gh.UpdateCheckRunOptions
	gomock.InOrder(f.expectCreate(t), f.expectToken(), f.expectCheckout(t), f.expectUpdate(&got))

	require.NoError(t, f.job.HandleDispatch(context.Background(), testDispatch()))

	text := got.Output.GetText()
	assert.Contains(t, text, "CI_REPO_OWNER=sevigo")
	assert.Contains(t, text, "REVIEWDOG_SKIP_DOGHOUSE=true")
	assert.Contains(t, text, "JOB_NAME=test")
	assert.NotContains(t, text, "ORGU_HOST_ONLY")
	assert.NotContains(t, text, "abcd")
}

func TestRunJob_CommandTimedOut(t *testing.T) {
	f := newFixture(t, []string{"sleep", "30"}, 100*time.Millisecond)
	var got gh.UpdateCheckRunOptions
	gomock.InOrder(f.expectCreate(t), f.expectToken(), f.expectCheckout(t), f.expectUpdate(&got))

	require.NoError(t, f.job.HandleDispatch(context.Background(), testDispatch()))

	assert.Equal(t, github.ConclusionTimedOut, got.GetConclusion())
	assert.Equal(t, "Running job timed out", got.Output.GetTitle())
	assert.Contains(t, got.Output.GetSummary(), "(100ms): `sleep 30`")
}

func TestRunJob_EmptyCommand(t *testing.T) {
	f := newFixture(t, nil, 5*time.Second)
	var got gh.UpdateCheckRunOptions
	gomock.InOrder(f.expectCreate(t), f.expectToken(), f.expectCheckout(t), f.expectUpdate(&got))

	err := f.job.HandleDispatch(context.Background(), testDispatch())
	require.ErrorIs(t, err, ErrEmptyCommand)
	assert.Contains(t, err.Error(), "empty COMMAND arg given")

	assert.Equal(t, github.ConclusionFailure, got.GetConclusion())
	assert.Equal(t, "Runner failed to handle event", got.Output.GetTitle())
	assert.Contains(t, got.Output.GetText(), "empty COMMAND arg given")
}

func TestRunJob_CheckoutTimedOut(t *testing.T) {
	f := newFixture(t, []string{"true"}, 5*time.Second)
	var got gh.UpdateCheckRunOptions
	gomock.InOrder(
		f.expectCreate(t),
		f.expectToken(),
		f.checkout.EXPECT().CreateDirAndCheckout(gomock.Any(), gomock.Any()).
			Return(nil, &gitutil.TimeoutError{Duration: 10 * time.Second}),
		f.expectUpdate(&got),
	)

	require.NoError(t, f.job.HandleDispatch(context.Background(), testDispatch()))

	assert.Equal(t, github.ConclusionTimedOut, got.GetConclusion())
	assert.Equal(t, "Checkout repository timed out", got.Output.GetTitle())
	assert.Contains(t, got.Output.GetSummary(), "timed out (10s): owner=sevigo, repo=orgu, sha=abc123")
}

func TestRunJob_CheckoutFailed(t *testing.T) {
	f := newFixture(t, []string{"true"}, 5*time.Second)
	var got gh.UpdateCheckRunOptions
	checkoutErr := errors.New("authentication required")
	gomock.InOrder(
		f.expectCreate(t),
		f.expectToken(),
		f.checkout.EXPECT().CreateDirAndCheckout(gomock.Any(), gomock.Any()).Return(nil, checkoutErr),
		f.expectUpdate(&got),
	)

	err := f.job.HandleDispatch(context.Background(), testDispatch())
	require.ErrorIs(t, err, checkoutErr)
	assert.Contains(t, err.Error(), "failed to checkout repository")

	assert.Equal(t, github.ConclusionFailure, got.GetConclusion())
	assert.Contains(t, got.Output.GetText(), "authentication required")
}

func TestRunJob_TokenFailureCompletesCheckRun(t *testing.T) {
	f := newFixture(t, []string{"true"}, 5*time.Second)
	var got gh.UpdateCheckRunOptions
	tokenErr := errors.New("bad credentials")
	gomock.InOrder(
		f.expectCreate(t),
		f.tokens.EXPECT().FetchToken(gomock.Any()).Return("", tokenErr),
		f.expectUpdate(&got),
	)

	err := f.job.HandleDispatch(context.Background(), testDispatch())
	require.ErrorIs(t, err, tokenErr)
	assert.Equal(t, github.ConclusionFailure, got.GetConclusion())
}

func TestRunJob_CorrectiveUpdateFails(t *testing.T) {
	f := newFixture(t, []string{"true"}, 5*time.Second)
	tokenErr := errors.New("bad credentials")
	updateErr := errors.New("api unavailable")
	gomock.InOrder(
		f.expectCreate(t),
		f.tokens.EXPECT().FetchToken(gomock.Any()).Return("", tokenErr),
		f.client.EXPECT().UpdateCheckRun(gomock.Any(), "sevigo", "orgu", int64(7), gomock.Any()).Return(nil, updateErr),
	)

	err := f.job.HandleDispatch(context.Background(), testDispatch())
	require.ErrorIs(t, err, tokenErr)
	assert.ErrorIs(t, err, updateErr)
}

func TestRunJob_TerminalUpdateFailureIsCorrected(t *testing.T) {
	f := newFixture(t, []string{"true"}, 5*time.Second)
	updateErr := errors.New("validation failed")
	var got gh.UpdateCheckRunOptions
	gomock.InOrder(
		f.expectCreate(t),
		f.expectToken(),
		f.expectCheckout(t),
		f.client.EXPECT().UpdateCheckRun(gomock.Any(), "sevigo", "orgu", int64(7), gomock.Any()).Return(nil, updateErr),
		f.expectUpdate(&got),
	)

	err := f.job.HandleDispatch(context.Background(), testDispatch())
	require.ErrorIs(t, err, updateErr)
	assert.Equal(t, "Runner failed to handle event", got.Output.GetTitle())
}

func TestRunJob_CreateCheckRunFails(t *testing.T) {
	f := newFixture(t, []string{"true"}, 5*time.Second)
	createErr := errors.New("forbidden")
	f.client.EXPECT().CreateCheckRun(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, createErr)

	err := f.job.HandleDispatch(context.Background(), testDispatch())
	assert.ErrorIs(t, err, createErr)
}

func TestRunJob_Gate(t *testing.T) {
	t.Run("installation mismatch skips pull_request", func(t *testing.T) {
		f := newFixture(t, []string{"true"}, 5*time.Second)
		req := testDispatch()
		req.InstallationID = 999

		// No expectations: any client call fails the test.
		assert.NoError(t, f.job.HandleDispatch(context.Background(), req))
	})

	t.Run("installation mismatch accepts check_suite rerequested", func(t *testing.T) {
		f := newFixture(t, []string{"true"}, 5*time.Second)
		var got gh.UpdateCheckRunOptions
		gomock.InOrder(f.expectCreate(t), f.expectToken(), f.expectCheckout(t), f.expectUpdate(&got))

		req := testDispatch()
		req.InstallationID = 999
		req.EventName = core.EventCheckSuite
		req.Action = core.ActionRerequested

		require.NoError(t, f.job.HandleDispatch(context.Background(), req))
		assert.Equal(t, github.ConclusionSuccess, got.GetConclusion())
	})
}

func TestRunJob_EmptyHeadSHAFailsAtCreate(t *testing.T) {
	f := newFixture(t, []string{"true"}, 5*time.Second)
	req := testDispatch()
	req.HeadSHA = ""

	createErr := errors.New("422 Validation Failed")
	f.client.EXPECT().CreateCheckRun(gomock.Any(), "sevigo", "orgu", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, opts gh.CreateCheckRunOptions) (*gh.CheckRun, error) {
			assert.Empty(t, opts.HeadSHA)
			return nil, createErr
		}).Times(1)

	err := f.job.HandleDispatch(context.Background(), req)
	assert.ErrorIs(t, err, createErr)
}
