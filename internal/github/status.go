package github

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/orgu/internal/core"
)

// MaxTextLength bounds the rendered output text, leaving room for the title
// and summary under GitHub's field limit.
const MaxTextLength = 30000

// TruncationMarker is appended to text cut at MaxTextLength.
const TruncationMarker = "\n\n... (output truncated)"

// Check run conclusions reported by the runner.
const (
	ConclusionSuccess  = "success"
	ConclusionFailure  = "failure"
	ConclusionTimedOut = "timed_out"
)

// StatusUpdater reports the lifecycle of a dispatch as a GitHub check run.
type StatusUpdater interface {
	InProgress(ctx context.Context, req *core.DispatchRequest, command []string) (int64, error)
	Completed(ctx context.Context, req *core.DispatchRequest, checkRunID int64, outcome core.Outcome) error
}

type statusUpdater struct {
	client     CheckRunClient
	name       string
	wrapStdout bool
	now        func() time.Time
}

// NewStatusUpdater creates a StatusUpdater that reports check runs named name.
func NewStatusUpdater(client CheckRunClient, name string, wrapStdout bool) StatusUpdater {
	return &statusUpdater{client: client, name: name, wrapStdout: wrapStdout, now: time.Now}
}

// InProgress creates a new check run with an "in_progress" status.
func (s *statusUpdater) InProgress(ctx context.Context, req *core.DispatchRequest, command []string) (int64, error) {
	view := CheckRunView{Name: s.name, Request: req, WrapStdout: s.wrapStdout}
	checkRun, err := s.client.CreateCheckRun(ctx, req.Owner(), req.Repo(), view.Create(command))
	if err != nil {
		return 0, err
	}
	return checkRun.GetID(), nil
}

// Completed moves the check run to "completed" with the conclusion derived from outcome.
func (s *statusUpdater) Completed(ctx context.Context, req *core.DispatchRequest, checkRunID int64, outcome core.Outcome) error {
	view := CheckRunView{Name: s.name, Request: req, WrapStdout: s.wrapStdout}
	_, err := s.client.UpdateCheckRun(ctx, req.Owner(), req.Repo(), checkRunID, view.Update(outcome, s.now()))
	return err
}

// CheckRunView renders check run payloads for one dispatch. Its methods have
// no side effects.
type CheckRunView struct {
	Name    string
	Request *core.DispatchRequest
	// WrapStdout fences stdout and stderr in code blocks.
	WrapStdout bool
}

// Create renders the payload that opens the check run.
func (v CheckRunView) Create(command []string) github.CreateCheckRunOptions {
	summary := fmt.Sprintf("Running command:\n```\n%s\n```", strings.Join(command, " "))
	return github.CreateCheckRunOptions{
		Name:    v.Name,
		HeadSHA: v.Request.HeadSHA,
		Status:  github.Ptr("in_progress"),
		Output: &github.CheckRunOutput{
			Title:   github.Ptr("Runner is running job"),
			Summary: github.Ptr(v.withDebugInfo(summary)),
		},
	}
}

// Update renders the terminal payload for outcome.
func (v CheckRunView) Update(outcome core.Outcome, completedAt time.Time) github.UpdateCheckRunOptions {
	conclusion, title, summary, text := v.render(outcome)
	return github.UpdateCheckRunOptions{
		Name:        v.Name,
		Status:      github.Ptr("completed"),
		Conclusion:  github.Ptr(conclusion),
		CompletedAt: &github.Timestamp{Time: completedAt},
		Output: &github.CheckRunOutput{
			Title:   github.Ptr(title),
			Summary: github.Ptr(v.withDebugInfo(summary)),
			Text:    github.Ptr(Truncate(text, MaxTextLength)),
		},
	}
}

func (v CheckRunView) render(outcome core.Outcome) (conclusion, title, summary, text string) {
	req := v.Request
	switch o := outcome.(type) {
	case core.CheckoutTimedOut:
		return ConclusionTimedOut, "Checkout repository timed out",
			fmt.Sprintf("Runner tried to checkout repository but timed out (%s): owner=%s, repo=%s, sha=%s",
				o.Duration, req.Owner(), req.Repo(), req.HeadSHA), ""
	case core.CommandTimedOut:
		return ConclusionTimedOut, "Running job timed out",
			fmt.Sprintf("Job execution has timed out on the runner (%s): `%s`", o.Duration, strings.Join(o.Command, " ")), ""
	case core.CommandCompleted:
		cmd := strings.Join(o.Command, " ")
		if o.Success {
			return ConclusionSuccess, "Runner executed job successfully",
				fmt.Sprintf("Command succeeded: `%s`", cmd), v.commandText(o)
		}
		return ConclusionFailure, "Runner ran job but it failed",
			fmt.Sprintf("Command failed with %s: `%s`", o.Status, cmd), v.commandText(o)
	case core.HandlerFailed:
		return ConclusionFailure, "Runner failed to handle event",
			"Event handling failed, contact operation team.",
			fmt.Sprintf("Error:\n\n```\n%v\n```", o.Err)
	default:
		return ConclusionFailure, "Runner failed to handle event",
			"Event handling failed, contact operation team.",
			fmt.Sprintf("Error:\n\n```\nunknown outcome %T\n```", outcome)
	}
}

func (v CheckRunView) commandText(o core.CommandCompleted) string {
	var sb strings.Builder
	if len(o.Env) > 0 {
		sb.WriteString("## environment\n```\n")
		sb.WriteString(RenderEnv(o.Env))
		sb.WriteString("```\n")
	}

	redact := secretReplacer(o.Env)
	stdout := redact.Replace(strings.ToValidUTF8(string(o.Stdout), "�"))
	stderr := redact.Replace(strings.ToValidUTF8(string(o.Stderr), "�"))
	if v.WrapStdout {
		fmt.Fprintf(&sb, "## stdout\n```\n%s\n```\n## stderr\n```\n%s\n```", stdout, stderr)
	} else {
		fmt.Fprintf(&sb, "## stdout\n%s\n## stderr\n%s", stdout, stderr)
	}
	return sb.String()
}

func (v CheckRunView) withDebugInfo(s string) string {
	return fmt.Sprintf("%s\n\nDelivery ID (not unique for re-delivery): `%s`\nRequest ID (unique for re-delivery): `%s`",
		s, v.Request.DeliveryID, v.Request.RequestID)
}

// RenderEnv lists env one "KEY=VALUE" line per entry in order, with secret
// values replaced by asterisks of the same length.
func RenderEnv(env core.JobEnv) string {
	var sb strings.Builder
	for _, e := range env {
		value := e.Value
		if e.Secret {
			value = strings.Repeat("*", utf8.RuneCountInString(e.Value))
		}
		fmt.Fprintf(&sb, "%s=%s\n", e.Key, value)
	}
	return sb.String()
}

// secretReplacer masks secret values that a job echoed to its output.
func secretReplacer(env core.JobEnv) *strings.Replacer {
	var pairs []string
	for _, e := range env {
		if e.Secret && e.Value != "" {
			pairs = append(pairs, e.Value, strings.Repeat("*", utf8.RuneCountInString(e.Value)))
		}
	}
	return strings.NewReplacer(pairs...)
}

// Truncate cuts s to at most limit characters and appends TruncationMarker
// when anything was removed.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + TruncationMarker
		}
		n++
	}
	return s
}
