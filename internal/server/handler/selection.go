package handler

import "github.com/sevigo/orgu/internal/core"

// Selections supported by RUNNER_SELECT.
const (
	SelectPullRequest = "pull_request"
	SelectCheckSuite  = "check_suite"
)

// Selected reports whether a runner configured with selection should handle
// req. pull_request runners also take re-runs of their check suites and
// check runs; check_suite runners take check run re-runs.
func Selected(selection string, req *core.DispatchRequest) bool {
	switch selection {
	case SelectPullRequest:
		return req.EventName == core.EventPullRequest || req.IsRerun()
	case SelectCheckSuite:
		if req.EventName == core.EventCheckSuite {
			return true
		}
		return req.EventName == core.EventCheckRun && req.Action == core.ActionRerequested
	default:
		return false
	}
}
