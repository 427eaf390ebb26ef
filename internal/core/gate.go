package core

const (
	EventCheckSuite  = "check_suite"
	EventCheckRun    = "check_run"
	EventPullRequest = "pull_request"

	ActionRerequested = "rerequested"
)

// IsRerun reports whether the request is an explicit manual re-run of checks.
func (r *DispatchRequest) IsRerun() bool {
	if r.Action != ActionRerequested {
		return false
	}
	return r.EventName == EventCheckSuite || r.EventName == EventCheckRun
}

// Accept decides whether a dispatch should be handled by the runner configured
// for expectedInstallationID. Re-run requests are accepted from any installation
// because GitHub may deliver them in the context of a different installation
// than the one that delivered the original event.
func Accept(req *DispatchRequest, expectedInstallationID int64) bool {
	if req.IsRerun() {
		return true
	}
	return req.InstallationID == expectedInstallationID
}
