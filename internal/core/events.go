// Package core defines the essential interfaces and data structures that form the
// backbone of the runner. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the dispatch pipeline.
package core

import (
	"fmt"
	"strconv"
)

// DispatchRequest is the normalized view of a GitHub event that asks the runner
// to execute its job against a single commit. It is produced by the front
// service from a raw webhook payload and is never mutated by the runner.
type DispatchRequest struct {
	// RequestID is unique for each delivery, including re-deliveries.
	RequestID string `json:"request_id"`
	// DeliveryID has the same value across re-deliveries of one event.
	DeliveryID     string `json:"delivery_id"`
	InstallationID int64  `json:"installation_id"`
	EventName      string `json:"event_name"`
	Action         string `json:"action"`

	Repository Repository `json:"repository"`

	HeadSHA string `json:"head_sha"`
	// BaseSHA is always set for pull_request events and mostly set for check_suite events.
	BaseSHA *string `json:"base_sha,omitempty"`
	// BaseRef is nil for check_suite events.
	BaseRef *string `json:"base_ref,omitempty"`
	Before  *string `json:"before,omitempty"`
	After   *string `json:"after,omitempty"`

	// PullRequestNumber is the first associated pull request when a check suite
	// belongs to several of them.
	PullRequestNumber  *int    `json:"pull_request_number,omitempty"`
	PullRequestHeadRef *string `json:"pull_request_head_ref,omitempty"`

	Sender User `json:"sender"`
}

// Repository holds the repository fields the runner needs.
type Repository struct {
	FullName         string            `json:"full_name"`
	Name             string            `json:"name"`
	Private          bool              `json:"private"`
	Owner            User              `json:"owner"`
	CustomProperties map[string]string `json:"custom_properties,omitempty"`
}

// User is a GitHub user or organization.
type User struct {
	Login string `json:"login"`
}

// Owner returns the login of the repository owner.
func (r *DispatchRequest) Owner() string {
	return r.Repository.Owner.Login
}

// Repo returns the repository name without the owner.
func (r *DispatchRequest) Repo() string {
	return r.Repository.Name
}

// GetBaseSHA returns the BaseSHA field if it's non-nil, zero value otherwise.
func (r *DispatchRequest) GetBaseSHA() string {
	return deref(r.BaseSHA)
}

// GetBaseRef returns the BaseRef field if it's non-nil, zero value otherwise.
func (r *DispatchRequest) GetBaseRef() string {
	return deref(r.BaseRef)
}

// GetBefore returns the Before field if it's non-nil, zero value otherwise.
func (r *DispatchRequest) GetBefore() string {
	return deref(r.Before)
}

// GetAfter returns the After field if it's non-nil, zero value otherwise.
func (r *DispatchRequest) GetAfter() string {
	return deref(r.After)
}

// GetPullRequestHeadRef returns the PullRequestHeadRef field if it's non-nil, zero value otherwise.
func (r *DispatchRequest) GetPullRequestHeadRef() string {
	return deref(r.PullRequestHeadRef)
}

// PullRequest renders the pull request number, or an empty string when the
// event is not associated with one.
func (r *DispatchRequest) PullRequest() string {
	if r.PullRequestNumber == nil {
		return ""
	}
	return strconv.Itoa(*r.PullRequestNumber)
}

// LogAttrs lists the request attributes used for correlating log lines.
func (r *DispatchRequest) LogAttrs() []any {
	pr := 0
	if r.PullRequestNumber != nil {
		pr = *r.PullRequestNumber
	}
	return []any{
		"request_id", r.RequestID,
		"delivery_id", r.DeliveryID,
		"installation_id", r.InstallationID,
		"owner", r.Owner(),
		"repo", r.Repo(),
		"head_sha", r.HeadSHA,
		"pull_request_number", pr,
	}
}

// String implements fmt.Stringer for readable event logging.
func (r *DispatchRequest) String() string {
	return fmt.Sprintf("%s.%s %s@%s (request=%s delivery=%s)",
		r.EventName, r.Action, r.Repository.FullName, r.HeadSHA, r.RequestID, r.DeliveryID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
