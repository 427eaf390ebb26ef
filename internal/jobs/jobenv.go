package jobs

import (
	"sort"
	"strings"

	"github.com/sevigo/orgu/internal/core"
)

// BuildJobEnv returns the variables injected into the job process. Entries
// carrying the token are marked secret. Custom properties follow the fixed
// entries in key order as CUSTOM_PROP_<KEY>.
func BuildJobEnv(req *core.DispatchRequest, token, jobName string) core.JobEnv {
	env := core.JobEnv{
		{Key: "GITHUB_TOKEN", Value: token, Secret: true},
		// https://github.com/reviewdog/reviewdog#jenkins-with-github-pull-request-builder-plugin
		{Key: "REVIEWDOG_GITHUB_API_TOKEN", Value: token, Secret: true},
		{Key: "REVIEWDOG_SKIP_DOGHOUSE", Value: "true"},
		{Key: "JOB_NAME", Value: jobName},
		{Key: "CI_COMMIT", Value: req.HeadSHA},
		{Key: "CI_REPO_OWNER", Value: req.Owner()},
		{Key: "CI_REPO_NAME", Value: req.Repo()},
		{Key: "CI_PULL_REQUEST", Value: req.PullRequest()},
		{Key: "CI_DELIVERY_ID", Value: req.DeliveryID},
		{Key: "CI_REQUEST_ID", Value: req.RequestID},
		{Key: "CI_EVENT_NAME", Value: req.EventName},
		{Key: "CI_EVENT_ACTION", Value: req.Action},
		{Key: "CI_HEAD", Value: req.HeadSHA},
		{Key: "CI_HEAD_REF", Value: req.GetPullRequestHeadRef()},
		{Key: "CI_BASE", Value: req.GetBaseSHA()},
		{Key: "CI_BASE_REF", Value: req.GetBaseRef()},
		{Key: "CI_BEFORE", Value: req.GetBefore()},
		{Key: "CI_AFTER", Value: req.GetAfter()},
	}

	props := req.Repository.CustomProperties
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, core.EnvEntry{Key: "CUSTOM_PROP_" + strings.ToUpper(k), Value: props[k]})
	}
	return env
}
