package jobs

import (
	"fmt"

	"github.com/sevigo/orgu/internal/core"
)

// ValidateRequest ensures the request names a repository and a commit.
func ValidateRequest(req *core.DispatchRequest) error {
	if req.Owner() == "" {
		return fmt.Errorf("repository owner cannot be empty")
	}
	if req.Repo() == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if req.HeadSHA == "" {
		return fmt.Errorf("head SHA cannot be empty")
	}
	return nil
}
