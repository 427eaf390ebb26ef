package gitutil

import (
	"fmt"
	"strings"
)

// RemoteURL returns the fetch URL of owner/repo under base. Credentials are
// never part of it.
func RemoteURL(base, owner, repo string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(base, "/"), owner, repo)
}

// ParseRepository splits "owner/repo" into its parts. A trailing ".git" and
// surrounding slashes are ignored.
func ParseRepository(fullName string) (owner, repo string, err error) {
	name := strings.Trim(strings.TrimSpace(fullName), "/")
	name = strings.TrimSuffix(name, ".git")

	parts := strings.Split(name, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
