package gitutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/orgu/internal/config"
)

const testSHA = "0123456789abcdef0123456789abcdef01234567"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(gitURL string, mutate func(*config.CheckoutConfig)) *Engine {
	cfg := config.CheckoutConfig{FetchDepth: 1, FetchTimeout: 10 * time.Second, MaxWorkers: 4}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewEngine(cfg, gitURL, testLogger())
}

func TestEngine_NoFetchInitializesRemote(t *testing.T) {
	engine := newTestEngine("https://git.example.com", func(c *config.CheckoutConfig) { c.NoFetch = true })
	dir := filepath.Join(t.TempDir(), "orgu")

	spec := CheckoutSpec{Owner: "sevigo", Repo: "orgu", SHA: testSHA, Token: "secret"}
	require.NoError(t, engine.CheckoutUnder(context.Background(), spec, dir))

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	remote, err := repo.Remote("origin")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://git.example.com/sevigo/orgu"}, remote.Config().URLs)

	// Running again against the same directory reuses the repository and remote.
	require.NoError(t, engine.CheckoutUnder(context.Background(), spec, dir))
	engine.Wait()
}

func TestEngine_CreateDirAndCheckout(t *testing.T) {
	engine := newTestEngine("https://git.example.com", func(c *config.CheckoutConfig) { c.NoFetch = true })

	wd, err := engine.CreateDirAndCheckout(context.Background(), CheckoutSpec{Owner: "o", Repo: "r", SHA: testSHA})
	require.NoError(t, err)
	assert.Equal(t, "r", filepath.Base(wd.Path))
	assert.DirExists(t, filepath.Join(wd.Path, ".git"))

	root := filepath.Dir(wd.Path)
	require.NoError(t, wd.Close())
	assert.NoDirExists(t, root)
}

func TestEngine_InvalidSHA(t *testing.T) {
	engine := newTestEngine("https://git.example.com", nil)

	_, err := engine.CreateDirAndCheckout(context.Background(), CheckoutSpec{Owner: "o", Repo: "r", SHA: "not-a-sha"})
	require.Error(t, err)

	var timeout *TimeoutError
	assert.False(t, errors.As(err, &timeout))
	assert.Contains(t, err.Error(), "invalid commit SHA")
}

func TestEngine_InvalidRepoName(t *testing.T) {
	engine := newTestEngine("https://git.example.com", nil)

	_, err := engine.CreateDirAndCheckout(context.Background(), CheckoutSpec{Owner: "o", Repo: "../etc", SHA: testSHA})
	assert.Error(t, err)
}

func TestEngine_FetchFailureIsNotTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	engine := newTestEngine(srv.URL, nil)
	err := engine.CheckoutUnder(context.Background(), CheckoutSpec{Owner: "o", Repo: "r", SHA: testSHA}, t.TempDir())
	require.Error(t, err)

	var timeout *TimeoutError
	assert.False(t, errors.As(err, &timeout))
	engine.Wait()
}

func TestEngine_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	engine := newTestEngine(srv.URL, func(c *config.CheckoutConfig) { c.FetchTimeout = 100 * time.Millisecond })

	start := time.Now()
	_, err := engine.CreateDirAndCheckout(context.Background(), CheckoutSpec{Owner: "o", Repo: "r", SHA: testSHA, Token: "t"})
	require.Error(t, err)

	var timeout *TimeoutError
	require.True(t, errors.As(err, &timeout), "expected TimeoutError, got %v", err)
	assert.Equal(t, 100*time.Millisecond, timeout.Duration)
	assert.Less(t, time.Since(start), 5*time.Second)

	engine.Wait()
	assert.Equal(t, int64(0), engine.Abandoned())
}

func TestEngine_TimeoutRemovesDirectoryAfterWorkerExits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	engine := newTestEngine(srv.URL, func(c *config.CheckoutConfig) { c.FetchTimeout = 50 * time.Millisecond })
	_, err := engine.CreateDirAndCheckout(context.Background(), CheckoutSpec{Owner: "o", Repo: "r", SHA: testSHA})
	require.Error(t, err)

	engine.Wait()
	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEngine_AbortRemovesDirectoryAfterWorkerExits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	engine := newTestEngine(srv.URL, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := engine.CreateDirAndCheckout(ctx, CheckoutSpec{Owner: "o", Repo: "r", SHA: testSHA})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var timeout *TimeoutError
	assert.False(t, errors.As(err, &timeout))

	engine.Wait()
	assert.Equal(t, int64(0), engine.Abandoned())
	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// newSourceRepo creates <base>/owner/repo with one commit per content and
// returns the base and the commit hashes in order.
func newSourceRepo(t *testing.T, contents ...string) (string, []plumbing.Hash) {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "owner", "repo")

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	var hashes []plumbing.Hash
	for i, content := range contents {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte(content), 0o644))
		_, err := wt.Add("file.txt")
		require.NoError(t, err)
		hash, err := wt.Commit(content, &git.CommitOptions{Author: &object.Signature{
			Name:  "orgu",
			Email: "orgu@example.com",
			When:  time.Date(2024, 1, 1, i, 0, 0, 0, time.UTC),
		}})
		require.NoError(t, err)
		hashes = append(hashes, hash)
	}
	return base, hashes
}

func TestEngine_ChecksOutRequestedCommit(t *testing.T) {
	base, hashes := newSourceRepo(t, "one", "two")

	tests := []struct {
		name    string
		depth   int
		commit  int
		content string
	}{
		{"full history, older commit", 0, 0, "one"},
		{"full history, tip", 0, 1, "two"},
		{"shallow, older commit", 1, 0, "one"},
		{"shallow, tip", 1, 1, "two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine("file://"+base, func(c *config.CheckoutConfig) { c.FetchDepth = tt.depth })
			sha := hashes[tt.commit].String()

			wd, err := engine.CreateDirAndCheckout(context.Background(), CheckoutSpec{Owner: "owner", Repo: "repo", SHA: sha})
			require.NoError(t, err)
			t.Cleanup(func() { _ = wd.Close() })

			content, err := os.ReadFile(filepath.Join(wd.Path, "file.txt"))
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(content))

			repo, err := git.PlainOpen(wd.Path)
			require.NoError(t, err)
			head, err := repo.Head()
			require.NoError(t, err)
			assert.Equal(t, sha, head.Hash().String())
			assert.Equal(t, plumbing.HEAD, head.Name(), "HEAD should be detached")

			engine.Wait()
		})
	}
}

func TestCancelToken_StopsProgress(t *testing.T) {
	token := &CancelToken{}
	w := &progressWriter{token: token, logger: testLogger()}

	n, err := w.Write([]byte("Counting objects: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	token.Cancel()
	_, err = w.Write([]byte("Counting objects: 2\n"))
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestCheckoutSpec_LogValueOmitsToken(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("checkout", "spec", CheckoutSpec{Owner: "o", Repo: "r", SHA: "s", Token: "ghs_secret"})

	assert.Contains(t, buf.String(), "spec.owner=o")
	assert.NotContains(t, buf.String(), "ghs_secret")
}
