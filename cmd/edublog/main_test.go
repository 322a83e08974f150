package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edublog/internal/devserver"
	"edublog/internal/domain"
)

type cli struct {
	t          *testing.T
	configPath string
}

func newCLI(t *testing.T) (*cli, *devserver.Server) {
	t.Helper()

	backend := devserver.New(devserver.Config{JWTSecret: "test"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "edublog.yaml")
	config := fmt.Sprintf(`
api:
  base_url: %s/api
  timeout: 2s
store:
  driver: sqlite
  dsn: %s
log_level: error
`, ts.URL, filepath.Join(dir, "edublog.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))

	return &cli{t: t, configPath: configPath}, backend
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	opts := &rootOptions{}
	cmd := newRootCmd(opts)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(bytes.NewBufferString(""))
	cmd.SetArgs(append([]string{"--config", c.configPath}, args...))

	err := cmd.ExecuteContext(ctx)
	opts.close()
	return out.String(), err
}

func TestCLI_SessionAndPosts(t *testing.T) {
	c, backend := newCLI(t)
	_, err := backend.SeedAccount("Ana", "ana@school.edu", "s3cret")
	require.NoError(t, err)

	out, err := c.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "not logged in\n", out)

	out, err = c.run("login", "--email", "ana@school.edu", "--password", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "logged in as Ana\n", out)

	out, err = c.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Ana <ana@school.edu>\n", out)

	_, err = c.run("post", "create", "--title", "Fractions", "--body", "Halves and quarters")
	require.NoError(t, err)

	out, err = c.run("feed")
	require.NoError(t, err)
	assert.Contains(t, out, "Fractions")
	assert.Contains(t, out, "by Ana")

	out, err = c.run("feed", "-q", "photosynthesis")
	require.NoError(t, err)
	assert.Equal(t, "no posts\n", out)

	require.NoError(t, func() error { _, err := c.run("logout"); return err }())

	_, err = c.run("post", "create", "--title", "Other", "--body", "text")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCLI_LoginRejected(t *testing.T) {
	c, backend := newCLI(t)
	_, err := backend.SeedAccount("Ana", "ana@school.edu", "s3cret")
	require.NoError(t, err)

	_, err = c.run("login", "--email", "ana@school.edu", "--password", "wrong")

	require.Error(t, err)
	assert.Equal(t, "invalid email or password", domain.UserMessage(err, ""))
}

func TestCLI_LikeOnce(t *testing.T) {
	c, backend := newCLI(t)
	id := backend.SeedPost("Intro", "Hello", "Ana")

	out, err := c.run("like", id)
	require.NoError(t, err)
	assert.Equal(t, "liked, the post now has 1 like\n", out)

	_, err = c.run("like", id)
	assert.ErrorIs(t, err, domain.ErrAlreadyLiked)

	out, err = c.run("show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "1 like, including yours")
}

func TestCLI_CommentAndShow(t *testing.T) {
	c, backend := newCLI(t)
	id := backend.SeedPost("Intro", "Hello", "Ana")

	_, err := c.run("comment", id, "great", "post")
	require.NoError(t, err)

	out, err := c.run("show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "1 comment:")
	assert.Contains(t, out, "  - great post")
}

func TestCLI_AccountsRequireLogin(t *testing.T) {
	c, _ := newCLI(t)

	_, err := c.run("accounts", "list")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCLI_RegisterThenManageAccounts(t *testing.T) {
	c, _ := newCLI(t)

	_, err := c.run("register", "--name", "Bia", "--email", "bia@school.edu", "--password", "pw")
	require.NoError(t, err)

	_, err = c.run("login", "--email", "bia@school.edu", "--password", "pw")
	require.NoError(t, err)

	out, err := c.run("accounts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "bia@school.edu")
	assert.Contains(t, out, "NAME")
}
