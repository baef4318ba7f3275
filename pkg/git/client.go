// Package git versions the resource vault through the git command line.
package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultLockName is the lock file created in the working directory while
// a writer holds the vault.
const DefaultLockName = ".eadvault.lock"

// Client runs git in a working directory. Writers serialize through a lock
// file so that concurrent processes do not interleave stage and commit.
type Client struct {
	WorkDir  string
	Logger   *slog.Logger
	lockPath string
	// LockTimeout bounds Lock. Zero waits forever.
	LockTimeout time.Duration
}

// NewClient creates a client for workDir. An empty lockName uses
// DefaultLockName.
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if lockName == "" {
		lockName = DefaultLockName
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		WorkDir:  workDir,
		Logger:   logger,
		lockPath: lockName,
	}
}

// IsInstalled reports whether a git binary is on the PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// LockPath returns the absolute path of the lock file.
func (c *Client) LockPath() string {
	return filepath.Join(c.WorkDir, c.lockPath)
}

// Lock acquires the lock file, waiting until it is free or LockTimeout
// elapses. The returned function releases it.
func (c *Client) Lock() (func(), error) {
	path := c.LockPath()
	var deadline time.Time
	if c.LockTimeout > 0 {
		deadline = time.Now().Add(c.LockTimeout)
	}

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, fmt.Errorf("failed to acquire lock: %s held for more than %s", path, c.LockTimeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Run executes git with args. It does not take the lock.
func (c *Client) Run(args ...string) (string, error) {
	return c.RunContext(context.Background(), args...)
}

// RunContext is Run bound to ctx.
func (c *Client) RunContext(ctx context.Context, args ...string) (string, error) {
	c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.WorkDir
	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}
	return strings.TrimSpace(output), nil
}

// IsRepo reports whether the working directory is inside a work tree.
func (c *Client) IsRepo() bool {
	out, err := c.Run("rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Init creates the repository. Re-running it is harmless.
func (c *Client) Init() error {
	_, err := c.Run("init")
	return err
}

// Add stages files.
func (c *Client) Add(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(append([]string{"add", "--"}, files...)...)
	return err
}

// Rm unstages and removes files.
func (c *Client) Rm(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(append([]string{"rm", "-f", "--"}, files...)...)
	return err
}

// Commit records the staged changes. The author is set on the command so
// that vaults work on machines without a git identity.
func (c *Client) Commit(msg string) error {
	_, err := c.Run("-c", "user.name=eadimport", "-c", "user.email=eadimport@localhost", "commit", "-m", msg)
	return err
}

// Status returns the porcelain status.
func (c *Client) Status() (string, error) {
	return c.Run("status", "--porcelain")
}

// LastMessage returns the message of the last commit.
func (c *Client) LastMessage() (string, error) {
	return c.Run("log", "-1", "--pretty=%B")
}
