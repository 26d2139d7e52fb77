// Package render re-renders a feedstock fork with conda-smithy and pushes
// the result, so a version tick ships with regenerated CI configuration.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	// ErrRenderCommand is returned when a clone, rerender, or push step fails
	ErrRenderCommand = errors.New("render command failed")
)

// DefaultCommitMessage is used for the rerender commit.
const DefaultCommitMessage = "MNT: Re-rendered with conda-smithy"

// RunFunc executes a command in dir and returns its stdout.
// The default implementation shells out; tests inject their own.
type RunFunc func(ctx context.Context, dir, name string, args ...string) (string, error)

// Renderer clones a fork into a scratch directory, runs conda-smithy
// rerender, and pushes the resulting commit back.
type Renderer struct {
	workRoot  string
	smithyCmd []string
	commitMsg string
	run       RunFunc
}

// Option is a functional option for configuring Renderer
type Option func(*Renderer)

// WithSmithyCommand overrides the rerender command line
// (default: conda smithy rerender).
func WithSmithyCommand(cmd []string) Option {
	return func(r *Renderer) {
		r.smithyCmd = cmd
	}
}

// WithCommitMessage overrides the rerender commit message.
func WithCommitMessage(msg string) Option {
	return func(r *Renderer) {
		r.commitMsg = msg
	}
}

// WithRunFunc injects a command runner for testing.
func WithRunFunc(fn RunFunc) Option {
	return func(r *Renderer) {
		r.run = fn
	}
}

// New creates a renderer that clones into workRoot.
func New(workRoot string, opts ...Option) *Renderer {
	r := &Renderer{
		workRoot:  workRoot,
		smithyCmd: []string{"conda", "smithy", "rerender"},
		commitMsg: DefaultCommitMessage,
		run:       runCommand,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rerender clones cloneURL into a fresh scratch directory, runs the smithy
// command, and commits and pushes whatever it changed. A rerender that
// changes nothing is a success with no commit. The clone is removed
// afterwards either way.
func (r *Renderer) Rerender(ctx context.Context, cloneURL, repoName string) error {
	dir := filepath.Join(r.workRoot, repoName)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("cleaning scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	if _, err := r.run(ctx, r.workRoot, "git", "clone", "--depth", "1", cloneURL, dir); err != nil {
		return fmt.Errorf("cloning %s: %w", repoName, err)
	}

	if _, err := r.run(ctx, dir, r.smithyCmd[0], r.smithyCmd[1:]...); err != nil {
		return fmt.Errorf("rerendering %s: %w", repoName, err)
	}

	status, err := r.run(ctx, dir, "git", "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("checking rerender result in %s: %w", repoName, err)
	}
	if strings.TrimSpace(status) == "" {
		return nil
	}

	if _, err := r.run(ctx, dir, "git", "add", "."); err != nil {
		return fmt.Errorf("staging rerender changes in %s: %w", repoName, err)
	}
	if _, err := r.run(ctx, dir, "git", "commit", "-m", r.commitMsg); err != nil {
		return fmt.Errorf("committing rerender in %s: %w", repoName, err)
	}
	if _, err := r.run(ctx, dir, "git", "push"); err != nil {
		return fmt.Errorf("pushing rerender of %s: %w", repoName, err)
	}

	return nil
}

// runCommand executes a command and returns stdout, folding stderr into the
// error for context.
func runCommand(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		if stderr := strings.TrimSpace(stderrBuf.String()); stderr != "" {
			return "", errors.Join(ErrRenderCommand, errors.New(stderr))
		}
		return "", errors.Join(ErrRenderCommand, err)
	}

	return stdoutBuf.String(), nil
}
