package task

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cuongbtq/statmon/internal/monitor/domain"
	"github.com/kballard/go-shellquote"
)

const defaultScriptTimeout = 10 * time.Second

// ScriptProducer runs a script from the scripts directory and reports its stdout.
// The task name is the command line: the script file name followed by its arguments.
type ScriptProducer struct {
	dir     string
	dirErr  error
	timeout time.Duration
}

// NewScriptProducer creates a script producer rooted at dir.
// A relative dir is resolved against the working directory once, here.
func NewScriptProducer(dir string, timeout time.Duration) *ScriptProducer {
	if timeout <= 0 {
		timeout = defaultScriptTimeout
	}

	p := &ScriptProducer{
		dir:     dir,
		timeout: timeout,
	}
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			p.dirErr = fmt.Errorf("failed to resolve scripts directory %q: %w", dir, err)
		} else {
			p.dir = abs
		}
	}

	return p
}

// Produce runs the script named by name and returns its trimmed output
func (p *ScriptProducer) Produce(ctx context.Context, name string) (string, error) {
	path, args, err := p.command(name)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = p.dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("failed to run script %s: %w: %s", filepath.Base(path), err, msg)
		}
		return "", fmt.Errorf("failed to run script %s: %w", filepath.Base(path), err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// command splits name into a script path inside the scripts directory and its arguments
func (p *ScriptProducer) command(name string) (string, []string, error) {
	if p.dir == "" {
		return "", nil, domain.ErrScriptsDisabled
	}
	if p.dirErr != nil {
		return "", nil, p.dirErr
	}

	argv, err := shellquote.Split(name)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse script command %q: %w", name, err)
	}
	if len(argv) == 0 {
		return "", nil, fmt.Errorf("%w: empty command", domain.ErrScriptNotAllowed)
	}

	script := argv[0]
	if script != filepath.Base(script) || script == "." || script == ".." {
		return "", nil, fmt.Errorf("%w: %q", domain.ErrScriptNotAllowed, script)
	}

	return filepath.Join(p.dir, script), argv[1:], nil
}
