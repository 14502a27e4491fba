package expander

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Environment variables passed to the expander command.
const (
	EnvTargetFile = "BINMETA_TARGET_FILE"
	EnvBinaryFile = "BINMETA_BINARY_FILE"
	EnvCreatedAt  = "BINMETA_CREATED_AT"
)

// waitDelay bounds how long output pipes are drained after the process is
// killed.
const waitDelay = time.Second

// ErrNoCommand is returned when a Command has an empty argv.
var ErrNoCommand = errors.New("expander command is empty")

// Command is a Service backed by an external program.
// The template text is written to stdin and stdout is taken as the result.
type Command struct {
	// Args is the argv to execute. Args[0] is looked up in PATH.
	Args []string

	// Dir is the working directory, usually the vault root.
	Dir string

	// Timeout bounds each invocation. Zero means no timeout.
	Timeout time.Duration
}

// NewCommand creates a command service.
func NewCommand(args []string, dir string, timeout time.Duration) *Command {
	return &Command{Args: args, Dir: dir, Timeout: timeout}
}

// ParseTemplate runs the command for target.
func (c *Command) ParseTemplate(ctx context.Context, target Target, text string) (string, error) {
	if len(c.Args) == 0 || strings.TrimSpace(c.Args[0]) == "" {
		return "", ErrNoCommand
	}

	ctxToUse := ctx
	var cancel context.CancelFunc
	if c.Timeout > 0 {
		ctxToUse, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctxToUse, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(),
		EnvTargetFile+"="+target.NotePath,
		EnvBinaryFile+"="+target.BinaryPath,
		EnvCreatedAt+"="+strconv.FormatInt(target.CreatedAt.UnixMilli(), 10),
	)
	cmd.Stdin = strings.NewReader(text)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctxToUse.Err(); ctxErr != nil {
			return "", fmt.Errorf("expander %s: %w", c.Args[0], ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("expander %s failed: %w", c.Args[0], err)
		}
		return "", fmt.Errorf("expander %s failed: %w (stderr: %s)", c.Args[0], err, msg)
	}

	return stdout.String(), nil
}
