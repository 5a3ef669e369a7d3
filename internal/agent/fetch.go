// internal/agent/fetch.go
package agent

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// Source tells where the agent output of a host comes from: either a file
// written by an external collector or a command printing it to stdout.
type Source struct {
	Path    string
	Command []string
	Timeout time.Duration
}

// Fetch reads and splits the agent output of src.
func Fetch(ctx context.Context, src Source) (*Output, error) {
	switch {
	case len(src.Command) > 0:
		return runCommand(ctx, src)
	case src.Path != "":
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open agent output: %w", err)
		}
		defer f.Close()
		return Split(f)
	default:
		return nil, ErrNoSource
	}
}

func runCommand(ctx context.Context, src Source) (*Output, error) {
	if src.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, src.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, src.Command[0], src.Command[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		logrus.WithFields(logrus.Fields{
			"command": src.Command[0],
			"stderr":  stderr.String(),
		}).Debug("Agent command failed")
		return nil, fmt.Errorf("agent command %s failed: %w", src.Command[0], err)
	}

	logrus.WithFields(logrus.Fields{
		"command":  src.Command[0],
		"bytes":    stdout.Len(),
		"duration": time.Since(start),
	}).Debug("Agent command finished")

	return Split(&stdout)
}
