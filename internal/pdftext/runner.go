package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Runner executes an external command; tests replace it to fake pdftotext.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ErrToolMissing means the configured pdftotext binary is not on PATH.
var ErrToolMissing = errors.New("pdftotext binary not found")

const stderrCap = 8 << 10

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	bin, err := exec.LookPath(name)
	if err != nil {
		r.logger.Error("pdftotext lookup failed", "cmd", name, "error", err)
		return nil, nil, fmt.Errorf("%w: %s", ErrToolMissing, name)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, bin, args...)
	var out bytes.Buffer
	errb := &cappedBuffer{max: stderrCap}
	cmd.Stdout = &out
	cmd.Stderr = errb

	err = cmd.Run()
	elapsed := time.Since(start)
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		// report the deadline rather than "signal: killed"
		err = fmt.Errorf("%s interrupted after %s: %w", name, elapsed.Round(time.Millisecond), ctxErr)
	}

	if err != nil {
		r.logger.Error("pdftotext failed",
			"cmd", bin,
			"pdf", lastArgPath(args),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
			"stderr", errb.String(),
		)
	} else {
		r.logger.Debug("pdftotext ok",
			"cmd", bin,
			"pdf", lastArgPath(args),
			"duration_ms", elapsed.Milliseconds(),
			"stdout_bytes", out.Len(),
		)
	}
	return out.Bytes(), errb.Bytes(), err
}

// lastArgPath picks the input file out of "... <path> -".
func lastArgPath(args []string) string {
	if n := len(args); n >= 2 && args[n-1] == "-" {
		return args[n-2]
	}
	if n := len(args); n > 0 {
		return args[n-1]
	}
	return ""
}

// cappedBuffer keeps at most max bytes and silently drops the rest.
type cappedBuffer struct {
	buf bytes.Buffer
	max int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := c.max - c.buf.Len(); room > 0 {
		if len(p) > room {
			c.buf.Write(p[:room])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}

func (c *cappedBuffer) Bytes() []byte  { return c.buf.Bytes() }
func (c *cappedBuffer) String() string { return c.buf.String() }
