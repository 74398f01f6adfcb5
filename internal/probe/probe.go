// Package probe reads media durations by running ffprobe as a subprocess.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics

// Prober reports the duration of a media file in seconds.
//
// Every failure mode (missing binary, non-zero exit, unparseable output)
// surfaces as an error; the caller substitutes the profile's fallback
// duration rather than propagating the failure.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFProbe shells out to the ffprobe binary.
type FFProbe struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewFFProbe resolves the ffprobe binary and returns a prober. An empty
// binary argument means auto-detect on PATH.
func NewFFProbe(binary string, timeout time.Duration, logger *slog.Logger) (*FFProbe, error) {
	resolved, err := resolveFFProbe(binary)
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffprobe: %w", err)
	}
	return &FFProbe{binary: resolved, timeout: timeout, logger: logger}, nil
}

// Duration runs ffprobe and parses the single numeric duration it prints.
func (f *FFProbe) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, f.binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	var stderrBuf bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		f.logger.Warn("ffprobe failed",
			"exit_code", exitCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"stderr_tail", stderrBuf.String(),
		)
		return 0, fmt.Errorf("ffprobe exited %d: %s", exitCode, stderrBuf.String())
	}

	dur, err := parseDuration(stdout.String())
	if err != nil {
		return 0, err
	}

	f.logger.Info("probed media duration",
		"duration_sec", dur,
		"probe_ms", time.Since(start).Milliseconds(),
	)
	return dur, nil
}

// Stub returns a fixed duration. Used in tests and wherever probing is
// disabled.
type Stub struct {
	Value  float64
	Err    error
	logger *slog.Logger
}

func NewStub(value float64, logger *slog.Logger) *Stub {
	return &Stub{Value: value, logger: logger}
}

func (s *Stub) Duration(ctx context.Context, path string) (float64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	if s.logger != nil {
		s.logger.Info("probe stub: returning fixed duration", "path", path, "duration_sec", s.Value)
	}
	return s.Value, nil
}

func parseDuration(output string) (float64, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return 0, fmt.Errorf("ffprobe printed no duration")
	}
	dur, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse ffprobe duration %q: %w", trimmed, err)
	}
	if dur <= 0 {
		return 0, fmt.Errorf("ffprobe reported non-positive duration %v", dur)
	}
	return dur, nil
}

func resolveFFProbe(preferred string) (string, error) {
	if preferred != "" {
		p, err := exec.LookPath(preferred)
		if err != nil {
			return "", fmt.Errorf("configured ffprobe %q not found", preferred)
		}
		return p, nil
	}
	p, err := exec.LookPath("ffprobe")
	if err != nil {
		return "", fmt.Errorf("no ffprobe binary found on PATH")
	}
	return p, nil
}

// limitedWriter keeps only the last `limit` bytes written.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
