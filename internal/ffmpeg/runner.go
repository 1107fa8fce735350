package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/hiinaspace/animutools/internal/config"
	"github.com/hiinaspace/animutools/internal/logging"
	"github.com/hiinaspace/animutools/internal/progress"
	"github.com/hiinaspace/animutools/internal/services"
)

var commandContext = exec.CommandContext

// stderr lines matching this are logged at warn; the rest at debug.
var stderrAlertPattern = regexp.MustCompile(`(?i)error|err:|invalid|unable|fail|could not`)

const lockRetryInterval = 500 * time.Millisecond

// RunOptions controls progress instrumentation for one invocation.
type RunOptions struct {
	// Description labels the progress bar.
	Description string
	// DurationSeconds scales the progress bar; <= 0 means unknown and
	// disables instrumentation.
	DurationSeconds float64
	// ShowProgress enables the progress bridge when the duration is known.
	ShowProgress bool
	// ProgressWriter receives progress bar output; nil disables rendering
	// while keeping the bridge active.
	ProgressWriter io.Writer
}

// Runner executes ffmpeg commands, one encode at a time across processes.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewRunner constructs a Runner. Plain (uninstrumented) runs inherit the
// given stdout/stderr writers; pass nil for the os defaults.
func NewRunner(cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) *Runner {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "encode"),
		stdout: stdout,
		stderr: stderr,
	}
}

// Run executes cmd to completion. Success is exit code 0; a nonzero exit is
// returned as an ErrExternalTool-tagged error carrying the code. Concurrent
// invocations queue on the configured lock file. Progress instrumentation is
// cosmetic: if the bridge cannot be set up the encode still runs.
func (r *Runner) Run(ctx context.Context, cmd *Command, opts RunOptions) error {
	logger := r.logger.With(logging.String("session", shortSessionID()))

	unlock, err := r.acquireLock(ctx, logger)
	if err != nil {
		return err
	}
	defer unlock()

	if !opts.ShowProgress {
		return r.runPlain(ctx, cmd, logger)
	}

	driver, err := progress.NewDriver(opts.DurationSeconds, opts.Description, opts.ProgressWriter)
	if err != nil {
		logger.Warn("cannot show progress, duration unknown", logging.Error(err))
		return r.runPlain(ctx, cmd, logger)
	}
	return r.runWithProgress(ctx, cmd, driver, logger)
}

func (r *Runner) runWithProgress(ctx context.Context, cmd *Command, driver *progress.Driver, logger *slog.Logger) error {
	defer driver.Close()

	listener := progress.NewListener(driver, logger,
		progress.WithReadTimeout(r.progressIdleTimeout()))
	url, err := listener.Start()
	if err != nil {
		// Progress is cosmetic; a bridge setup failure never fails the encode.
		logger.Warn("progress bridge unavailable, running unmonitored", logging.Error(err))
		return r.runPlain(ctx, cmd, logger)
	}
	defer listener.Stop()

	// Report to our socket and suppress ffmpeg's own stats/banner so the two
	// displays don't collide.
	cmd.GlobalArgs("-progress", url, "-nostats", "-hide_banner")

	execCmd := commandContext(ctx, cmd.Binary(), cmd.Args()...)
	stderr, err := execCmd.StderrPipe()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "stderr pipe", err)
	}

	_, duration := driver.Position()
	logger.Info("starting encode",
		logging.Float64("duration_seconds", duration),
		logging.String("command", cmd.String()),
	)

	if err := execCmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "start", err)
	}

	// Drain stderr through a bounded queue so log classification never backs
	// up the pipe while the encoder is running.
	lines := make(chan string, 128)
	var drains sync.WaitGroup
	drains.Add(2)
	go func() {
		defer drains.Done()
		defer close(lines)
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 512*1024)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				lines <- line
			}
		}
	}()
	go func() {
		defer drains.Done()
		for line := range lines {
			r.logStderrLine(logger, line)
		}
	}()

	waitErr := execCmd.Wait()
	drains.Wait()
	listener.Stop()

	if waitErr != nil {
		driver.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return mapExitError(logger, waitErr)
	}

	if !driver.Connected() {
		logger.Warn("ffmpeg completed without sending progress updates")
	}
	driver.Complete()
	logger.Info("encode completed")
	return nil
}

func (r *Runner) runPlain(ctx context.Context, cmd *Command, logger *slog.Logger) error {
	execCmd := commandContext(ctx, cmd.Binary(), cmd.Args()...)
	execCmd.Stdout = r.stdout
	execCmd.Stderr = r.stderr

	logger.Info("starting encode", logging.String("command", cmd.String()))
	if err := execCmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return mapExitError(logger, err)
	}
	logger.Info("encode completed")
	return nil
}

func (r *Runner) logStderrLine(logger *slog.Logger, line string) {
	// ffmpeg's native progress lines arrive over the socket instead.
	if strings.HasPrefix(line, "frame=") || strings.HasPrefix(line, "size=") {
		return
	}
	if stderrAlertPattern.MatchString(line) {
		logger.Warn("ffmpeg output", logging.String("line", line))
		return
	}
	logger.Debug("ffmpeg output", logging.String("line", line))
}

// acquireLock serializes encode invocations across processes on an exclusive
// file lock, so concurrent tool runs queue rather than collide.
func (r *Runner) acquireLock(ctx context.Context, logger *slog.Logger) (func(), error) {
	path := ""
	if r.cfg != nil {
		path = strings.TrimSpace(r.cfg.Paths.LockFile)
	}
	if path == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "encode", "lock", path, err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "encode", "acquire lock", path, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTimeout, "encode", "acquire lock", path, nil)
	}
	logger.Debug("encode lock acquired", logging.String("lock_file", path))
	return func() { _ = lock.Unlock() }, nil
}

func (r *Runner) progressIdleTimeout() time.Duration {
	if r.cfg != nil && r.cfg.Encode.ProgressIdleSeconds > 0 {
		return time.Duration(r.cfg.Encode.ProgressIdleSeconds) * time.Second
	}
	return 5 * time.Second
}

func mapExitError(logger *slog.Logger, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		logger.Error("ffmpeg failed", logging.Int("exit_code", code))
		return services.Wrap(services.ErrExternalTool, "encode", "ffmpeg",
			fmt.Sprintf("exit code %d", code), err)
	}
	return services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "wait", err)
}

// ExitCode extracts the subprocess exit code from a Run error.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

func shortSessionID() string {
	return uuid.NewString()[:8]
}
