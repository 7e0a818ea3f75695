package stageexec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/logging"
	"outreach/internal/services"
)

const maxResultBytes = 1 << 20

// Runner executes one stage action in isolation.
type Runner interface {
	Run(ctx context.Context, req Request) Outcome
}

// Outcome is everything the coordinator learns about one child run.
type Outcome struct {
	Result   *Result
	ExitCode int
	Stderr   string
	Killed   bool
	Duration time.Duration
	// Err is set when the child could not be started, its output could not
	// be decoded, or it exited unsuccessfully.
	Err error
}

// Succeeded reports whether the child exited cleanly with an OK result.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && !o.Killed && o.ExitCode == 0 && o.Result != nil && o.Result.OK
}

// Failure renders a note for a failed outcome, preferring the stderr tail.
func (o Outcome) Failure() string {
	var parts []string
	switch {
	case o.Killed:
		parts = append(parts, "executor killed after timeout")
	case o.Err != nil:
		parts = append(parts, o.Err.Error())
	case o.Result != nil && o.Result.Error != "":
		parts = append(parts, o.Result.Error)
	}
	if tail := strings.TrimSpace(o.Stderr); tail != "" {
		parts = append(parts, "stderr: "+tail)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("executor exited with code %d", o.ExitCode)
	}
	return services.Truncate(strings.Join(parts, "; "))
}

// ProcessRunner launches executors as child processes.
type ProcessRunner struct {
	Binary string
	// Args defaults to ["exec"].
	Args        []string
	Env         []string
	Timeout     time.Duration
	StderrLimit int
	Logger      *zap.Logger
}

// NewProcessRunner builds a runner from the orchestrator config.
func NewProcessRunner(cfg *config.Config, logger *zap.Logger) (*ProcessRunner, error) {
	bin, err := cfg.ExecutorBinary()
	if err != nil {
		return nil, err
	}
	return &ProcessRunner{
		Binary:      bin,
		Args:        []string{"exec"},
		Timeout:     cfg.Orchestrator.Timeout(),
		StderrLimit: cfg.Orchestrator.StderrTailBytes,
		Logger:      logger,
	}, nil
}

// Run starts the child, feeds it req, and waits for it to exit or time out.
// Cancelling ctx kills the child the same way the timeout does.
func (r *ProcessRunner) Run(ctx context.Context, req Request) Outcome {
	started := time.Now()
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.Logger, "stageexec")).With(
		zap.Int64(logging.FieldItemID, req.ItemID),
		zap.String("action", string(req.Action)),
	)

	payload, err := json.Marshal(req)
	if err != nil {
		return Outcome{ExitCode: -1, Err: fmt.Errorf("encode request: %w", err)}
	}
	args := r.Args
	if len(args) == 0 {
		args = []string{"exec"}
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.Command(r.Binary, args...)
	cmd.Stdin = bytes.NewReader(payload)
	stdout := &headBuffer{limit: maxResultBytes}
	stderr := newTailBuffer(r.StderrLimit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.WaitDelay = 2 * time.Second
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return Outcome{
			ExitCode: -1,
			Duration: time.Since(started),
			Err:      services.Wrap(services.ErrExecutorCrash, "stageexec", "start", r.Binary, err),
		}
	}
	logger.Debug("executor started", logging.Event("executor_start"), zap.Int("pid", cmd.Process.Pid))

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var (
		waitErr error
		killed  bool
	)
	select {
	case waitErr = <-done:
	case <-runCtx.Done():
		killed = true
		if err := killProcessGroup(cmd); err != nil {
			logger.Warn("kill executor process group failed", zap.Error(err), logging.Event("executor_kill_failed"))
		}
		waitErr = <-done
	}

	out := Outcome{
		ExitCode: exitCode(cmd, waitErr),
		Stderr:   stderr.String(),
		Killed:   killed,
		Duration: time.Since(started),
	}
	if stderr.Truncated() {
		out.Stderr = "..." + out.Stderr
	}
	if res, err := DecodeResult(stdout.Bytes()); err == nil {
		out.Result = res
	} else if !killed && out.ExitCode == 0 {
		out.Err = services.Wrap(services.ErrExecutorCrash, "stageexec", "decode result", "", err)
	}

	switch {
	case killed:
		out.Err = services.Wrap(services.ErrTimeout, "stageexec", "wait", fmt.Sprintf("executor killed after %s", r.Timeout), runCtx.Err())
		logger.Warn("executor timed out", logging.Event("executor_timeout"), zap.Duration("duration", out.Duration))
	case out.ExitCode != 0:
		msg := fmt.Sprintf("executor exited with code %d", out.ExitCode)
		if out.Result != nil && out.Result.Error != "" {
			msg += ": " + out.Result.Error
		}
		out.Err = services.Wrap(services.ErrExecutorCrash, "stageexec", "wait", msg, nil)
		logger.Warn("executor failed", logging.Event("executor_failed"), zap.Int("exit_code", out.ExitCode), zap.Duration("duration", out.Duration))
	case out.Err == nil:
		logger.Debug("executor finished", logging.Event("executor_finish"), zap.Duration("duration", out.Duration))
	}
	return out
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}
