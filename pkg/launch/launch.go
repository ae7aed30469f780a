// Package launch hands a finished argument vector to the game runtime.
package launch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"PojClient/internal/logging"
)

// Sink receives the argument vector of an instance. dir is the working
// directory the game should run in.
type Sink interface {
	Launch(ctx context.Context, dir string, args []string) error
}

// ExecSink starts Binary with args and waits for it to exit.
type ExecSink struct {
	Binary string
	Stdout io.Writer
	Stderr io.Writer
}

func NewExecSink(binary string) *ExecSink {
	return &ExecSink{Binary: binary, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (s *ExecSink) Launch(ctx context.Context, dir string, args []string) error {
	cmd := exec.CommandContext(ctx, s.Binary, args...)
	cmd.Dir = dir
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	logging.GlobalLogger.Infof("Launching %s with %d arguments in %s", s.Binary, len(args), dir)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", s.Binary, err)
	}
	return nil
}

// RecordingSink keeps every launch instead of running it.
type RecordingSink struct {
	mu    sync.Mutex
	calls []Call
}

type Call struct {
	Dir  string
	Args []string
}

func (s *RecordingSink) Launch(_ context.Context, dir string, args []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Dir: dir, Args: append([]string(nil), args...)})
	return nil
}

func (s *RecordingSink) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}
