// File: internal/shutdown/coordinator.go

// Package shutdown orchestrates process termination: a registry of cleanup
// tasks drained exactly once, on the first termination signal or fatal error.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Task is an asynchronous cleanup callback. It receives the name of the
// triggering signal and, when the shutdown was caused by a failure, the
// triggering error.
type Task func(ctx context.Context, signal string, cause error) error

type state int

const (
	stateIdle state = iota
	stateShuttingDown
	stateTerminated
)

type namedTask struct {
	name string
	run  Task
}

// Coordinator is the process-wide registry of cleanup tasks. Registration is
// append-only; the registry is drained exactly once, concurrently, waiting
// for every task to settle regardless of individual failures.
type Coordinator struct {
	mu      sync.Mutex
	state   state
	tasks   []namedTask
	logger  *zap.Logger
	timeout time.Duration

	// exit is swapped out in tests.
	exit func(code int)
}

// New creates a coordinator. timeout bounds the total drain.
func New(logger *zap.Logger, timeout time.Duration) *Coordinator {
	return &Coordinator{
		logger:  logger.Named("shutdown"),
		timeout: timeout,
		exit:    os.Exit,
	}
}

// Register appends a cleanup task. Safe to call from any goroutine before the
// shutdown begins; tasks registered after the first trigger are not run.
func (c *Coordinator) Register(name string, task Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateIdle {
		c.logger.Warn("Task registered after shutdown began; it will not run", zap.String("task", name))
		return
	}
	c.tasks = append(c.tasks, namedTask{name: name, run: task})
}

// Listen installs signal handlers and blocks the calling goroutine until a
// termination signal arrives, then triggers the shutdown.
func (c *Coordinator) Listen() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-quit
	c.Trigger(sig.String(), nil)
}

// Trigger starts the shutdown sequence. The first trigger wins; subsequent
// calls are ignored. The process exits with code 0 for a clean
// signal-triggered shutdown and 1 when triggered by an error.
func (c *Coordinator) Trigger(signalName string, cause error) {
	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return
	}
	c.state = stateShuttingDown
	tasks := c.tasks
	c.mu.Unlock()

	fields := []zap.Field{
		zap.String("signal", signalName),
		zap.Int("tasks", len(tasks)),
	}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	c.logger.Info("Shutdown initiated", fields...)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task namedTask) {
			defer wg.Done()
			if err := task.run(ctx, signalName, cause); err != nil {
				c.logger.Error("Shutdown task failed",
					zap.String("task", task.name),
					zap.Error(err),
				)
			}
		}(task)
	}
	wg.Wait()

	c.mu.Lock()
	c.state = stateTerminated
	c.mu.Unlock()

	c.logger.Info("Shutdown complete")
	_ = c.logger.Sync()

	if cause != nil {
		c.exit(1)
		return
	}
	c.exit(0)
}
