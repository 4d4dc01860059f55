package platform

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"audiodesc/internal/logging"
)

const (
	defaultWaitInterval    = 2 * time.Second
	defaultWaitMaxInterval = 10 * time.Second
	waitMultiplier         = 1.5
)

// WaitOptions bounds WaitTask polling.
type WaitOptions struct {
	// Timeout caps the total wait. Zero means wait until ctx is done.
	Timeout     time.Duration
	Interval    time.Duration
	MaxInterval time.Duration
}

// GetTask returns the current state of a task.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("platform get task: id required")
	}
	task, err := c.call(ctx, "task/status", map[string]string{"taskId": id}, nil)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("platform get task %s: response missing status", id)
	}
	if task.TaskID == "" {
		task.TaskID = id
	}
	return task, nil
}

var errStillRunning = errors.New("task not finished")

// WaitTask polls the task until it reaches a terminal state. A succeeded task
// is returned as is; a failed task yields a *TaskError; exhausting
// opts.Timeout yields an error matching ErrWaitTimeout.
func (c *Client) WaitTask(ctx context.Context, task *Task, opts WaitOptions) (*Task, error) {
	if task == nil || task.TaskID == "" {
		return nil, errors.New("platform wait task: task handle required")
	}
	if task.State.Terminal() {
		return finish(task)
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = defaultWaitInterval
	}
	maxInterval := opts.MaxInterval
	if maxInterval < interval {
		maxInterval = max(interval, defaultWaitMaxInterval)
	}

	waitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = interval
	policy.MaxInterval = maxInterval
	policy.Multiplier = waitMultiplier
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = opts.Timeout
	policy.Reset()

	logger := c.logger.With(logging.String(logging.FieldTaskID, task.TaskID))
	current := task
	operation := func() error {
		next, err := c.GetTask(waitCtx, task.TaskID)
		if err != nil {
			// Only transport errors are retried until the wait budget runs out.
			if transportError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		current = next
		if next.State.Terminal() {
			return nil
		}
		return errStillRunning
	}
	notify := func(err error, delay time.Duration) {
		logger.Debug("task not finished",
			logging.String("state", string(current.State)),
			logging.Duration("next_poll", delay),
			logging.Error(err),
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(policy, waitCtx), notify)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, errStillRunning) || errors.Is(err, context.DeadlineExceeded) || transportError(err) {
			return nil, fmt.Errorf("%w: task %s still %s after %s", ErrWaitTimeout, task.TaskID, current.State, opts.Timeout)
		}
		return nil, err
	}
	return finish(current)
}

func transportError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func finish(task *Task) (*Task, error) {
	if task.State == TaskFailed {
		return nil, taskError(task)
	}
	return task, nil
}
