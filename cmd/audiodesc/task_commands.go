package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"audiodesc/internal/api"
)

const (
	defaultWaitInterval = 2 * time.Second
	defaultWaitTimeout  = 200 * time.Second
)

var errTaskPending = errors.New("task still pending")

type waitFlags struct {
	wait     bool
	interval time.Duration
	timeout  time.Duration
}

func (f *waitFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.wait, "wait", false, "Poll until the task succeeds or fails")
	cmd.Flags().DurationVar(&f.interval, "interval", defaultWaitInterval, "Polling interval for --wait")
	cmd.Flags().DurationVar(&f.timeout, "timeout", defaultWaitTimeout, "Give up waiting after this long")
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var flags waitFlags
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Import and transcribe a YouTube video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Analyze(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return wrapClientError(err, client.BaseURL())
			}
			if !flags.wait {
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Transcription task %s submitted (%s)\n", resp.TaskID, stateLabel(resp.Status, shouldColorize(out)))
				fmt.Fprintf(out, "Check progress with: audiodesc status %s --wait\n", resp.TaskID)
				return nil
			}
			return waitAndPrint(cmd, ctx, client, resp.TaskID, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var flags waitFlags
	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show a task's state and, once done, the generated post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			taskID := strings.TrimSpace(args[0])
			if flags.wait {
				return waitAndPrint(cmd, ctx, client, taskID, flags)
			}
			resp, err := client.Status(cmd.Context(), taskID)
			if err != nil {
				return wrapClientError(err, client.BaseURL())
			}
			return printStatus(cmd, ctx, resp)
		},
	}
	flags.register(cmd)
	return cmd
}

func waitAndPrint(cmd *cobra.Command, ctx *commandContext, client *api.Client, taskID string, flags waitFlags) error {
	var progress io.Writer
	if !ctx.jsonOutput() {
		progress = cmd.ErrOrStderr()
	}
	resp, err := waitForTask(cmd.Context(), client, taskID, flags.interval, flags.timeout, progress)
	if err != nil {
		return wrapClientError(err, client.BaseURL())
	}
	return printStatus(cmd, ctx, resp)
}

// waitForTask polls the daemon every interval until the task reaches a
// terminal state or timeout elapses. Daemon errors stop polling immediately.
func waitForTask(ctx context.Context, client *api.Client, taskID string, interval, timeout time.Duration, progress io.Writer) (*api.StatusResponse, error) {
	if interval <= 0 {
		interval = defaultWaitInterval
	}
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last *api.StatusResponse
	operation := func() error {
		resp, err := client.Status(waitCtx, taskID)
		if err != nil {
			if waitCtx.Err() != nil {
				return waitCtx.Err()
			}
			return backoff.Permanent(err)
		}
		if last == nil || last.Status != resp.Status {
			if progress != nil {
				fmt.Fprintf(progress, "%s: %s\n", resp.TaskID, stateLabel(resp.Status, false))
			}
		}
		last = resp
		if api.Terminal(resp.Status) {
			return nil
		}
		return errTaskPending
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(interval), waitCtx)
	if err := backoff.Retry(operation, policy); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errTaskPending) {
			state := "pending"
			if last != nil {
				state = last.Status
			}
			return nil, fmt.Errorf("task %s still %s after %s", taskID, state, timeout)
		}
		return nil, err
	}
	return last, nil
}

func printStatus(cmd *cobra.Command, ctx *commandContext, resp *api.StatusResponse) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, resp)
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	fmt.Fprintf(out, "Task:   %s\n", resp.TaskID)
	fmt.Fprintf(out, "Status: %s\n", stateLabel(resp.Status, colorize))
	if resp.File != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, resp.File)
	}
	return nil
}
