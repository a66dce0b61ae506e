package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bassista/go_graphview/internal/graph"
	"github.com/bassista/go_graphview/internal/watcher"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.FgHiBlack)
)

func newPushCmd(s *settings) *cobra.Command {
	var watch bool
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "push <file|->",
		Short: "Render a diagram file and make it the current graph.",
		Long: `Send Mermaid source to the update endpoint. Use "-" to read from stdin.

With --watch the file is pushed again on every change until interrupted;
render failures are reported and watching continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			client := s.client()

			if !watch {
				content, err := readSource(cmd.InOrStdin(), path)
				if err != nil {
					return err
				}
				return pushOnce(s.baseContext(), cmd, client, path, content)
			}

			if path == "-" {
				return errors.New("--watch needs a file, not stdin")
			}
			ctx, stop := signal.NotifyContext(s.baseContext(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchAndPush(ctx, cmd, client, path, debounce)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "push again whenever the file changes")
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "quiet period before a change is pushed")
	return cmd
}

func readSource(stdin io.Reader, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read diagram source: %w", err)
	}
	return string(b), nil
}

func pushOnce(ctx context.Context, cmd *cobra.Command, client *Client, path, content string) error {
	req := graph.UpdateRequest{Content: content, Timestamp: graph.FormatTimestamp(time.Now())}
	if path != "-" {
		req.FilePath = path
	}

	start := time.Now()
	resp, err := client.Push(ctx, req)
	if err != nil {
		return err
	}
	okColor.Fprintf(cmd.OutOrStdout(), "✓ %s", resp.Message)
	dimColor.Fprintf(cmd.OutOrStdout(), " (%s, %v)\n", resp.PngPath, time.Since(start).Round(time.Millisecond))
	return nil
}

func watchAndPush(ctx context.Context, cmd *cobra.Command, client *Client, path string, debounce time.Duration) error {
	w, err := watcher.New(path, debounce)
	if err != nil {
		return err
	}

	content, err := w.Read()
	if err != nil {
		return fmt.Errorf("read diagram source: %w", err)
	}
	report := func(ctx context.Context, content string) {
		if err := pushOnce(ctx, cmd, client, path, content); err != nil && ctx.Err() == nil {
			failColor.Fprintf(cmd.ErrOrStderr(), "✗ %s: ", path)
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	}
	report(ctx, content)

	err = w.Start(ctx, report)
	if err != nil {
		return err
	}
	dimColor.Fprintf(cmd.OutOrStdout(), "watching %s, press Ctrl+C to stop\n", w.Path())

	<-ctx.Done()
	return nil
}
