package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

func newStatusCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what the service is currently serving.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := s.client()
			ctx := s.baseContext()

			health, err := client.Health(ctx)
			if err != nil {
				return err
			}
			state, err := client.Graph(ctx)
			if err != nil {
				return err
			}

			diagram := failColor.Sprint("none")
			image := "-"
			lines := "0"
			if state.PngPath != nil {
				diagram = okColor.Sprint("rendered")
				image = *state.PngPath
				lines = strconv.Itoa(strings.Count(strings.TrimRight(state.MermaidContent, "\n"), "\n") + 1)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header([]string{"Field", "Value"})
			table.Configure(func(cfg *tablewriter.Config) {
				cfg.Row.Alignment.Global = tw.AlignLeft
			})
			data := [][]string{
				{"Server", s.server()},
				{"Service", health.Service},
				{"Status", health.Status},
				{"Renderer", health.Renderer},
				{"Viewers", strconv.Itoa(health.Subscribers)},
				{"Diagram", diagram},
				{"Source lines", lines},
				{"Image", image},
				{"Updated at", state.Timestamp},
			}
			if err := table.Bulk(data); err != nil {
				return fmt.Errorf("build status table: %w", err)
			}
			return table.Render()
		},
	}
}

func newHealthCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the service is up.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			health, err := s.client().Health(s.baseContext())
			if err != nil {
				failColor.Fprintf(cmd.ErrOrStderr(), "✗ %s is unreachable\n", s.server())
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "✓ %s is %s", health.Service, health.Status)
			dimColor.Fprintf(cmd.OutOrStdout(), " (%s)\n", health.Timestamp)
			return nil
		},
	}
}

func newFetchCmd(s *settings) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the current diagram image.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			n, err := s.client().Image(s.baseContext(), f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(output)
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "✓ saved %s", output)
			dimColor.Fprintf(cmd.OutOrStdout(), " (%d bytes)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "graph.png", "destination file")
	return cmd
}
