// Package cli implements graphctl, the command line client of the graph view service.
package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const envPrefix = "GRAPHCTL"

// settings holds the resolved global options shared by every subcommand.
type settings struct {
	v *viper.Viper
}

func (s *settings) server() string               { return s.v.GetString("server") }
func (s *settings) retries() int                 { return s.v.GetInt("retries") }
func (s *settings) timeout() time.Duration       { return s.v.GetDuration("timeout") }
func (s *settings) client() *Client              { return NewClient(s.server(), s.retries(), s.timeout()) }
func (s *settings) baseContext() context.Context { return context.Background() }

// NewRootCmd builds the graphctl command tree.
// Flags can also be set through GRAPHCTL_SERVER, GRAPHCTL_RETRIES and GRAPHCTL_TIMEOUT.
func NewRootCmd() *cobra.Command {
	s := &settings{v: viper.New()}

	root := &cobra.Command{
		Use:                "graphctl",
		Short:              "Publish Mermaid diagrams to a graph view service.",
		Long:               `graphctl pushes diagram source to a running graph view service and inspects what it is serving.`,
		Version:            version,
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.String("server", "http://localhost:8080", "base URL of the graph view service")
	pf.Int("retries", 3, "retries for connection failures and gateway errors")
	pf.Duration("timeout", 90*time.Second, "per-request timeout")

	s.v.SetEnvPrefix(envPrefix)
	s.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	s.v.AutomaticEnv()
	_ = s.v.BindPFlags(pf)

	root.AddCommand(
		newPushCmd(s),
		newStatusCmd(s),
		newHealthCmd(s),
		newFetchCmd(s),
		newVersionCmd(),
	)
	return root
}

// Execute runs graphctl.
func Execute() error {
	return NewRootCmd().Execute()
}
