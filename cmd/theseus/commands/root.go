// Package commands implements the theseus CLI's cobra command tree,
// grounded on therealtimex-entire-cli's cmd/entire/cli/root.go shape
// (SilenceErrors, one newXxxCmd() constructor per subcommand, explicit
// AddCommand list) rather than the teacher's flag-based main.go.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theseusxyz/theseus/internal/inputbuffer"
	"github.com/theseusxyz/theseus/internal/logging"
	"github.com/theseusxyz/theseus/internal/persistence"
	"github.com/theseusxyz/theseus/internal/session"
	"github.com/theseusxyz/theseus/internal/wiring"
)

// Version is set at build time.
var Version = "dev"

// NewRootCmd builds the theseus command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "theseus",
		Short:         "theseus CLI",
		Long:          "A command-line interface for the theseus coding agent session runtime.",
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String("data-dir", defaultDataDir(), "directory for session persistence")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newEventsCmd())
	cmd.AddCommand(newPauseCmd())
	cmd.AddCommand(newResumeCmd())
	cmd.AddCommand(newTerminateCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the theseus version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return nil
		},
	}
}

// serviceFor builds a session.Service rooted at the --data-dir flag,
// wired with the real environment/tool/model Factory. Each CLI
// invocation is a fresh process, so the service always starts with an
// empty in-memory session map and relies on persistence.Store to see
// sessions created by earlier invocations (spec §6.1 start).
func serviceFor(cmd *cobra.Command) (*session.Service, error) {
	dataDir, err := cmd.Root().PersistentFlags().GetString("data-dir")
	if err != nil {
		return nil, err
	}
	logging.Init(logging.DefaultConfig())
	store := persistence.NewFileStore(dataDir)
	buffer := inputbuffer.New()
	return session.NewService(store, buffer, wiring.New()), nil
}

func defaultDataDir() string {
	return ".theseus"
}
