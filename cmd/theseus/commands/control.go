package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPauseCmd, newResumeCmd, newTerminateCmd are thin clients over
// theseusd's §6.1 pause/resume/terminate routes.
func newPauseCmd() *cobra.Command  { return newControlCmd("pause", "pause a running session") }
func newResumeCmd() *cobra.Command { return newControlCmd("resume", "resume a paused session") }
func newTerminateCmd() *cobra.Command {
	return newControlCmd("terminate", "request termination and block until terminated")
}

func newControlCmd(verb, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   verb + " [name]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := cmd.Flags().Lookup("addr").Value.String()
			if err := postJSON(addr, "/session/"+args[0]+"/"+verb, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], verb)
			return nil
		},
	}
	addAddrFlag(cmd)
	return cmd
}
