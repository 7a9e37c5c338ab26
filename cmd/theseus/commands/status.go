package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [name]",
		Short: "show a session's current status (spec §6.1 status)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := cmd.Flags().Lookup("addr").Value.String()
			var out map[string]string
			if err := getJSON(addr, "/session/"+args[0]+"/status", &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out["status"])
			return nil
		},
	}
	addAddrFlag(cmd)
	return cmd
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events [name]",
		Short: "print a session's full event log (spec §6.1 events)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := cmd.Flags().Lookup("addr").Value.String()
			var events []map[string]any
			if err := getJSON(addr, "/session/"+args[0]+"/events", &events); err != nil {
				return err
			}
			for _, ev := range events {
				fmt.Fprintf(cmd.OutOrStdout(), "%v\n", ev)
			}
			return nil
		},
	}
	addAddrFlag(cmd)
	return cmd
}
