package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theseusxyz/theseus/internal/config"
	"github.com/theseusxyz/theseus/internal/session"
)

// newRunCmd runs a session to completion in-process: create, start, and
// block until the loop reaches StatusTerminated, printing its final Stop
// message. This is the one command that owns the runtime directly
// rather than talking to a theseusd server, since create→terminate all
// happens inside a single process lifetime anyway.
func newRunCmd() *cobra.Command {
	var task string
	var name string

	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "create a session at path and run it to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if name == "" {
				name = fmt.Sprintf("session-%d", time.Now().UnixNano())
			}

			svc, err := serviceFor(cmd)
			if err != nil {
				return err
			}

			fileCfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sc := config.NewSessionConfig(fileCfg, name, path)
			if task != "" {
				sc.Task = task
			}

			ctx := cmd.Context()
			if err := svc.Create(ctx, name, path, sc); err != nil {
				return fmt.Errorf("create session: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "session %q started in %s\n", name, path)
			return waitForTermination(ctx, cmd, svc, name)
		},
	}

	cmd.Flags().StringVar(&task, "task", "", "initial task for the session (defaults to asking the user)")
	cmd.Flags().StringVar(&name, "name", "", "session name (defaults to a generated one)")

	return cmd
}

func waitForTermination(ctx context.Context, cmd *cobra.Command, svc *session.Service, name string) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			st, err := svc.Status(name)
			if err != nil {
				return err
			}
			if st == session.StatusTerminated {
				events, _ := svc.Events(name)
				if len(events) > 0 {
					last := events[len(events)-1]
					fmt.Fprintf(cmd.OutOrStdout(), "session %q terminated: %+v\n", name, last.Content)
				}
				return nil
			}
		}
	}
}
