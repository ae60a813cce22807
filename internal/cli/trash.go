package cli

import (
	"github.com/spf13/cobra"
)

func newTrashCmd(opts *rootOptions) *cobra.Command {
	list := func(cmd *cobra.Command, args []string) error {
		return opts.withRuntime(func(rt *Runtime) error {
			return opts.printer(cmd.OutOrStdout()).views(rt.Service.Deleted(cmd.Context()), "Trash is empty.")
		})
	}

	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Show or empty the trash",
		Args:  cobra.NoArgs,
		RunE:  list,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List deleted tasks, most recent first",
			Args:  cobra.NoArgs,
			RunE:  list,
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Permanently delete everything in the trash",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(func(rt *Runtime) error {
					removed, err := rt.Service.ClearTrash(cmd.Context())
					if err != nil {
						return err
					}
					return opts.printer(cmd.OutOrStdout()).removed(removed)
				})
			},
		},
	)
	return cmd
}

func newPurgeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <id>",
		Short: "Permanently delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(func(rt *Runtime) error {
				if err := rt.Service.PermanentlyDelete(cmd.Context(), args[0]); err != nil {
					return err
				}
				return opts.printer(cmd.OutOrStdout()).purged(args[0])
			})
		},
	}
}
