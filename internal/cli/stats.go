package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show today's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(func(rt *Runtime) error {
				return opts.printer(cmd.OutOrStdout()).stats(rt.Service.TodayStats(cmd.Context()))
			})
		},
	}
}

func newGardenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "garden",
		Short: "Show how the garden has grown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(func(rt *Runtime) error {
				return opts.printer(cmd.OutOrStdout()).garden(rt.Service.Garden(cmd.Context()))
			})
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored tasks as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return opts.withRuntime(func(rt *Runtime) error {
				if output == "" || output == "-" {
					return rt.Service.Export(cmd.Context(), cmd.OutOrStdout())
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := rt.Service.Export(cmd.Context(), f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	return cmd
}
