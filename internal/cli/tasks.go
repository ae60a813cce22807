package cli

import (
	"context"
	"strings"

	"growtasks/internal/models"
	"growtasks/internal/services"

	"github.com/spf13/cobra"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := services.AddTaskInput{Title: strings.Join(args, " ")}
			input.Description, _ = cmd.Flags().GetString("description")

			if raw, _ := cmd.Flags().GetString("category"); raw != "" {
				c, err := models.ParseCategory(raw)
				if err != nil {
					return err
				}
				input.Category = c
			}
			if raw, _ := cmd.Flags().GetString("priority"); raw != "" {
				p, err := models.ParsePriority(raw)
				if err != nil {
					return err
				}
				input.Priority = p
			}
			if raw, _ := cmd.Flags().GetString("due"); raw != "" {
				d, err := models.ParseDate(raw)
				if err != nil {
					return err
				}
				input.DueDate = &d
			}

			return opts.withRuntime(func(rt *Runtime) error {
				task, err := rt.Service.Add(cmd.Context(), input)
				if err != nil {
					return err
				}
				return opts.printer(cmd.OutOrStdout()).task(rt.Service.View(task))
			})
		},
	}

	cmd.Flags().StringP("category", "c", "", "today, tomorrow, week or someday (default today)")
	cmd.Flags().StringP("priority", "p", "", "low, medium or high (default medium)")
	cmd.Flags().String("due", "", "Due date as YYYY-MM-DD")
	cmd.Flags().StringP("description", "d", "", "Longer description")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("category")
			var category models.Category
			if raw != "" {
				c, err := models.ParseCategory(raw)
				if err != nil {
					return err
				}
				category = c
			}

			return opts.withRuntime(func(rt *Runtime) error {
				p := opts.printer(cmd.OutOrStdout())
				if category != "" {
					return p.views(rt.Service.ActiveByCategory(cmd.Context(), category), "No tasks.")
				}
				return p.views(rt.Service.Active(cmd.Context()), "No tasks.")
			})
		},
	}
	cmd.Flags().StringP("category", "c", "", "Only open tasks displayed under this category")
	return cmd
}

func newGroupsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Show tasks grouped by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(func(rt *Runtime) error {
				return opts.printer(cmd.OutOrStdout()).groups(rt.Service.Groups(cmd.Context()))
			})
		},
	}
}

// idCommand builds a command that runs op on a single task id and prints the result.
func idCommand(opts *rootOptions, use, short string, op func(s services.TaskService, ctx context.Context, id string) (models.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(func(rt *Runtime) error {
				task, err := op(rt.Service, cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return opts.printer(cmd.OutOrStdout()).task(rt.Service.View(task))
			})
		},
	}
}

func newDoneCmd(opts *rootOptions) *cobra.Command {
	return idCommand(opts, "done", "Toggle a task between open and completed", services.TaskService.ToggleComplete)
}

func newRmCmd(opts *rootOptions) *cobra.Command {
	return idCommand(opts, "rm", "Move a task to the trash", services.TaskService.SoftDelete)
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	return idCommand(opts, "restore", "Restore a task from the trash", services.TaskService.Restore)
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var input services.UpdateTaskInput

			if flags.Changed("title") {
				v, _ := flags.GetString("title")
				input.Title = &v
			}
			if flags.Changed("description") {
				v, _ := flags.GetString("description")
				input.Description = &v
			}
			if flags.Changed("category") {
				raw, _ := flags.GetString("category")
				c, err := models.ParseCategory(raw)
				if err != nil {
					return err
				}
				input.Category = &c
			}
			if flags.Changed("priority") {
				raw, _ := flags.GetString("priority")
				p, err := models.ParsePriority(raw)
				if err != nil {
					return err
				}
				input.Priority = &p
			}
			if flags.Changed("due") {
				raw, _ := flags.GetString("due")
				if raw == "" {
					input.ClearDueDate = true
				} else {
					d, err := models.ParseDate(raw)
					if err != nil {
						return err
					}
					input.DueDate = &d
				}
			}

			return opts.withRuntime(func(rt *Runtime) error {
				task, err := rt.Service.Update(cmd.Context(), args[0], input)
				if err != nil {
					return err
				}
				return opts.printer(cmd.OutOrStdout()).task(rt.Service.View(task))
			})
		},
	}

	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringP("description", "d", "", "New description")
	cmd.Flags().StringP("category", "c", "", "New category")
	cmd.Flags().StringP("priority", "p", "", "New priority")
	cmd.Flags().String("due", "", `New due date as YYYY-MM-DD, "" to clear`)
	return cmd
}

func newCompletedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "completed",
		Short: "Show completed tasks by day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(func(rt *Runtime) error {
				return opts.printer(cmd.OutOrStdout()).days(rt.Service.CompletedByDay(cmd.Context()))
			})
		},
	}
}
