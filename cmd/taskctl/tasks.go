package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"taskapp/pkg/client"
)

// parseDue accepts YYYY-MM-DD (start of day UTC) or RFC3339.
func parseDue(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

func (c *cli) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and change your tasks",
	}
	cmd.AddCommand(
		c.tasksListCmd(),
		c.tasksAddCmd(),
		c.tasksDoneCmd(),
		c.tasksUpdateCmd(),
		c.tasksRemoveCmd(),
	)
	return cmd
}

func (c *cli) tasksListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireLogin(); err != nil {
				return err
			}
			var (
				tasks []client.Task
				err   error
			)
			if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
				tasks, err = c.ctrl.Refresh(cmd.Context())
			} else {
				tasks, err = c.ctrl.Tasks(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), tasks)
		},
	}
	cmd.Flags().Bool("refresh", false, "refetch even after a failed load")
	return cmd
}

func printTasks(w io.Writer, tasks []client.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tTITLE\tDUE")
	for _, t := range tasks {
		done := "[ ]"
		if t.Completed {
			done = "[x]"
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, done, t.Title, due)
	}
	return tw.Flush()
}

func (c *cli) tasksAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireLogin(); err != nil {
				return err
			}
			task := client.NewTask{Title: strings.Join(args, " ")}
			if d, _ := cmd.Flags().GetString("description"); d != "" {
				task.Description = &d
			}
			if raw, _ := cmd.Flags().GetString("due"); raw != "" {
				due, err := parseDue(raw)
				if err != nil {
					return err
				}
				task.DueDate = &due
			}
			created, err := c.ctrl.CreateTask(cmd.Context(), task)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
	cmd.Flags().String("description", "", "task description")
	cmd.Flags().String("due", "", "due date, YYYY-MM-DD or RFC3339")
	return cmd
}

func (c *cli) tasksDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireLogin(); err != nil {
				return err
			}
			completed := true
			_, err := c.ctrl.UpdateTask(cmd.Context(), args[0], client.TaskUpdate{Completed: &completed})
			return err
		},
	}
}

func (c *cli) tasksUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireLogin(); err != nil {
				return err
			}
			var update client.TaskUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				title, _ := flags.GetString("title")
				update.Title = &title
			}
			if flags.Changed("description") {
				d, _ := flags.GetString("description")
				update.Description = &d
			}
			if flags.Changed("completed") {
				done, _ := flags.GetBool("completed")
				update.Completed = &done
			}
			if flags.Changed("due") {
				raw, _ := flags.GetString("due")
				due, err := parseDue(raw)
				if err != nil {
					return err
				}
				update.DueDate = &due
			}
			if update == (client.TaskUpdate{}) {
				return fmt.Errorf("nothing to update: pass --title, --description, --completed or --due")
			}
			_, err := c.ctrl.UpdateTask(cmd.Context(), args[0], update)
			return err
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().Bool("completed", false, "completion state")
	cmd.Flags().String("due", "", "due date, YYYY-MM-DD or RFC3339")
	return cmd
}

func (c *cli) tasksRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireLogin(); err != nil {
				return err
			}
			return c.ctrl.DeleteTask(cmd.Context(), args[0])
		},
	}
}
