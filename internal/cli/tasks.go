package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/config"
	"github.com/bosunworks/bosun/internal/taskgraph"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage the task graph",
	RunE:  runTasksList, // bare "bosun tasks" prints the board
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the grouped task board",
	RunE:  runTasksList,
}

var tasksShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task record",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksShow,
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <subject>",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTasksAdd,
}

var tasksUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update status, owner, or dependencies",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksUpdate,
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Complete a task and release whatever it was blocking",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDone,
}

func init() {
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksShowCmd)
	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(tasksUpdateCmd)
	tasksCmd.AddCommand(tasksDoneCmd)

	tasksAddCmd.Flags().String("desc", "", "Longer description")
	tasksAddCmd.Flags().String("owner", "", "Owner")
	tasksAddCmd.Flags().IntSlice("blocked-by", nil, "Task IDs this task waits on")
	tasksAddCmd.Flags().IntSlice("blocks", nil, "Task IDs this task holds up")

	tasksUpdateCmd.Flags().String("status", "", "New status: pending, in_progress, or completed")
	tasksUpdateCmd.Flags().String("owner", "", "New owner (empty clears)")
	tasksUpdateCmd.Flags().IntSlice("add-blocked-by", nil, "Dependencies to add")
	tasksUpdateCmd.Flags().IntSlice("remove-blocked-by", nil, "Dependencies to remove")
	tasksUpdateCmd.Flags().IntSlice("add-blocks", nil, "Reverse dependencies to add")
	tasksUpdateCmd.Flags().IntSlice("remove-blocks", nil, "Reverse dependencies to remove")
}

func openTasks() (*taskgraph.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return taskgraph.NewManager(cfg.TasksDir())
}

func parseTaskID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, ", ")
}

func printTaskLine(t *taskgraph.Task) {
	line := fmt.Sprintf("  #%-3d %s", t.ID, t.Subject)
	if t.Owner != "" {
		line += fmt.Sprintf("  [%s]", t.Owner)
	}
	if len(t.BlockedBy) > 0 {
		line += fmt.Sprintf("  (waiting on %s)", formatIDs(t.BlockedBy))
	}
	fmt.Println(line)
}

func runTasksList(cmd *cobra.Command, args []string) error {
	mgr, err := openTasks()
	if err != nil {
		return err
	}

	board, err := mgr.ListAll()
	if err != nil {
		return err
	}

	if board.Count == 0 {
		fmt.Println("No tasks yet. Create one with 'bosun tasks add \"...\"'.")
		return nil
	}

	fmt.Printf("Tasks (%d): %d completed, %d in progress, %d ready, %d blocked\n",
		board.Count, len(board.Completed), len(board.InProgress), len(board.Ready), len(board.Blocked))

	sections := []struct {
		title string
		tasks []*taskgraph.Task
	}{
		{"In Progress", board.InProgress},
		{"Ready", board.Ready},
		{"Blocked", board.Blocked},
		{"Completed", board.Completed},
	}
	for _, sec := range sections {
		if len(sec.tasks) == 0 {
			continue
		}
		fmt.Printf("\n%s:\n", sec.title)
		for _, t := range sec.tasks {
			printTaskLine(t)
		}
	}

	return nil
}

func runTasksShow(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	mgr, err := openTasks()
	if err != nil {
		return err
	}

	t, err := mgr.Get(id)
	if err != nil {
		return err
	}

	fmt.Printf("Task #%d: %s\n", t.ID, t.Subject)
	fmt.Printf("Status: %s\n", t.Status)
	if t.Owner != "" {
		fmt.Printf("Owner: %s\n", t.Owner)
	}
	if len(t.BlockedBy) > 0 {
		fmt.Printf("Blocked by: %s\n", formatIDs(t.BlockedBy))
	}
	if len(t.Blocks) > 0 {
		fmt.Printf("Blocks: %s\n", formatIDs(t.Blocks))
	}
	if t.Description != "" {
		fmt.Printf("\n%s\n", t.Description)
	}

	return nil
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	subject := strings.Join(args, " ")
	desc, _ := cmd.Flags().GetString("desc")
	owner, _ := cmd.Flags().GetString("owner")
	blockedBy, _ := cmd.Flags().GetIntSlice("blocked-by")
	blocks, _ := cmd.Flags().GetIntSlice("blocks")

	mgr, err := openTasks()
	if err != nil {
		return err
	}

	task, err := mgr.Create(subject, desc, owner, blockedBy, blocks)
	if err != nil {
		return err
	}

	fmt.Printf("Created task #%d: %s\n", task.ID, task.Subject)
	if len(task.BlockedBy) > 0 {
		fmt.Printf("  waiting on %s\n", formatIDs(task.BlockedBy))
	}
	return nil
}

func runTasksUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	upd := taskgraph.Update{}
	upd.Status, _ = cmd.Flags().GetString("status")
	if cmd.Flags().Changed("owner") {
		owner, _ := cmd.Flags().GetString("owner")
		upd.Owner = &owner
	}
	upd.AddBlockedBy, _ = cmd.Flags().GetIntSlice("add-blocked-by")
	upd.RemoveBlockedBy, _ = cmd.Flags().GetIntSlice("remove-blocked-by")
	upd.AddBlocks, _ = cmd.Flags().GetIntSlice("add-blocks")
	upd.RemoveBlocks, _ = cmd.Flags().GetIntSlice("remove-blocks")

	mgr, err := openTasks()
	if err != nil {
		return err
	}

	task, err := mgr.Update(id, upd)
	if err != nil {
		return err
	}

	fmt.Printf("Updated task #%d: %s (%s)\n", task.ID, task.Subject, task.Status)
	return nil
}

func runTasksDone(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	mgr, err := openTasks()
	if err != nil {
		return err
	}

	// Capture the dependents before completion clears the edges
	before, err := mgr.Get(id)
	if err != nil {
		return err
	}

	task, err := mgr.Update(id, taskgraph.Update{Status: string(taskgraph.StatusCompleted)})
	if err != nil {
		return err
	}

	fmt.Printf("Completed task #%d: %s\n", task.ID, task.Subject)
	for _, depID := range before.Blocks {
		dep, err := mgr.Get(depID)
		if err != nil {
			continue
		}
		if dep.Ready() {
			fmt.Printf("  unblocked #%d: %s\n", dep.ID, dep.Subject)
		}
	}
	return nil
}
