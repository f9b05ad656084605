package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"restbench/internal/format"
)

func init() {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View request history",
		Run:   runHistoryList,
	}

	historyCmd.Flags().IntP("limit", "n", 10, "Number of requests to show")

	showCmd := &cobra.Command{
		Use:   "show <id or index>",
		Short: "Show full details of a request",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryShow,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a single history entry",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryDelete,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all history",
		Run:   runHistoryClear,
	}

	historyCmd.AddCommand(showCmd, deleteCmd, clearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to load history: %v", err))
		os.Exit(1)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := a.history.List(cmd.Context(), limit)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to load history: %v", err))
		os.Exit(1)
	}

	format.PrintHistoryList(entries, limit)
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to load history: %v", err))
		os.Exit(1)
	}

	entries, err := a.history.List(cmd.Context(), a.cfg.HistoryLimit)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to load history: %v", err))
		os.Exit(1)
	}

	identifier := args[0]

	// Try to parse as index first (1-based)
	if index, err := strconv.Atoi(identifier); err == nil {
		if index > 0 && index <= len(entries) {
			format.PrintHistoryDetail(entries[index-1])
			return
		}
	}

	// Try to find by ID
	for _, entry := range entries {
		if entry.ID == identifier {
			format.PrintHistoryDetail(entry)
			return
		}
	}

	format.PrintError(fmt.Sprintf("Request not found: %s", identifier))
	os.Exit(1)
}

func runHistoryDelete(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to delete entry: %v", err))
		os.Exit(1)
	}

	if err := a.history.Delete(cmd.Context(), args[0]); err != nil {
		format.PrintError(fmt.Sprintf("Failed to delete entry: %v", err))
		os.Exit(1)
	}

	format.PrintSuccess("History entry deleted")
}

func runHistoryClear(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to clear history: %v", err))
		os.Exit(1)
	}

	if err := a.history.Clear(cmd.Context()); err != nil {
		format.PrintError(fmt.Sprintf("Failed to clear history: %v", err))
		os.Exit(1)
	}

	format.PrintSuccess("History cleared")
}
