package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/case-board/internal/board"
	"github.com/Ashfaaq98/case-board/internal/store"
)

var (
	historyLimit  int
	historyOutput string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show the audit trail of a case",
	Long: `Show the changes recorded for a case by 'case-board serve', newest first.
Reads the backend's SQLite database directly (--db), so the trail of a deleted
case is still available.

Examples:
  case-board history 12
  case-board history 12 --limit 5 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries to show")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", outputTable, "Output format: table, json, yaml")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := validOutput(historyOutput); err != nil {
		return err
	}
	id, ok := board.ParseID(args[0])
	if !ok {
		return fmt.Errorf("invalid case id %q", args[0])
	}

	cfg := GetConfig()
	st, err := store.NewStore(resolvePathRelativeToBase(getWorkingDir(), cfg.Database.Path))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	entries, err := st.GetAuditEntries(cmd.Context(), id, historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyOutput != outputTable {
		return writeStructured(out, historyOutput, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "No history for case %d.\n", id)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tACTION\tACTOR\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Action, e.Actor, formatDetails(e.Details))
	}
	return tw.Flush()
}

func formatDetails(details map[string]interface{}) string {
	if len(details) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}
