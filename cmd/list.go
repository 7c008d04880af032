package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listOutput string

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all cases",
	Long: `List every case the backend knows about.
This command works in any terminal environment and provides an alternative
to the TUI when terminal capabilities are limited.

Examples:
  # Table view
  case-board list

  # Machine readable
  case-board list --output json
  case-board list -o yaml`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOutput, "output", "o", outputTable, "Output format: table, json, yaml")
}

func runList(cmd *cobra.Command, args []string) error {
	if err := validOutput(listOutput); err != nil {
		return err
	}

	s, done, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer done()

	if err := s.board.Load(cmd.Context()); err != nil {
		return fmt.Errorf("%s: %w", s.board.Message(), err)
	}
	list := s.board.Cases()

	out := cmd.OutOrStdout()
	if listOutput != outputTable {
		return writeStructured(out, listOutput, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No cases found.")
		return nil
	}
	return writeCaseTable(out, list)
}
