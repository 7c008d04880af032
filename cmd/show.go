package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/case-board/internal/board"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one case",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showOutput, "output", "o", outputTable, "Output format: table, json, yaml")
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := validOutput(showOutput); err != nil {
		return err
	}

	s, done, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer done()

	c, err := s.board.Lookup(cmd.Context(), args[0])
	if errors.Is(err, board.ErrNotFound) {
		return fmt.Errorf("case %s not found", args[0])
	}
	if err != nil {
		return err
	}

	if showOutput != outputTable {
		return writeStructured(cmd.OutOrStdout(), showOutput, c)
	}
	writeCaseDetail(cmd.OutOrStdout(), c)
	return nil
}
