package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/case-board/internal/board"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a case",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, ok := board.ParseID(args[0])
	if !ok {
		return fmt.Errorf("invalid case id %q", args[0])
	}

	if !deleteYes {
		fmt.Fprintf(cmd.OutOrStdout(), "Delete case %d? [y/N] ", id)
		var answer string
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
		if answer != "y" && answer != "Y" && answer != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	s, done, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer done()

	if err := s.board.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("%s: %w", s.board.Message(), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), s.board.Message())
	return nil
}
