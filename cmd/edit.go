package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/case-board/internal/board"
	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/Ashfaaq98/case-board/internal/form"
)

var editInput cases.Input

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a case",
	Long: `Edit the title, description or status of a case. Fields not given keep
their current value. The case number cannot be changed.

Examples:
  case-board edit 12 --status Resolved
  case-board edit 12 --title "Disk full on /var" --description ""`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	f := editCmd.Flags()
	f.StringVar(&editInput.Title, "title", "", "New title")
	f.StringVar(&editInput.Description, "description", "", "New description (empty clears it)")
	f.StringVar(&editInput.Status, "status", "", "New status: "+statusList())
}

func runEdit(cmd *cobra.Command, args []string) error {
	s, done, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer done()

	existing, err := s.board.Lookup(cmd.Context(), args[0])
	if errors.Is(err, board.ErrNotFound) {
		return fmt.Errorf("case %s not found", args[0])
	}
	if err != nil {
		return err
	}

	in := mergeEditInput(existing, editInput, func(name string) bool {
		return cmd.Flags().Changed(name)
	})

	ctrl := form.NewEdit(s.client, existing, s.logger)
	return reportSubmission(cmd, ctrl.Submit(cmd.Context(), in), ctrl, fmt.Sprintf("Case %d updated", existing.ID))
}

// mergeEditInput starts from the stored values and applies only the flags
// that were set.
func mergeEditInput(existing cases.Case, flags cases.Input, changed func(string) bool) cases.Input {
	in := existing.Input()
	if changed("title") {
		in.Title = flags.Title
	}
	if changed("description") {
		in.Description = flags.Description
	}
	if changed("status") {
		in.Status = flags.Status
	}
	return in
}
