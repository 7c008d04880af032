package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/Ashfaaq98/case-board/internal/form"
)

var createInput cases.Input

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a case",
	Long: `Create a case. Input is validated locally before anything is sent.

Examples:
  case-board create --case-number C-001 --title "Disk full" --status New
  case-board create --case-number C-002 --title "Printer jam" --description "Tray 2" --status Acknowledged`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	f := createCmd.Flags()
	f.StringVar(&createInput.CaseNumber, "case-number", "", fmt.Sprintf("Case number (at most %d characters)", cases.MaxCaseNumberLen))
	f.StringVar(&createInput.Title, "title", "", fmt.Sprintf("Title (at most %d characters)", cases.MaxTitleLen))
	f.StringVar(&createInput.Description, "description", "", fmt.Sprintf("Description (optional, at most %d characters)", cases.MaxDescriptionLen))
	f.StringVar(&createInput.Status, "status", "", "Status: "+statusList())
}

func runCreate(cmd *cobra.Command, args []string) error {
	s, done, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer done()

	ctrl := form.NewCreate(s.client, s.logger)
	return reportSubmission(cmd, ctrl.Submit(cmd.Context(), createInput), ctrl, "Case created")
}

// reportSubmission prints the outcome of a create or edit.
func reportSubmission(cmd *cobra.Command, sub form.Submission, ctrl *form.Controller, success string) error {
	if sub.Navigate() {
		fmt.Fprintln(cmd.OutOrStdout(), success)
		return nil
	}
	writeFormState(cmd.ErrOrStderr(), ctrl.State())
	return &submitFailed{outcome: sub.Outcome}
}
