package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/Ashfaaq98/case-board/internal/api"
	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/Ashfaaq98/case-board/internal/form"
)

// Output formats accepted by --output.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (use table, json or yaml)", format)
}

// writeStructured writes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return validOutput(format)
}

func writeCaseTable(w io.Writer, list []cases.Case) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCASE #\tSTATUS\tTITLE\tLAST MODIFIED")
	for _, c := range list {
		modified := ""
		if !c.LastModifiedDateTime.IsZero() {
			modified = c.LastModifiedDateTime.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.CaseNumber, c.Status, c.Title, modified)
	}
	return tw.Flush()
}

func writeCaseDetail(w io.Writer, c cases.Case) {
	fmt.Fprintf(w, "ID:            %d\n", c.ID)
	fmt.Fprintf(w, "Case number:   %s\n", c.CaseNumber)
	fmt.Fprintf(w, "Title:         %s\n", c.Title)
	fmt.Fprintf(w, "Status:        %s\n", c.Status)
	if !c.CreatedDateTime.IsZero() {
		fmt.Fprintf(w, "Created:       %s\n", c.CreatedDateTime.Local().Format("2006-01-02 15:04:05"))
	}
	if !c.LastModifiedDateTime.IsZero() {
		fmt.Fprintf(w, "Last modified: %s\n", c.LastModifiedDateTime.Local().Format("2006-01-02 15:04:05"))
	}
	if d := c.DescriptionText(); d != "" {
		fmt.Fprintf(w, "Description:   %s\n", d)
	}
}

// writeFormState prints a failed submit: per-field errors in field order, the
// top-level message and any backend details.
func writeFormState(w io.Writer, state form.State) {
	for _, field := range cases.InputFields {
		for _, msg := range state.Errors[field] {
			fmt.Fprintf(w, "%s: %s\n", cases.FieldLabel(field), msg)
		}
	}
	if state.Message != "" {
		fmt.Fprintln(w, state.Message)
	}
	writeErrorDetails(w, state.ErrorResponse)
}

func writeErrorDetails(w io.Writer, er *api.ErrorResponse) {
	if s := er.Summary(); s != "" {
		fmt.Fprintf(w, "  %s\n", s)
	}
	for _, d := range er.Details() {
		fmt.Fprintf(w, "  %s: %s\n", d.Reason, d.Message)
	}
}

// submitFailed is returned by create/edit when the submit did not succeed.
// The details have already been printed.
type submitFailed struct {
	outcome form.Outcome
}

func (e *submitFailed) Error() string {
	switch e.outcome.(type) {
	case form.ValidationFailed:
		return "case input is invalid"
	default:
		return "case was not saved"
	}
}

func statusList() string {
	return strings.Join(cases.StatusNames(), ", ")
}
