package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/case-board/internal/ingest"
)

var (
	importDir      string
	importWatch    bool
	importPatterns string
	importTail     bool
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import case files from a directory (optionally watch for changes)",
	Long: `Create cases from files in a directory. A .json file holds one case object
or an array of them; a .jsonl file holds one case object per line:

  {"caseNumber":"C-001","title":"Disk full","description":null,"status":"New"}

Each record is validated and submitted like an interactive create.

Examples:
  # One-shot: import existing files and exit
  case-board import --dir ./incoming

  # Watch mode: tail JSONL appends and import new JSON files
  case-board import --dir ./incoming --watch`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importDir, "dir", "", "Directory to read files from (required)")
	importCmd.MarkFlagRequired("dir")

	importCmd.Flags().BoolVar(&importWatch, "watch", false, "Watch directory for changes and tail JSONL files")
	importCmd.Flags().BoolVar(&importTail, "tail-from-end", false, "In watch mode, skip lines already present in JSONL files")
	importCmd.Flags().StringVar(&importPatterns, "pattern", "*.jsonl,*.json", "Comma-separated glob patterns to match (e.g. \"*.jsonl,*.json\")")
}

func runImport(cmd *cobra.Command, args []string) error {
	s, done, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer done()

	var patterns []string
	for _, p := range strings.Split(importPatterns, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}

	importer := ingest.NewFolderImporter(s.client, ingest.FolderOptions{
		Dir:         importDir,
		Watch:       importWatch,
		Patterns:    patterns,
		TailFromEnd: importTail,
		Logger:      s.logger,
	})

	err = importer.Run(cmd.Context())
	stats := importer.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, invalid %d, rejected %d\n", stats.Imported, stats.Invalid, stats.Rejected)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
