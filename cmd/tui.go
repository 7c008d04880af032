package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/case-board/internal/ui"
)

var (
	forceTUI bool
	tuiTheme string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive case board",
	Long: `Open the interactive case board.

Keys: n new, e/Enter edit, d delete, r reload, t theme, ? help, q quit.
Logs are written to ` + tuiLogFile + ` while the board is open.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().BoolVar(&forceTUI, "force-tui", false, "Skip the terminal capability check")
	tuiCmd.Flags().StringVar(&tuiTheme, "theme", "", "Color theme: dark, light, high-contrast (default from ui.theme)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if !forceTUI {
		if !isTerminal() {
			return fmt.Errorf("stdout is not a terminal; use 'case-board list' instead or pass --force-tui")
		}
		w, h, ok := probeTerminal()
		if !ok {
			return fmt.Errorf("terminal cannot be initialized; use 'case-board list' instead or pass --force-tui")
		}
		if w < minTUIWidth || h < minTUIHeight {
			return fmt.Errorf("terminal is %dx%d, the board needs at least %dx%d", w, h, minTUIWidth, minTUIHeight)
		}
	}

	// Logs go to a file so they cannot corrupt the screen.
	logger, err := newFileLogger(cfg.Log, resolvePathRelativeToBase(getWorkingDir(), tuiLogFile))
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := newSessionWithLogger(cfg, logger)
	if err != nil {
		return err
	}

	theme := cfg.UI.Theme
	if tuiTheme != "" {
		theme = tuiTheme
	}

	logger.Info("opening case board", zap.String("api_url", s.client.BaseURL()))
	board := ui.NewUI(cmd.Context(), s.client, ui.Options{
		EmptyOnError: cfg.Board.EmptyOnError,
		Theme:        theme,
		Logger:       logger,
	})
	return board.Start(cmd.Context())
}
