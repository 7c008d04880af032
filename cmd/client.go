package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/case-board/internal/api"
	"github.com/Ashfaaq98/case-board/internal/board"
)

// session bundles what every client-side command needs.
type session struct {
	cfg    Config
	logger *zap.Logger
	client *api.Client
	board  *board.Board
}

// newSession builds the logger, API client and board for a command. Call the
// returned close func when the command finishes.
func newSession(cmd *cobra.Command) (*session, func(), error) {
	cfg := GetConfig()

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	s, err := newSessionWithLogger(cfg, logger.Named(cmd.Name()))
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return s, func() { _ = logger.Sync() }, nil
}

func newSessionWithLogger(cfg Config, logger *zap.Logger) (*session, error) {
	client, err := api.NewClient(cfg.API.URL, api.WithLogger(logger), api.WithUserAgent(userAgent()))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	return &session{
		cfg:    cfg,
		logger: logger,
		client: client,
		board:  board.New(client, board.Options{EmptyOnError: cfg.Board.EmptyOnError, Logger: logger}),
	}, nil
}

func userAgent() string {
	v := appVersion
	if v == "" {
		v = "dev"
	}
	return "case-board/" + v
}
