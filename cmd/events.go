package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/case-board/internal/bus"
)

var (
	eventsGroup  string
	eventsOutput string
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow case changes published by the backend",
	Long: `Print case changes as 'case-board serve --redis ...' publishes them to the
Redis stream "cases". Runs until interrupted.

Readers sharing a --group split the stream between them; a new group starts
from the beginning of the stream.

Examples:
  case-board events --redis redis://localhost:6379
  case-board events --redis redis://localhost:6379 -o json`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVar(&eventsGroup, "group", "case-board-events", "Consumer group name")
	eventsCmd.Flags().StringVarP(&eventsOutput, "output", "o", outputTable, "Output format: table, json, yaml")
}

func runEvents(cmd *cobra.Command, args []string) error {
	if err := validOutput(eventsOutput); err != nil {
		return err
	}

	cfg := GetConfig()
	if cfg.Redis.URL == "" {
		return errors.New("events need a Redis URL: set --redis, CASEBOARD_REDIS_URL or redis.url")
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rb, err := bus.NewRedisBus(cfg.Redis.URL, logger.Named("events"))
	if err != nil {
		return err
	}
	defer rb.Close()

	out := cmd.OutOrStdout()
	err = rb.ReadCaseStream(cmd.Context(), eventsGroup, consumerName(), func(ctx context.Context, msg bus.CaseMessage) error {
		return writeCaseMessage(out, eventsOutput, msg)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func writeCaseMessage(w io.Writer, format string, msg bus.CaseMessage) error {
	if format != outputTable {
		return writeStructured(w, format, msg)
	}
	ts := time.Unix(msg.Timestamp, 0).Format(time.RFC3339)
	_, err := fmt.Fprintf(w, "%s  %-8s  #%d  %s  %s\n", ts, msg.Action, msg.CaseID, msg.CaseNumber, msg.Status)
	return err
}

// consumerName identifies this process within the consumer group.
func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "case-board"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
