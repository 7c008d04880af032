package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Ashfaaq98/case-board/internal/api"
	"github.com/Ashfaaq98/case-board/internal/bus"
	"github.com/Ashfaaq98/case-board/internal/ingest"
	"github.com/Ashfaaq98/case-board/internal/server"
	"github.com/Ashfaaq98/case-board/internal/store"
)

var (
	serveImportDir   string
	serveImportWatch bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference case backend",
	Long: `Run a case backend that implements the API case-board talks to:

  GET    /api/v1/cases
  GET    /api/v1/cases/{id}
  POST   /api/v1/cases
  PUT    /api/v1/cases/{id}
  DELETE /api/v1/cases/{id}
  GET    /healthz

Cases are stored in SQLite with an audit trail. When --redis is set, every
change is also published to the Redis stream "cases" (see 'case-board events').
The server runs until interrupted (Ctrl+C) and shuts down gracefully.

Examples:
  # Default: 127.0.0.1:8080, ./data/case-board.db
  case-board serve

  # Publish changes and import files dropped into ./incoming
  case-board serve --redis redis://localhost:6379 --import-dir ./incoming --import-watch`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Address to listen on")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	serveCmd.Flags().StringVar(&serveImportDir, "import-dir", "", "Import case files from this directory into the served backend")
	serveCmd.Flags().BoolVar(&serveImportWatch, "import-watch", false, "Keep watching --import-dir for new files")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.Named("serve")

	resolvedDBPath := resolvePathRelativeToBase(getWorkingDir(), cfg.Database.Path)
	logger.Info("initializing database", zap.String("path", resolvedDBPath))
	st, err := store.NewStore(resolvedDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	// Redis or Null
	caseBus := bus.NewBus(cfg.Redis.URL, logger)
	defer caseBus.Close()

	srv, err := server.New(server.Options{
		Addr:   cfg.Server.Addr,
		Store:  st,
		Bus:    caseBus,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	// Bind before starting anything that calls the server.
	ln, err := srv.Listen()
	if err != nil {
		return err
	}
	printListening(cmd.OutOrStdout(), ln.Addr())

	var importer *ingest.FolderImporter
	if serveImportDir != "" {
		client, err := api.NewClient("http://"+ln.Addr().String(), api.WithLogger(logger), api.WithUserAgent(userAgent()))
		if err != nil {
			ln.Close()
			return err
		}
		importer = ingest.NewFolderImporter(client, ingest.FolderOptions{
			Dir:    serveImportDir,
			Watch:  serveImportWatch,
			Logger: logger,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})
	if importer != nil {
		g.Go(func() error {
			if err := importer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("import: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// printListening announces the backend URL regardless of log level.
func printListening(w io.Writer, addr net.Addr) {
	fmt.Fprintf(w, "Case backend listening on http://%s%s (Ctrl+C to stop)\n", addr, api.CasesPath)
}
