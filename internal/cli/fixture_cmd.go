package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderramin/tierboard/internal/cli/formatter"
	"github.com/alexanderramin/tierboard/internal/db"
	"github.com/alexanderramin/tierboard/internal/fixture"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newFixtureCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Run a local tracker backed by SQLite",
	}
	cmd.AddCommand(newFixtureServeCmd(app), newFixtureCheckCmd())
	return cmd
}

type serveOptions struct {
	seedPath string
	addr     string
	dbPath   string
	apiKey   string
}

func newFixtureServeCmd(app *App) *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tracker endpoints tierboard reads and writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveFixture(ctx, cmd.OutOrStdout(), app, opts)
		},
	}
	cmd.Flags().StringVar(&opts.seedPath, "seed", "", "YAML seed file to load before serving")
	cmd.Flags().StringVar(&opts.addr, "addr", "127.0.0.1:3000", "Listen address")
	cmd.Flags().StringVar(&opts.dbPath, "db", app.Config.FixtureDB, "SQLite path, or :memory:")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", app.Config.Tracker.APIKey, "Require this API key")
	return cmd
}

// serveFixture seeds the database, serves until ctx is done, then shuts
// down gracefully.
func serveFixture(ctx context.Context, out io.Writer, app *App, opts serveOptions) error {
	var seed *fixture.Seed
	if opts.seedPath != "" {
		var err error
		if seed, err = fixture.LoadSeed(opts.seedPath); err != nil {
			return err
		}
	}

	database, err := db.OpenDB(opts.dbPath)
	if err != nil {
		return fmt.Errorf("opening fixture database: %w", err)
	}
	defer database.Close()

	if seed != nil {
		if err := seed.Apply(context.WithoutCancel(ctx), db.NewSQLiteUnitOfWork(database)); err != nil {
			return fmt.Errorf("applying seed: %w", err)
		}
		fmt.Fprintf(out, "%s %d issues from %s\n", formatter.StyleGreen.Render("Seeded"), len(seed.Issues), opts.seedPath)
	}

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", opts.addr, err)
	}
	srv := &http.Server{
		Handler:           fixture.NewServer(database, fixture.Options{APIKey: opts.apiKey, Logger: app.logger()}).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	fmt.Fprintf(out, "Fixture tracker listening on http://%s\n", ln.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fixture server: %w", err)
	}
	app.logger().Info("fixture server stopped", "addr", ln.Addr().String())
	return nil
}

func newFixtureCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <seed.yaml>",
		Short: "Validate a seed file without serving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := fixture.LoadSeed(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d projects, %d users, %d groups, %d issues\n",
				formatter.StyleGreen.Render("✔ Valid"),
				len(seed.Projects), len(seed.Users), len(seed.Groups), len(seed.Issues))
			return nil
		},
	}
}
