package cli

import (
	"log/slog"

	"github.com/alexanderramin/tierboard/internal/app"
	"github.com/alexanderramin/tierboard/internal/config"
	"github.com/alexanderramin/tierboard/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services and settings CLI commands run against.
type App struct {
	Dashboard service.DashboardService
	Progress  service.ProgressService
	Items     service.ItemService

	// Use-case overrides; when nil the services above are used.
	LoadDashboard app.DashboardUseCase
	SetProgress   app.SetProgressUseCase
	CreateItem    app.CreateItemUseCase

	Config config.Config
	Logger *slog.Logger

	// IsInteractive reports whether stdout is a terminal. Spinners are
	// only drawn when it returns true.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

// NewRootCmd creates the top-level "tierboard" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "tierboard",
		Short:         "Tiered goal dashboards over a Redmine-style tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newDashboardCmd(app),
		newTreeCmd(app),
		newProgressCmd(app),
		newItemCmd(app),
		newFixtureCmd(app),
	)

	return root
}
