package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/tierboard/internal/cli/formatter"
	"github.com/alexanderramin/tierboard/internal/contract"
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/period"
	"github.com/spf13/cobra"
)

type dashboardFlags struct {
	group     string
	users     []int
	project   int
	period    *period.Value
	noWatched bool
	openOnly  bool
	at        string
	asJSON    bool
}

func addDashboardFlags(cmd *cobra.Command, app *App, f *dashboardFlags) {
	f.period = period.NewValue(domain.PeriodYearly)
	cmd.Flags().StringVar(&f.group, "group", app.Config.DefaultGroup, "Team group to report on")
	cmd.Flags().IntSliceVar(&f.users, "user", nil, "Report on these user ids instead of a group")
	cmd.Flags().IntVar(&f.project, "project", 0, "Only include items of this project")
	cmd.Flags().Var(f.period, "period", "Period: YEARLY, Q1..Q4, HALF or THREE_Q")
	cmd.Flags().BoolVar(&f.noWatched, "no-watched", false, "Skip items the team only watches")
	cmd.Flags().BoolVar(&f.openOnly, "open-only", false, "Skip closed items")
	cmd.Flags().StringVar(&f.at, "at", "", "Evaluate as of this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the raw response as JSON")
	cmd.MarkFlagsMutuallyExclusive("group", "user")
}

func (f *dashboardFlags) request(cmd *cobra.Command, app *App) (contract.DashboardRequest, error) {
	group := f.group
	if len(f.users) > 0 && !cmd.Flags().Changed("group") {
		group = ""
	}
	req := contract.NewDashboardRequest(group)
	req.UserIDs = f.users
	req.ProjectID = f.project
	req.Period = f.period.Tag()
	req.IncludeWatched = !f.noWatched
	req.IncludeClosed = !f.openOnly
	if f.at != "" {
		at, err := time.ParseInLocation("2006-01-02", f.at, app.Config.Calendar().Location)
		if err != nil {
			return req, fmt.Errorf("invalid --at date %q (want YYYY-MM-DD)", f.at)
		}
		req.Now = &at
	}
	return req, nil
}

func (f *dashboardFlags) load(cmd *cobra.Command, app *App) (*contract.DashboardResponse, error) {
	req, err := f.request(cmd, app)
	if err != nil {
		return nil, err
	}
	if app.interactive() && !f.asJSON {
		stop := formatter.StartSpinner(cmd.ErrOrStderr(), "Loading dashboard...")
		defer stop()
	}
	return app.dashboardUseCase().Load(cmd.Context(), req)
}

func newDashboardCmd(app *App) *cobra.Command {
	var f dashboardFlags
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show weighted performance for a team",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := f.load(cmd, app)
			if err != nil {
				return err
			}
			if f.asJSON {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatDashboard(resp, time.Now()))
			return nil
		},
	}
	addDashboardFlags(cmd, app, &f)
	return cmd
}

func newTreeCmd(app *App) *cobra.Command {
	var f dashboardFlags
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the MAIN, CHILD and SUB tree for a team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := f.load(cmd, app)
			if err != nil {
				return err
			}
			if f.asJSON {
				return writeJSON(cmd, resp.Tree)
			}
			out := cmd.OutOrStdout()
			if len(resp.Tree) == 0 {
				fmt.Fprintln(out, formatter.Dim("No MAIN items in scope."))
			} else {
				fmt.Fprint(out, formatter.FormatTree(resp.Tree))
			}
			for _, w := range resp.Warnings {
				fmt.Fprintln(out, formatter.StyleYellow.Render("WARNING: "+w))
			}
			return nil
		},
	}
	addDashboardFlags(cmd, app, &f)
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
