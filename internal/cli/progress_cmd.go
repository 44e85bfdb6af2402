package cli

import (
	"fmt"
	"strconv"

	"github.com/alexanderramin/tierboard/internal/cli/formatter"
	"github.com/alexanderramin/tierboard/internal/contract"
	"github.com/alexanderramin/tierboard/internal/period"
	"github.com/spf13/cobra"
)

func newProgressCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Record item progress",
	}
	cmd.AddCommand(newProgressSetCmd(app))
	return cmd
}

func newProgressSetCmd(app *App) *cobra.Command {
	var (
		statusID int
		notes    string
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "set <item-id> <period> <value>",
		Short: "Set progress within a period (0..100)",
		Long: `Set progress within a period. The value is relative to the period
and is mapped onto the item's overall done ratio, so "set 42 Q2 50"
stores a done ratio of 38%.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			tag, err := period.ParseTag(args[1])
			if err != nil {
				return err
			}
			value, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid value %q: must be an integer", args[2])
			}

			req := contract.NewSetProgressRequest(id, tag, value)
			req.Notes = notes
			req.IgnoreWindow = force
			if cmd.Flags().Changed("status") {
				req.StatusID = &statusID
			}

			resp, err := app.setProgressUseCase().SetPeriodProgress(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSetProgress(resp))
			return nil
		},
	}
	cmd.Flags().IntVar(&statusID, "status", 0, "Also move the item to this status id")
	cmd.Flags().StringVar(&notes, "notes", "", "Journal note to attach")
	cmd.Flags().BoolVar(&force, "force", false, "Allow editing a quarter outside its calendar window")
	return cmd
}
