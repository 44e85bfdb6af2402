package cli

import (
	"fmt"

	"github.com/alexanderramin/tierboard/internal/cli/formatter"
	"github.com/alexanderramin/tierboard/internal/contract"
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/period"
	"github.com/spf13/cobra"
)

func newItemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage tracker items",
	}
	cmd.AddCommand(newItemCreateCmd(app))
	return cmd
}

func newItemCreateCmd(app *App) *cobra.Command {
	var (
		req     contract.CreateItemRequest
		targets map[string]string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item with its KPI fields",
		Example: `  tierboard item create --parent 100 --subject "Upsell accounts" \
      --assignee 6 --weight 3 --department Sales --target Q1=5 --target Q2=8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseTargets(targets)
			if err != nil {
				return err
			}
			req.Targets = parsed

			resp, err := app.createItemUseCase().CreateItem(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCreatedItem(resp))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Subject, "subject", "", "Item subject (required)")
	cmd.Flags().IntVar(&req.ProjectID, "project", 0, "Project id; defaults to the parent's project")
	cmd.Flags().IntVar(&req.ParentID, "parent", 0, "Parent item id")
	cmd.Flags().IntVar(&req.AssigneeID, "assignee", 0, "Assignee user id")
	cmd.Flags().IntVar(&req.DoneRatio, "done", 0, "Initial done ratio (0..100)")
	cmd.Flags().StringVar(&req.Weight, "weight", "", "Weight")
	cmd.Flags().StringVar(&req.Department, "department", "", "Department")
	cmd.Flags().StringVar(&req.Goal, "goal", "", "Goal")
	cmd.Flags().StringVar(&req.Unit, "unit", "", "KPI unit")
	cmd.Flags().StringToStringVar(&targets, "target", nil, "Quarter target, e.g. Q1=5 (repeatable)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func parseTargets(raw map[string]string) (map[domain.PeriodTag]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[domain.PeriodTag]string, len(raw))
	for k, v := range raw {
		tag, err := period.ParseTag(k)
		if err != nil {
			return nil, err
		}
		if !tag.IsQuarter() {
			return nil, fmt.Errorf("targets are set per quarter, got %s", tag)
		}
		out[tag] = v
	}
	return out, nil
}
