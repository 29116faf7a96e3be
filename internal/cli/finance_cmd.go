package cli

import (
	"fmt"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/cli/formatter"
	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/finance"
	"github.com/spf13/cobra"
)

func newTotalsCmd(a *App) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "totals WORK",
		Short: "Sum counted real costs by line or stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			groupBy, err := finance.ParseGroupBy(by)
			if err != nil {
				return err
			}
			workID, err := resolveWorkID(ctx, a, args[0])
			if err != nil {
				return err
			}
			totals, err := a.Finance.GetRealTotals(ctx, workID, groupBy)
			if err != nil {
				return err
			}

			names := make(map[string]string)
			if groupBy == finance.GroupByStage {
				stages, err := a.StageRepo.ListByWork(ctx, workID)
				if err != nil {
					return err
				}
				for _, s := range stages {
					names[s.ID] = s.Name
				}
			} else {
				lines, err := a.LineRepo.ListByWork(ctx, workID)
				if err != nil {
					return err
				}
				for _, l := range lines {
					names[l.ID] = l.Code + " " + l.Name
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTotals(totals, names, groupBy))
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", string(finance.GroupByLine), "Grouping: line or stage")
	return cmd
}

func newFinanceCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finance",
		Short: "Work-level money figures",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "summary WORK",
			Short: "Show budget, committed, paid and available amounts",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				workID, err := resolveWorkID(cmd.Context(), a, args[0])
				if err != nil {
					return err
				}
				sum, err := a.Finance.Summary(cmd.Context(), workID)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatFinanceSummary(sum))
				return nil
			},
		},
		&cobra.Command{
			Use:   "recompute WORK",
			Short: "Re-derive every money snapshot of a work",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				workID, err := resolveWorkID(cmd.Context(), a, args[0])
				if err != nil {
					return err
				}
				sum, err := a.Finance.RecomputeFinancials(cmd.Context(), workID)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatFinanceSummary(sum))
				return nil
			},
		},
	)

	return cmd
}

func newClassifyCmd(a *App) *cobra.Command {
	var planned, spent float64
	var level string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Evaluate one planned/real pair against the configured thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			var th finance.Thresholds
			switch level {
			case "line":
				th = a.Settings.LineThresholds
			case "stage":
				th = a.Settings.StageThresholds
			default:
				return fmt.Errorf("invalid level %q (want line or stage)", level)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatClassification(finance.Evaluate(planned, spent, th)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&planned, "planned", 0, "Planned amount")
	cmd.Flags().Float64Var(&spent, "real", 0, "Real amount spent")
	cmd.Flags().StringVar(&level, "level", "line", "Threshold set: line or stage")
	_ = cmd.MarkFlagRequired("planned")
	_ = cmd.MarkFlagRequired("real")

	return cmd
}

func newCostCmd(a *App, who *actorFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Record real expenditure and manage the cost source",
	}

	cmd.AddCommand(
		newCostRecordCmd(a, who),
		newCostDeleteCmd(a, who),
		newCostSourceCmd(a, who),
	)

	return cmd
}

func newCostRecordCmd(a *App, who *actorFlags) *cobra.Command {
	var workRef, lineRef, stageRef, date, description, source string
	var amount float64

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Register a real cost against a work, stage or line",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workID, err := resolveWorkID(ctx, a, workRef)
			if err != nil {
				return err
			}
			req := app.RecordCostRequest{
				WorkID:      workID,
				Amount:      amount,
				Description: description,
				Source:      domain.CostSource(source),
				Actor:       who.actor(),
			}
			if lineRef != "" {
				if req.LineID, err = resolveLineID(ctx, a, workID, lineRef); err != nil {
					return err
				}
			}
			if stageRef != "" {
				if req.StageID, err = resolveStageID(ctx, a, workID, stageRef); err != nil {
					return err
				}
			}
			if req.Date, err = parseDate(date, a.now()); err != nil {
				return err
			}

			entry, err := a.Costs.Record(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCostEntry(entry))
			return nil
		},
	}

	cmd.Flags().StringVar(&workRef, "work", "", "Work short ID or ID")
	cmd.Flags().StringVar(&lineRef, "line", "", "Budget line code or ID")
	cmd.Flags().StringVar(&stageRef, "stage", "", "Stage sequence, name or ID")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Amount spent")
	cmd.Flags().StringVar(&date, "date", "", "Cost date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&description, "desc", "", "Description")
	cmd.Flags().StringVar(&source, "source", "", "Record source: internal or accounting (default internal)")
	_ = cmd.MarkFlagRequired("work")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newCostDeleteCmd(a *App, who *actorFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ENTRY_ID",
		Short: "Delete a cost entry not yet migrated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Costs.Delete(cmd.Context(), who.actor(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted cost entry %s\n", args[0])
			return nil
		},
	}
}

func newCostSourceCmd(a *App, who *actorFlags) *cobra.Command {
	var cutover string
	var migrate bool

	cmd := &cobra.Command{
		Use:   "source WORK internal|accounting",
		Short: "Switch which real-cost records count for a work",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workID, err := resolveWorkID(ctx, a, args[0])
			if err != nil {
				return err
			}
			req := app.ChangeSourceRequest{
				WorkID:       workID,
				Source:       domain.CostSource(args[1]),
				MarkMigrated: migrate,
				Actor:        who.actor(),
			}
			if cutover != "" {
				d, err := parseDate(cutover, a.now())
				if err != nil {
					return err
				}
				req.Cutover = &d
			}

			w, err := a.Costs.ChangeSource(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cost source of %s is now %s\n", w.DisplayID(), w.CostSource)
			if w.CutoverDate != nil {
				fmt.Fprint(cmd.OutOrStdout(), formatter.Field("cutover", formatter.FormatDate(w.CutoverDate)))
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.Field("financial", formatter.FormatPct(w.FinancialProgress)))
			return nil
		},
	}

	cmd.Flags().StringVar(&cutover, "cutover", "", "Cutover date for accounting (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Mark internal entries before the cutover as migrated")

	return cmd
}
