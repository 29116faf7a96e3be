package cli

import (
	"fmt"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newProgressCmd(a *App, who *actorFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Record and correct physical progress",
	}

	cmd.AddCommand(
		newProgressSubmitCmd(a, who),
		newProgressStageCmd(a, who),
		newProgressCancelCmd(a, who),
		newProgressRestoreCmd(a, who),
		newProgressHistoryCmd(a),
	)

	return cmd
}

func newProgressSubmitCmd(a *App, who *actorFlags) *cobra.Command {
	var workRef, lineRef, stageRef, date, note string
	var pct float64

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Append a progress delta to a budget line",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workID, err := resolveWorkID(ctx, a, workRef)
			if err != nil {
				return err
			}
			lineID, err := resolveLineID(ctx, a, workID, lineRef)
			if err != nil {
				return err
			}
			var stageID string
			if stageRef != "" {
				if stageID, err = resolveStageID(ctx, a, workID, stageRef); err != nil {
					return err
				}
			}
			day, err := parseDate(date, a.now())
			if err != nil {
				return err
			}

			res, err := a.Progress.Submit(ctx, app.SubmitProgressRequest{
				WorkID:       workID,
				StageID:      stageID,
				LineID:       lineID,
				PercentDelta: pct,
				Date:         day,
				Note:         note,
				Actor:        who.actor(),
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProgressResult("Submitted", res))
			return nil
		},
	}

	cmd.Flags().StringVar(&workRef, "work", "", "Work short ID or ID")
	cmd.Flags().StringVar(&lineRef, "line", "", "Budget line code or ID")
	cmd.Flags().StringVar(&stageRef, "stage", "", "Stage the line must belong to (optional)")
	cmd.Flags().Float64Var(&pct, "pct", 0, "Percentage points to add (0 < pct <= 100)")
	cmd.Flags().StringVar(&date, "date", "", "Progress date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&note, "note", "", "Free-text note")
	_ = cmd.MarkFlagRequired("work")
	_ = cmd.MarkFlagRequired("line")
	_ = cmd.MarkFlagRequired("pct")

	return cmd
}

func newProgressStageCmd(a *App, who *actorFlags) *cobra.Command {
	var workRef, stageRef, date, note string
	var pct float64

	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Append a progress delta to a stage without budget lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workID, err := resolveWorkID(ctx, a, workRef)
			if err != nil {
				return err
			}
			stageID, err := resolveStageID(ctx, a, workID, stageRef)
			if err != nil {
				return err
			}
			day, err := parseDate(date, a.now())
			if err != nil {
				return err
			}

			res, err := a.Progress.SubmitStage(ctx, app.SubmitStageProgressRequest{
				WorkID:       workID,
				StageID:      stageID,
				PercentDelta: pct,
				Date:         day,
				Note:         note,
				Actor:        who.actor(),
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProgressResult("Submitted", res))
			return nil
		},
	}

	cmd.Flags().StringVar(&workRef, "work", "", "Work short ID or ID")
	cmd.Flags().StringVar(&stageRef, "stage", "", "Stage sequence, name or ID")
	cmd.Flags().Float64Var(&pct, "pct", 0, "Percentage points to add (0 < pct <= 100)")
	cmd.Flags().StringVar(&date, "date", "", "Progress date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&note, "note", "", "Free-text note")
	_ = cmd.MarkFlagRequired("work")
	_ = cmd.MarkFlagRequired("stage")
	_ = cmd.MarkFlagRequired("pct")

	return cmd
}

func newProgressCancelCmd(a *App, who *actorFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel EVENT_ID",
		Short: "Cancel a confirmed progress entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.Progress.Cancel(cmd.Context(), who.actor(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProgressResult("Cancelled", res))
			return nil
		},
	}
}

func newProgressRestoreCmd(a *App, who *actorFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore EVENT_ID",
		Short: "Restore a cancelled progress entry if capacity allows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.Progress.Restore(cmd.Context(), who.actor(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProgressResult("Restored", res))
			return nil
		},
	}
}

func newProgressHistoryCmd(a *App) *cobra.Command {
	var workRef, lineRef, stageRef string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a ledger with running totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if (lineRef == "") == (stageRef == "") {
				return fmt.Errorf("exactly one of --line or --stage is required")
			}
			workID, err := resolveWorkID(ctx, a, workRef)
			if err != nil {
				return err
			}

			var entries []app.HistoryEntry
			if lineRef != "" {
				lineID, err := resolveLineID(ctx, a, workID, lineRef)
				if err != nil {
					return err
				}
				entries, err = a.Progress.History(ctx, lineID)
				if err != nil {
					return err
				}
			} else {
				stageID, err := resolveStageID(ctx, a, workID, stageRef)
				if err != nil {
					return err
				}
				entries, err = a.Progress.StageHistory(ctx, stageID)
				if err != nil {
					return err
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&workRef, "work", "", "Work short ID or ID")
	cmd.Flags().StringVar(&lineRef, "line", "", "Budget line code or ID")
	cmd.Flags().StringVar(&stageRef, "stage", "", "Stage with a manual ledger")
	_ = cmd.MarkFlagRequired("work")

	return cmd
}

func newStageCmd(a *App, who *actorFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Stage lifecycle",
	}

	var workRef string
	closeCmd := &cobra.Command{
		Use:   "close STAGE",
		Short: "Close a stage, topping every line up to 100%",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workID, err := resolveWorkID(ctx, a, workRef)
			if err != nil {
				return err
			}
			stageID, err := resolveStageID(ctx, a, workID, args[0])
			if err != nil {
				return err
			}
			res, err := a.Progress.CloseStage(ctx, who.actor(), stageID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCloseStage(res))
			return nil
		},
	}
	closeCmd.Flags().StringVar(&workRef, "work", "", "Work short ID or ID")
	_ = closeCmd.MarkFlagRequired("work")

	cmd.AddCommand(closeCmd)
	return cmd
}
