package cli

import (
	"fmt"

	"github.com/Moiss/building/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newRecomputeCmd(a *App) *cobra.Command {
	var stageRefs, lineRefs []string
	var all bool

	cmd := &cobra.Command{
		Use:   "recompute [WORK]",
		Short: "Rebuild progress snapshots from the ledger",
		Long: `Recompute line, stage and work progress from confirmed ledger entries.

Without --stage or --line the whole work is recomputed. With --line only
those lines and their stages are touched. --all recomputes every work.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if all {
				if len(args) > 0 {
					return fmt.Errorf("--all takes no work argument")
				}
				n, err := a.Rollup.RecomputeAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Recomputed %d works\n", n)
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("a work is required unless --all is set")
			}

			workID, err := resolveWorkID(ctx, a, args[0])
			if err != nil {
				return err
			}
			var stageIDs, lineIDs []string
			if len(stageRefs) > 0 {
				if stageIDs, err = resolveStageIDs(ctx, a, workID, stageRefs); err != nil {
					return err
				}
			}
			if len(lineRefs) > 0 {
				if lineIDs, err = resolveLineIDs(ctx, a, workID, lineRefs); err != nil {
					return err
				}
			}

			res, err := a.Rollup.RecomputeHierarchy(ctx, workID, stageIDs, lineIDs)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Recomputed %d lines and %d stages of %s\n", res.Lines, res.Stages, res.Work.DisplayID())
			fmt.Fprint(out, formatter.Field("progress", formatter.RenderProgress(res.Work.OverallProgress, 20)))
			return nil
		},
	}

	addScopeFlags(cmd.Flags(), &stageRefs, &lineRefs)
	cmd.Flags().BoolVar(&all, "all", false, "Recompute every work")

	return cmd
}
