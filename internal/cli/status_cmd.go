package cli

import (
	"fmt"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *App) *cobra.Command {
	var tree, all bool

	cmd := &cobra.Command{
		Use:   "status WORK",
		Short: "Show the work dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workID, err := resolveWorkID(ctx, a, args[0])
			if err != nil {
				return err
			}
			resp, err := a.Status.GetStatus(ctx, app.StatusRequest{WorkID: workID, ActiveOnly: !all})
			if err != nil {
				return err
			}

			if tree {
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTree(resp.Work, resp.Stages, resp.Lines))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStatus(resp, a.now()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&tree, "tree", false, "Show the stage/line hierarchy only")
	cmd.Flags().BoolVar(&all, "all", false, "Include dismissed alerts")

	return cmd
}

func newImportCmd(a *App, who *actorFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create a work from a YAML definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.Import.Import(cmd.Context(), who.actor(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s [%s]: %d stages, %d chapters, %d lines, %d costs\n",
				res.Work.Name, res.Work.DisplayID(), res.StageCount, res.ChapterCount, res.LineCount, res.CostCount)
			return nil
		},
	}
}
