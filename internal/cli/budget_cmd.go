package cli

import (
	"fmt"
	"strconv"

	"github.com/Moiss/building/internal/cli/formatter"
	"github.com/Moiss/building/internal/domain"
	"github.com/spf13/cobra"
)

func newBudgetCmd(a *App, who *actorFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Budget lifecycle",
	}

	var budgetRef string
	budgetAction := func(use, short string, run func(cmd *cobra.Command, budgetID string) (*domain.Budget, error)) *cobra.Command {
		c := &cobra.Command{
			Use:   use + " WORK",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				workID, err := resolveWorkID(ctx, a, args[0])
				if err != nil {
					return err
				}
				budgetID, err := resolveBudgetID(ctx, a, workID, budgetRef)
				if err != nil {
					return err
				}
				b, err := run(cmd, budgetID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Budget %s is %s (version %d)\n", b.Name, b.State, b.VersionNo)
				return nil
			},
		}
		c.Flags().StringVar(&budgetRef, "budget", "", "Budget ID (default: newest budget of the work)")
		return c
	}

	cmd.AddCommand(
		budgetAction("validate", "Freeze a budget's planned amounts", func(cmd *cobra.Command, id string) (*domain.Budget, error) {
			return a.Budgets.Validate(cmd.Context(), who.actor(), id)
		}),
		budgetAction("reopen", "Return a validated budget to draft (director or admin)", func(cmd *cobra.Command, id string) (*domain.Budget, error) {
			return a.Budgets.Reopen(cmd.Context(), who.actor(), id)
		}),
		&cobra.Command{
			Use:   "start WORK",
			Short: "Move a planned work into execution",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				workID, err := resolveWorkID(cmd.Context(), a, args[0])
				if err != nil {
					return err
				}
				w, err := a.Budgets.StartExecution(cmd.Context(), who.actor(), workID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Work %s is %s\n", w.DisplayID(), formatter.WorkStatePill(w.State))
				return nil
			},
		},
	)

	return cmd
}

func newLineCmd(a *App, who *actorFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "line",
		Short: "Change budget lines",
	}

	var workRef string
	var migration bool

	amountCmd := &cobra.Command{
		Use:   "amount LINE AMOUNT",
		Short: "Change a line's planned amount",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			workID, err := resolveWorkID(ctx, a, workRef)
			if err != nil {
				return err
			}
			lineID, err := resolveLineID(ctx, a, workID, args[0])
			if err != nil {
				return err
			}
			l, err := a.Lines.SetAmount(ctx, who.actor(), lineID, amount, migration)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Line %s now plans %s\n", l.Code, formatter.FormatMoney(l.Amount))
			return nil
		},
	}
	amountCmd.Flags().BoolVar(&migration, "migration", false, "Allow changing a validated budget during data migration")

	assignCmd := &cobra.Command{
		Use:   "assign LINE [STAGE]",
		Short: "Assign a line to a stage; omit STAGE to unassign",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workID, err := resolveWorkID(ctx, a, workRef)
			if err != nil {
				return err
			}
			lineID, err := resolveLineID(ctx, a, workID, args[0])
			if err != nil {
				return err
			}
			var stageID string
			if len(args) == 2 {
				if stageID, err = resolveStageID(ctx, a, workID, args[1]); err != nil {
					return err
				}
			}
			l, err := a.Lines.AssignStage(ctx, who.actor(), lineID, stageID)
			if err != nil {
				return err
			}
			if l.HasStage() {
				fmt.Fprintf(cmd.OutOrStdout(), "Line %s assigned to stage %s\n", l.Code, args[1])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Line %s unassigned\n", l.Code)
			}
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete LINE",
		Short: "Delete a line of a draft budget without progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workID, err := resolveWorkID(ctx, a, workRef)
			if err != nil {
				return err
			}
			lineID, err := resolveLineID(ctx, a, workID, args[0])
			if err != nil {
				return err
			}
			if err := a.Lines.Delete(ctx, who.actor(), lineID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted line %s\n", args[0])
			return nil
		},
	}

	for _, c := range []*cobra.Command{amountCmd, assignCmd, deleteCmd} {
		c.Flags().StringVar(&workRef, "work", "", "Work short ID or ID")
		_ = c.MarkFlagRequired("work")
		cmd.AddCommand(c)
	}

	return cmd
}
