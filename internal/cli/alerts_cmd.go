package cli

import (
	"fmt"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/cli/formatter"
	"github.com/Moiss/building/internal/domain"
	"github.com/spf13/cobra"
)

func newAlertsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Rule-generated and manual alerts",
	}

	var all bool
	listCmd := &cobra.Command{
		Use:   "list WORK",
		Short: "List alerts, most severe first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workID, err := resolveWorkID(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			list, err := a.Alerts.List(cmd.Context(), workID, !all)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAlerts(list))
			return nil
		},
	}
	listCmd.Flags().BoolVar(&all, "all", false, "Include dismissed alerts")

	var severity string
	addCmd := &cobra.Command{
		Use:   "add WORK MESSAGE",
		Short: "Create a manual alert that rebuilds never remove",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workID, err := resolveWorkID(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			alert, err := a.Alerts.CreateManual(cmd.Context(), app.CreateAlertRequest{
				WorkID:   workID,
				Message:  args[1],
				Severity: domain.Severity(severity),
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAlerts([]*domain.Alert{alert}))
			return nil
		},
	}
	addCmd.Flags().StringVar(&severity, "severity", string(domain.SeverityInfo), "info, warning or critical")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "rebuild WORK",
			Short: "Re-evaluate every alert rule for a work",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				workID, err := resolveWorkID(cmd.Context(), a, args[0])
				if err != nil {
					return err
				}
				res, err := a.Alerts.Rebuild(cmd.Context(), workID)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRebuild(res))
				return nil
			},
		},
		listCmd,
		&cobra.Command{
			Use:   "dismiss ALERT_ID",
			Short: "Deactivate an alert",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				alert, err := a.Alerts.Dismiss(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %q\n", alert.Message)
				return nil
			},
		},
		addCmd,
	)

	return cmd
}
