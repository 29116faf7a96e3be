package cli

import (
	"fmt"

	"github.com/Moiss/building/internal/pkg/metrics"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Dump engine counters in the Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			families, err := metrics.Registry.Gather()
			if err != nil {
				return fmt.Errorf("gathering metrics: %w", err)
			}
			for _, mf := range families {
				if _, err := expfmt.MetricFamilyToText(cmd.OutOrStdout(), mf); err != nil {
					return fmt.Errorf("encoding metrics: %w", err)
				}
			}
			return nil
		},
	}
}
