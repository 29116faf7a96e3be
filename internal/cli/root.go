package cli

import (
	"time"

	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/repository"
	"github.com/Moiss/building/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services and lookup repositories used by CLI commands.
type App struct {
	Progress service.ProgressService
	Rollup   service.RollupService
	Finance  service.FinanceService
	Alerts   service.AlertService
	Costs    service.CostService
	Budgets  service.BudgetService
	Lines    service.LineService
	Status   service.StatusService
	Import   service.ImportService

	// Lookups for short-ID, code and name resolution.
	Works      repository.WorkRepo
	StageRepo  repository.StageRepo
	LineRepo   repository.LineRepo
	BudgetRepo repository.BudgetRepo

	Settings service.Settings

	// Now defaults to the wall clock.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

// actorFlags are the persistent identity flags shared by every command.
type actorFlags struct {
	user   string
	tenant string
	roles  []string
}

func (f *actorFlags) actor() domain.Actor {
	roles := make([]domain.Role, 0, len(f.roles))
	for _, r := range f.roles {
		roles = append(roles, domain.Role(r))
	}
	return domain.Actor{UserID: f.user, TenantID: f.tenant, Roles: roles}
}

// NewRootCmd creates the top-level "building" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	who := &actorFlags{}

	root := &cobra.Command{
		Use:           "building",
		Short:         "Construction progress and cost rollup engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Config file (default ./building.yaml)")
	root.PersistentFlags().StringVar(&who.user, "user", "cli", "User recorded as author of ledger entries")
	root.PersistentFlags().StringVar(&who.tenant, "tenant", "default", "Tenant the user operates in")
	root.PersistentFlags().StringSliceVar(&who.roles, "role", []string{string(domain.RoleUser)}, "Roles held by the user (user, director, admin)")

	root.AddCommand(
		newProgressCmd(app, who),
		newStageCmd(app, who),
		newRecomputeCmd(app),
		newTotalsCmd(app),
		newFinanceCmd(app),
		newClassifyCmd(app),
		newCostCmd(app, who),
		newBudgetCmd(app, who),
		newLineCmd(app, who),
		newAlertsCmd(app),
		newImportCmd(app, who),
		newStatusCmd(app),
		newMetricsCmd(),
	)

	return root
}
