package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Moiss/building/internal/cli"
	"github.com/Moiss/building/internal/config"
	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/pkg/logger"
	"github.com/Moiss/building/internal/repository"
	"github.com/Moiss/building/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Best effort: a missing .env is normal.
	_ = godotenv.Load()

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	app := &cli.App{}
	var database *sql.DB

	rootCmd := cli.NewRootCmd(app)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		d, err := wire(app, configPath)
		if err != nil {
			return err
		}
		database = d
		return nil
	}

	err := rootCmd.Execute()
	if database != nil {
		_ = database.Close()
	}
	_ = logger.Sync()
	return err
}

// wire loads configuration and fills app with services backed by the
// configured database.
func wire(app *cli.App, configPath string) (*sql.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	log := logger.L()

	database, err := db.OpenDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Debug("database opened", zap.String("path", cfg.DB.Path))

	uow := db.NewSQLiteUnitOfWork(database)
	works := repository.NewSQLiteWorkRepo(database)

	settings := service.SettingsFromConfig(cfg)
	deps := service.Deps{Settings: settings, Logger: log}
	observers := []service.UseCaseObserver{
		service.NewLogUseCaseObserver(log),
		service.NewMetricsUseCaseObserver(),
	}

	app.Progress = service.NewProgressService(uow, deps, observers...)
	app.Rollup = service.NewRollupService(uow, works, deps, observers...)
	app.Finance = service.NewFinanceService(uow, deps, observers...)
	app.Alerts = service.NewAlertService(uow, deps, observers...)
	app.Costs = service.NewCostService(uow, deps, observers...)
	app.Budgets = service.NewBudgetService(uow, deps, observers...)
	app.Lines = service.NewLineService(uow, deps, observers...)
	app.Status = service.NewStatusService(uow)
	app.Import = service.NewImportService(uow, deps, observers...)

	app.Works = works
	app.StageRepo = repository.NewSQLiteStageRepo(database)
	app.LineRepo = repository.NewSQLiteLineRepo(database)
	app.BudgetRepo = repository.NewSQLiteBudgetRepo(database)
	app.Settings = settings

	return database, nil
}
