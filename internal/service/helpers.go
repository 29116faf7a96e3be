package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Moiss/building/internal/alerts"
	"github.com/Moiss/building/internal/config"
	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/finance"
	"github.com/Moiss/building/internal/ledger"
	apperrors "github.com/Moiss/building/internal/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Clock returns the current instant.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// Settings are the engine thresholds shared by every write path.
type Settings struct {
	LineThresholds  finance.Thresholds
	StageThresholds finance.Thresholds
	Alerts          alerts.Settings
	Epsilon         float64
	Concurrency     int
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		LineThresholds:  finance.DefaultLineThresholds,
		StageThresholds: finance.DefaultStageThresholds,
		Alerts:          alerts.DefaultSettings,
		Epsilon:         ledger.DefaultEpsilon,
		Concurrency:     4,
	}
}

// SettingsFromConfig maps loaded configuration onto engine settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return DefaultSettings()
	}
	return Settings{
		LineThresholds:  finance.Thresholds{Warning: cfg.Thresholds.Line.Warning, Critical: cfg.Thresholds.Line.Critical},
		StageThresholds: finance.Thresholds{Warning: cfg.Thresholds.Stage.Warning, Critical: cfg.Thresholds.Stage.Critical},
		Alerts: alerts.Settings{
			FinancialTolerance: cfg.Alerts.FinancialTolerance,
			StaleDays:          cfg.Alerts.StaleDays,
			DelayPoints:        cfg.Alerts.DelayPoints,
		},
		Epsilon:     cfg.Ledger.Epsilon,
		Concurrency: cfg.Recompute.Concurrency,
	}
}

// RoleChecker decides whether an actor holds director or admin privilege.
type RoleChecker interface {
	IsDirectorOrAdmin(ctx context.Context, actor domain.Actor) bool
}

// ActorRoles trusts the roles carried by the actor.
type ActorRoles struct{}

func (ActorRoles) IsDirectorOrAdmin(_ context.Context, actor domain.Actor) bool {
	return actor.IsDirectorOrAdmin()
}

// Deps are the collaborators shared by the transactional services.
type Deps struct {
	Settings Settings
	Clock    Clock
	Roles    RoleChecker
	Logger   *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Settings == (Settings{}) {
		d.Settings = DefaultSettings()
	}
	if d.Settings.Epsilon <= 0 {
		d.Settings.Epsilon = ledger.DefaultEpsilon
	}
	if d.Settings.Concurrency < 1 {
		d.Settings.Concurrency = 1
	}
	if d.Clock == nil {
		d.Clock = systemClock
	}
	if d.Roles == nil {
		d.Roles = ActorRoles{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

func (d Deps) now(override *time.Time) time.Time {
	if override != nil {
		return override.UTC()
	}
	return d.Clock().UTC()
}

func (d Deps) requireDirector(ctx context.Context, actor domain.Actor, operation string) error {
	if !d.Roles.IsDirectorOrAdmin(ctx, actor) {
		return apperrors.ErrForbiddenf(operation)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest runs the struct tags of an app request and maps failures
// to field errors.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating request: %w", err)
	}

	fieldErrors := make([]apperrors.FieldError, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fieldMessage(fe)
		fieldErrors = append(fieldErrors, apperrors.FieldError{
			Field:   fe.Field(),
			Code:    strings.ToUpper(fe.Tag()),
			Message: msg,
		})
		msgs = append(msgs, msg)
	}
	return apperrors.Validation(apperrors.CodeValidationFailed, strings.Join(msgs, "; ")).
		WithFieldErrors(fieldErrors)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fe.Field() + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonEmpty(ids ...string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
