package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Moiss/building/internal/domain"
	"github.com/spf13/pflag"
)

const dateLayout = "2006-01-02"

// resolveWorkID accepts a short ID (case-insensitive), a full ID or an
// unambiguous ID prefix.
func resolveWorkID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("work ID is required")
	}

	if w, err := app.Works.GetByShortID(ctx, strings.ToUpper(input)); err == nil {
		return w.ID, nil
	}

	works, err := app.Works.List(ctx, "")
	if err != nil {
		return "", err
	}

	var matches []string
	for _, w := range works {
		if w.ID == input {
			return w.ID, nil
		}
		if strings.HasPrefix(w.ID, input) {
			matches = append(matches, w.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("work not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("work ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveStageID resolves a stage of the work by sequence number, name
// (case-insensitive) or ID.
func resolveStageID(ctx context.Context, app *App, workID, input string) (string, error) {
	stages, err := app.StageRepo.ListByWork(ctx, workID)
	if err != nil {
		return "", err
	}
	seq, seqErr := strconv.Atoi(input)
	for _, s := range stages {
		if s.ID == input || strings.EqualFold(s.Name, input) || (seqErr == nil && s.Sequence == seq) {
			return s.ID, nil
		}
	}
	return "", fmt.Errorf("stage not found in work: %q", input)
}

// resolveLineID resolves a budget line of the work by code or ID.
func resolveLineID(ctx context.Context, app *App, workID, input string) (string, error) {
	lines, err := app.LineRepo.ListByWork(ctx, workID)
	if err != nil {
		return "", err
	}
	for _, l := range lines {
		if l.ID == input || l.Code == input {
			return l.ID, nil
		}
	}
	return "", fmt.Errorf("line not found in work: %q", input)
}

func resolveStageIDs(ctx context.Context, app *App, workID string, inputs []string) ([]string, error) {
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		id, err := resolveStageID(ctx, app, workID, in)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func resolveLineIDs(ctx context.Context, app *App, workID string, inputs []string) ([]string, error) {
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		id, err := resolveLineID(ctx, app, workID, in)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// resolveBudgetID returns the explicit budget or the newest one of the work.
func resolveBudgetID(ctx context.Context, app *App, workID, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	budgets, err := app.BudgetRepo.ListByWork(ctx, workID)
	if err != nil {
		return "", err
	}
	if len(budgets) == 0 {
		return "", fmt.Errorf("work has no budget")
	}
	return budgets[len(budgets)-1].ID, nil
}

// parseDate parses YYYY-MM-DD, falling back to today when empty.
func parseDate(input string, now time.Time) (time.Time, error) {
	if input == "" {
		return domain.DateOnly(now), nil
	}
	d, err := time.Parse(dateLayout, input)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", input, err)
	}
	return d, nil
}

// addScopeFlags registers the repeatable --stage and --line selectors.
func addScopeFlags(fs *pflag.FlagSet, stages, lines *[]string) {
	fs.StringSliceVar(stages, "stage", nil, "Stage to include (sequence, name or ID); repeatable")
	fs.StringSliceVar(lines, "line", nil, "Line to include (code or ID); repeatable")
}
