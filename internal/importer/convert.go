package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/Moiss/building/internal/domain"
	"github.com/google/uuid"
)

// GeneratedWork holds the domain objects produced from a schema, in
// insertion order.
type GeneratedWork struct {
	Work     *domain.Work
	Stages   []*domain.Stage
	Budget   *domain.Budget
	Chapters []*domain.Chapter
	Lines    []*domain.BudgetLine
	Costs    []*domain.RealCostEntry
}

// Convert transforms a validated WorkSchema into domain objects ready for
// persistence. Call ValidateWorkSchema first; Convert assumes the schema is valid.
func Convert(schema *WorkSchema, tenantID string, now time.Time) (*GeneratedWork, error) {
	now = now.UTC()

	cutover, err := parseOptionalDate(schema.Work.CutoverDate)
	if err != nil {
		return nil, fmt.Errorf("parsing cutover_date: %w", err)
	}

	work := &domain.Work{
		ID:                   uuid.New().String(),
		TenantID:             tenantID,
		ShortID:              strings.ToUpper(schema.Work.ShortID),
		Name:                 schema.Work.Name,
		State:                domain.WorkState(orDefault(schema.Work.State, string(domain.WorkDraft))),
		CostSource:           domain.CostSource(orDefault(schema.Work.CostSource, string(domain.CostSourceInternal))),
		CutoverDate:          cutover,
		FinancialTolerance:   schema.Work.FinancialTolerance,
		StaleDays:            schema.Work.StaleDays,
		ClientAdvancePlanned: schema.Work.ClientAdvancePlanned,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	out := &GeneratedWork{Work: work}

	stageIDs := make(map[string]string) // ref -> UUID
	for i, s := range schema.Stages {
		start, err := parseOptionalDate(s.StartDate)
		if err != nil {
			return nil, fmt.Errorf("parsing stages[%d].start_date: %w", i, err)
		}
		deadline, err := parseOptionalDate(s.Deadline)
		if err != nil {
			return nil, fmt.Errorf("parsing stages[%d].deadline: %w", i, err)
		}
		seq := s.Sequence
		if seq == 0 {
			seq = i + 1
		}
		stage := &domain.Stage{
			ID:           uuid.New().String(),
			WorkID:       work.ID,
			Name:         s.Name,
			Sequence:     seq,
			State:        domain.StageState(orDefault(s.State, string(domain.StagePlanning))),
			StartDate:    start,
			Deadline:     deadline,
			TrafficLight: domain.LightGreen,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		stageIDs[s.Ref] = stage.ID
		out.Stages = append(out.Stages, stage)
	}

	lineIDs := make(map[string]*domain.BudgetLine)
	if b := schema.Budget; b != nil {
		budget := &domain.Budget{
			ID:        uuid.New().String(),
			WorkID:    work.ID,
			Name:      b.Name,
			State:     domain.BudgetDraft,
			CreatedAt: now,
		}
		if b.Validated {
			budget.State = domain.BudgetValidated
			budget.VersionNo = 1
			budget.ValidatedAt = &now
		}
		out.Budget = budget

		chapterIDs := make(map[string]string)
		for i, c := range b.Chapters {
			chapter := &domain.Chapter{
				ID:            uuid.New().String(),
				BudgetID:      budget.ID,
				Code:          c.Code,
				Name:          c.Name,
				Sequence:      i + 1,
				AdvanceAmount: c.AdvanceAmount,
			}
			chapterIDs[c.Ref] = chapter.ID
			out.Chapters = append(out.Chapters, chapter)
		}

		for _, l := range b.Lines {
			chapterID, ok := chapterIDs[l.ChapterRef]
			if !ok {
				return nil, fmt.Errorf("chapter_ref %q not found for line %q", l.ChapterRef, l.Ref)
			}
			line := &domain.BudgetLine{
				ID:           uuid.New().String(),
				WorkID:       work.ID,
				BudgetID:     budget.ID,
				ChapterID:    chapterID,
				Code:         l.Code,
				Name:         l.Name,
				CostType:     domain.CostType(orDefault(l.CostType, string(domain.CostBudgeted))),
				Amount:       l.Amount,
				Distributed:  l.Distributed,
				TrafficLight: domain.LightGreen,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if l.StageRef != "" {
				stageID, ok := stageIDs[l.StageRef]
				if !ok {
					return nil, fmt.Errorf("stage_ref %q not found for line %q", l.StageRef, l.Ref)
				}
				line.StageID = &stageID
			}
			lineIDs[l.Ref] = line
			out.Lines = append(out.Lines, line)
		}
	}

	for i, c := range schema.Costs {
		date, err := time.Parse(dateLayout, c.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing costs[%d].date: %w", i, err)
		}
		entry := &domain.RealCostEntry{
			ID:          uuid.New().String(),
			WorkID:      work.ID,
			Date:        date,
			Amount:      c.Amount,
			Description: c.Description,
			Source:      domain.CostSource(orDefault(c.Source, string(domain.CostSourceInternal))),
			CreatedAt:   now,
		}
		if c.StageRef != "" {
			stageID, ok := stageIDs[c.StageRef]
			if !ok {
				return nil, fmt.Errorf("stage_ref %q not found for costs[%d]", c.StageRef, i)
			}
			entry.StageID = &stageID
		}
		if c.LineRef != "" {
			line, ok := lineIDs[c.LineRef]
			if !ok {
				return nil, fmt.Errorf("line_ref %q not found for costs[%d]", c.LineRef, i)
			}
			entry.LineID = &line.ID
			// The line's stage wins over an explicit stage_ref.
			if line.HasStage() {
				entry.StageID = line.StageID
			}
		}
		out.Costs = append(out.Costs, entry)
	}

	return out, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
