package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMinimalSchema() *WorkSchema {
	return &WorkSchema{
		Work: WorkImport{ShortID: "CASA01", Name: "Casa Lopez"},
		Stages: []StageImport{
			{Ref: "s1", Name: "Cimentacion"},
		},
		Budget: &BudgetImport{
			Name:     "Base",
			Chapters: []ChapterImport{{Ref: "c1", Code: "01", Name: "Obra gris"}},
			Lines: []LineImport{
				{Ref: "l1", ChapterRef: "c1", StageRef: "s1", Code: "01.01", Name: "Excavacion", Amount: 1000},
			},
		},
	}
}

func errorsContain(t *testing.T, errs []error, want string) {
	t.Helper()
	for _, e := range errs {
		if strings.Contains(e.Error(), want) {
			return
		}
	}
	t.Errorf("expected an error containing %q, got %v", want, errs)
}

func TestValidateWorkSchema_ValidMinimal(t *testing.T) {
	assert.Empty(t, ValidateWorkSchema(validMinimalSchema()))
}

func TestValidateWorkSchema_ValidFull(t *testing.T) {
	doc := `
work:
  short_id: casa01
  name: Casa Lopez
  state: running
  cost_source: accounting
  cutover_date: 2026-06-01
  financial_tolerance: 3
  stale_days: 10
  client_advance_planned: 5000
stages:
  - ref: s1
    name: Cimentacion
    state: in_progress
    start_date: 2026-05-01
    deadline: 2026-06-30
  - ref: s2
    name: Estructura
budget:
  name: Base
  validated: true
  chapters:
    - ref: c1
      code: "01"
      name: Obra gris
      advance_amount: 1200
  lines:
    - ref: l1
      chapter_ref: c1
      stage_ref: s1
      code: "01.01"
      name: Excavacion
      amount: 1000
      distributed: 400
    - ref: l2
      chapter_ref: c1
      stage_ref: s2
      code: "01.02"
      name: Columnas
      cost_type: additional
      amount: 3000
costs:
  - line_ref: l1
    date: 2026-05-10
    amount: 300
    description: Renta de retroexcavadora
`
	schema, err := ParseWorkSchema([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, ValidateWorkSchema(schema))
	assert.Equal(t, "accounting", schema.Work.CostSource)
	assert.Len(t, schema.Budget.Lines, 2)
}

func TestValidateWorkSchema_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *WorkSchema)
		wantMsg string
	}{
		{"missing short_id", func(s *WorkSchema) { s.Work.ShortID = "" }, "work.short_id: is required"},
		{"missing name", func(s *WorkSchema) { s.Work.Name = "" }, "work.name: is required"},
		{"missing stage ref", func(s *WorkSchema) { s.Stages[0].Ref = "" }, "stages[0].ref: is required"},
		{"missing stage name", func(s *WorkSchema) { s.Stages[0].Name = "" }, "stages[0].name: is required"},
		{"missing budget name", func(s *WorkSchema) { s.Budget.Name = "" }, "budget.name: is required"},
		{"no chapters", func(s *WorkSchema) { s.Budget.Chapters = nil }, "budget.chapters: is required"},
		{"missing line code", func(s *WorkSchema) { s.Budget.Lines[0].Code = "" }, "budget.lines[0].code: is required"},
		{"missing cost date", func(s *WorkSchema) { s.Costs = []CostImport{{Amount: 10}} }, "costs[0].date: is required"},
		{"accounting without cutover", func(s *WorkSchema) { s.Work.CostSource = "accounting" }, "work.cutover_date: is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validMinimalSchema()
			tt.mutate(s)
			errorsContain(t, ValidateWorkSchema(s), tt.wantMsg)
		})
	}
}

func TestValidateWorkSchema_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *WorkSchema)
		wantMsg string
	}{
		{"bad short id", func(s *WorkSchema) { s.Work.ShortID = "X1" }, "work.short_id"},
		{"bad work state", func(s *WorkSchema) { s.Work.State = "archived" }, "work.state: invalid value"},
		{"bad cost source", func(s *WorkSchema) { s.Work.CostSource = "bank" }, "work.cost_source: invalid value"},
		{"bad cutover", func(s *WorkSchema) {
			s.Work.CostSource = "accounting"
			s.Work.CutoverDate = "01/06/2026"
		}, "work.cutover_date: invalid date format"},
		{"bad stage state", func(s *WorkSchema) { s.Stages[0].State = "paused" }, "stages[0].state: invalid value"},
		{"bad start date", func(s *WorkSchema) { s.Stages[0].StartDate = "2026-13-01" }, "stages[0].start_date: invalid date format"},
		{"deadline before start", func(s *WorkSchema) {
			s.Stages[0].StartDate = "2026-06-01"
			s.Stages[0].Deadline = "2026-05-01"
		}, "must not be before start_date"},
		{"bad cost type", func(s *WorkSchema) { s.Budget.Lines[0].CostType = "extra" }, "budget.lines[0].cost_type: invalid value"},
		{"negative amount", func(s *WorkSchema) { s.Budget.Lines[0].Amount = -1 }, "budget.lines[0].amount: must be at least 0"},
		{"distributed over amount", func(s *WorkSchema) { s.Budget.Lines[0].Distributed = 1500 }, "must not exceed amount"},
		{"negative cost", func(s *WorkSchema) {
			s.Costs = []CostImport{{Date: "2026-05-01", Amount: -5}}
		}, "costs[0].amount: must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validMinimalSchema()
			tt.mutate(s)
			errorsContain(t, ValidateWorkSchema(s), tt.wantMsg)
		})
	}
}

func TestValidateWorkSchema_References(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *WorkSchema)
		wantMsg string
	}{
		{"duplicate stage ref", func(s *WorkSchema) {
			s.Stages = append(s.Stages, StageImport{Ref: "s1", Name: "Again"})
		}, `stages[1].ref: duplicate ref "s1"`},
		{"duplicate chapter ref", func(s *WorkSchema) {
			s.Budget.Chapters = append(s.Budget.Chapters, ChapterImport{Ref: "c1", Code: "02", Name: "Dup"})
		}, `budget.chapters[1].ref: duplicate ref "c1"`},
		{"unknown chapter", func(s *WorkSchema) { s.Budget.Lines[0].ChapterRef = "c9" }, `chapter_ref: ref "c9" not found`},
		{"unknown line stage", func(s *WorkSchema) { s.Budget.Lines[0].StageRef = "s9" }, `stage_ref: ref "s9" not found`},
		{"unknown cost line", func(s *WorkSchema) {
			s.Costs = []CostImport{{LineRef: "l9", Date: "2026-05-01", Amount: 5}}
		}, `costs[0].line_ref: ref "l9" not found`},
		{"unknown cost stage", func(s *WorkSchema) {
			s.Costs = []CostImport{{StageRef: "s9", Date: "2026-05-01", Amount: 5}}
		}, `costs[0].stage_ref: ref "s9" not found`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validMinimalSchema()
			tt.mutate(s)
			errorsContain(t, ValidateWorkSchema(s), tt.wantMsg)
		})
	}
}

func TestValidateWorkSchema_ValidatedBudgetNeedsPositiveLines(t *testing.T) {
	s := validMinimalSchema()
	s.Budget.Validated = true
	s.Budget.Lines[0].Amount = 0
	errorsContain(t, ValidateWorkSchema(s), "greater than zero in a validated budget")

	s.Budget.Lines = nil
	errorsContain(t, ValidateWorkSchema(s), "needs at least one line")
}

func TestValidateWorkSchema_CollectsAllErrors(t *testing.T) {
	s := validMinimalSchema()
	s.Work.Name = ""
	s.Stages[0].Name = ""
	s.Budget.Lines[0].ChapterRef = "nope"

	assert.GreaterOrEqual(t, len(ValidateWorkSchema(s)), 3)
}

func TestParseWorkSchema_RejectsMalformedYAML(t *testing.T) {
	_, err := ParseWorkSchema([]byte("work: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing import file")
}
