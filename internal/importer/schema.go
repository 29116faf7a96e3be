package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WorkSchema is the top-level YAML structure for a work import.
type WorkSchema struct {
	Work   WorkImport    `yaml:"work" validate:"required"`
	Stages []StageImport `yaml:"stages" validate:"dive"`
	Budget *BudgetImport `yaml:"budget,omitempty" validate:"omitempty"`
	Costs  []CostImport  `yaml:"costs,omitempty" validate:"dive"`
}

// WorkImport defines the work-level fields in the import file.
type WorkImport struct {
	ShortID              string  `yaml:"short_id" validate:"required"`
	Name                 string  `yaml:"name" validate:"required,max=200"`
	State                string  `yaml:"state,omitempty" validate:"omitempty,oneof=draft planning running paused done"`
	CostSource           string  `yaml:"cost_source,omitempty" validate:"omitempty,oneof=internal accounting"`
	CutoverDate          string  `yaml:"cutover_date,omitempty" validate:"required_if=CostSource accounting"`
	FinancialTolerance   float64 `yaml:"financial_tolerance,omitempty" validate:"gte=0"`
	StaleDays            int     `yaml:"stale_days,omitempty" validate:"gte=0"`
	ClientAdvancePlanned float64 `yaml:"client_advance_planned,omitempty" validate:"gte=0"`
}

// StageImport defines a stage in the import file.
type StageImport struct {
	Ref       string `yaml:"ref" validate:"required"`
	Name      string `yaml:"name" validate:"required,max=200"`
	Sequence  int    `yaml:"sequence,omitempty"`
	State     string `yaml:"state,omitempty" validate:"omitempty,oneof=planning in_progress to_approve done"`
	StartDate string `yaml:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Deadline  string `yaml:"deadline,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// BudgetImport defines the work's budget with its chapters and lines.
type BudgetImport struct {
	Name      string          `yaml:"name" validate:"required"`
	Validated bool            `yaml:"validated,omitempty"`
	Chapters  []ChapterImport `yaml:"chapters" validate:"required,min=1,dive"`
	Lines     []LineImport    `yaml:"lines" validate:"dive"`
}

// ChapterImport defines a budget chapter.
type ChapterImport struct {
	Ref           string  `yaml:"ref" validate:"required"`
	Code          string  `yaml:"code" validate:"required"`
	Name          string  `yaml:"name" validate:"required"`
	AdvanceAmount float64 `yaml:"advance_amount,omitempty" validate:"gte=0"`
}

// LineImport defines a budget line.
type LineImport struct {
	Ref         string  `yaml:"ref" validate:"required"`
	ChapterRef  string  `yaml:"chapter_ref" validate:"required"`
	StageRef    string  `yaml:"stage_ref,omitempty"`
	Code        string  `yaml:"code" validate:"required"`
	Name        string  `yaml:"name" validate:"required"`
	CostType    string  `yaml:"cost_type,omitempty" validate:"omitempty,oneof=budgeted additional"`
	Amount      float64 `yaml:"amount" validate:"gte=0"`
	Distributed float64 `yaml:"distributed,omitempty" validate:"gte=0"`
}

// CostImport defines a real cost entry.
type CostImport struct {
	LineRef     string  `yaml:"line_ref,omitempty"`
	StageRef    string  `yaml:"stage_ref,omitempty"`
	Date        string  `yaml:"date" validate:"required,datetime=2006-01-02"`
	Amount      float64 `yaml:"amount" validate:"gte=0"`
	Description string  `yaml:"description,omitempty" validate:"max=500"`
	Source      string  `yaml:"source,omitempty" validate:"omitempty,oneof=internal accounting"`
}

// LoadWorkSchema reads and parses a work import YAML file.
func LoadWorkSchema(path string) (*WorkSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseWorkSchema(data)
}

// ParseWorkSchema parses a work import document.
func ParseWorkSchema(data []byte) (*WorkSchema, error) {
	var schema WorkSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
