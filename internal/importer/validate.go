package importer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Moiss/building/internal/domain"
	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateWorkSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateWorkSchema(schema *WorkSchema) []error {
	var errs []error

	errs = append(errs, validateTags(schema)...)
	errs = append(errs, validateWork(&schema.Work)...)

	stageRefs := make(map[string]bool)
	errs = append(errs, validateStages(schema.Stages, stageRefs)...)

	lineRefs := make(map[string]bool)
	if schema.Budget != nil {
		errs = append(errs, validateBudget(schema.Budget, stageRefs, lineRefs)...)
	}

	errs = append(errs, validateCosts(schema.Costs, stageRefs, lineRefs)...)

	return errs
}

// validateTags runs the struct tags and names each failure by its YAML path.
func validateTags(schema *WorkSchema) []error {
	err := structValidator.Struct(schema)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{err}
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		errs = append(errs, fmt.Errorf("%s: %s", path, tagMessage(fe)))
	}
	return errs
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("invalid value %q (allowed: %s)", fe.Value(), fe.Param())
	case "datetime":
		return fmt.Sprintf("invalid date format %q (expected YYYY-MM-DD)", fe.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "min":
		return fmt.Sprintf("needs at least %s entries", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}

func validateWork(w *WorkImport) []error {
	var errs []error

	if w.ShortID != "" {
		probe := domain.Work{ShortID: strings.ToUpper(w.ShortID)}
		if err := probe.ValidateShortID(); err != nil {
			errs = append(errs, fmt.Errorf("work.short_id: %q must be 3-6 letters followed by 2-4 digits", w.ShortID))
		}
	}
	if w.CutoverDate != "" {
		if _, err := time.Parse(dateLayout, w.CutoverDate); err != nil {
			errs = append(errs, fmt.Errorf("work.cutover_date: invalid date format %q (expected YYYY-MM-DD)", w.CutoverDate))
		}
	}
	return errs
}

func validateStages(stages []StageImport, stageRefs map[string]bool) []error {
	var errs []error

	for i, s := range stages {
		prefix := fmt.Sprintf("stages[%d]", i)

		if s.Ref != "" {
			if stageRefs[s.Ref] {
				errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, s.Ref))
			}
			stageRefs[s.Ref] = true
		}

		start, startErr := time.Parse(dateLayout, s.StartDate)
		deadline, deadlineErr := time.Parse(dateLayout, s.Deadline)
		if startErr == nil && deadlineErr == nil && deadline.Before(start) {
			errs = append(errs, fmt.Errorf("%s.deadline %q must not be before start_date %q", prefix, s.Deadline, s.StartDate))
		}
	}

	return errs
}

func validateBudget(b *BudgetImport, stageRefs, lineRefs map[string]bool) []error {
	var errs []error

	chapterRefs := make(map[string]bool)
	for i, c := range b.Chapters {
		if c.Ref == "" {
			continue
		}
		if chapterRefs[c.Ref] {
			errs = append(errs, fmt.Errorf("budget.chapters[%d].ref: duplicate ref %q", i, c.Ref))
		}
		chapterRefs[c.Ref] = true
	}

	for i, l := range b.Lines {
		prefix := fmt.Sprintf("budget.lines[%d]", i)

		if l.Ref != "" {
			if lineRefs[l.Ref] {
				errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, l.Ref))
			}
			lineRefs[l.Ref] = true
		}
		if l.ChapterRef != "" && !chapterRefs[l.ChapterRef] {
			errs = append(errs, fmt.Errorf("%s.chapter_ref: ref %q not found in chapters", prefix, l.ChapterRef))
		}
		if l.StageRef != "" && !stageRefs[l.StageRef] {
			errs = append(errs, fmt.Errorf("%s.stage_ref: ref %q not found in stages", prefix, l.StageRef))
		}
		if l.Distributed > l.Amount {
			errs = append(errs, fmt.Errorf("%s.distributed (%.2f) must not exceed amount (%.2f)", prefix, l.Distributed, l.Amount))
		}
		if b.Validated && l.Amount <= 0 {
			errs = append(errs, fmt.Errorf("%s.amount must be greater than zero in a validated budget", prefix))
		}
	}

	if b.Validated && len(b.Lines) == 0 {
		errs = append(errs, fmt.Errorf("budget: a validated budget needs at least one line"))
	}

	return errs
}

func validateCosts(costs []CostImport, stageRefs, lineRefs map[string]bool) []error {
	var errs []error

	for i, c := range costs {
		prefix := fmt.Sprintf("costs[%d]", i)

		if c.LineRef != "" && !lineRefs[c.LineRef] {
			errs = append(errs, fmt.Errorf("%s.line_ref: ref %q not found in budget lines", prefix, c.LineRef))
		}
		if c.StageRef != "" && !stageRefs[c.StageRef] {
			errs = append(errs, fmt.Errorf("%s.stage_ref: ref %q not found in stages", prefix, c.StageRef))
		}
	}

	return errs
}
