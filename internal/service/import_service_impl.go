package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/importer"
	apperrors "github.com/Moiss/building/internal/pkg/errors"
)

type importService struct {
	uow      db.UnitOfWork
	deps     Deps
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, deps Deps, observers ...UseCaseObserver) ImportService {
	return &importService{
		uow:      uow,
		deps:     deps.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) Import(ctx context.Context, actor domain.Actor, path string) (*app.ImportResult, error) {
	schema, err := importer.LoadWorkSchema(path)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportFromSchema(ctx, actor, schema)
}

func (s *importService) ImportFromSchema(ctx context.Context, actor domain.Actor, schema *importer.WorkSchema) (res *app.ImportResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"short_id": schema.Work.ShortID}
	defer observe(ctx, s.observer, "import.work", startedAt, fields, &err)

	if errs := importer.ValidateWorkSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	now := s.deps.now(nil)
	generated, err := importer.Convert(schema, actor.TenantID, now)
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		if err := r.works.Create(ctx, generated.Work); err != nil {
			return fmt.Errorf("creating work: %w", err)
		}
		for _, st := range generated.Stages {
			if err := r.stages.Create(ctx, st); err != nil {
				return fmt.Errorf("creating stage %q: %w", st.Name, err)
			}
		}
		if generated.Budget != nil {
			if err := r.budgets.Create(ctx, generated.Budget); err != nil {
				return fmt.Errorf("creating budget: %w", err)
			}
		}
		for _, c := range generated.Chapters {
			if err := r.budgets.CreateChapter(ctx, c); err != nil {
				return fmt.Errorf("creating chapter %q: %w", c.Code, err)
			}
		}
		for _, l := range generated.Lines {
			if err := r.lines.Create(ctx, l); err != nil {
				return fmt.Errorf("creating line %q: %w", l.Code, err)
			}
		}
		for _, c := range generated.Costs {
			if err := r.costs.Create(ctx, c); err != nil {
				return fmt.Errorf("creating cost entry: %w", err)
			}
		}

		st, err := s.deps.cascade(ctx, tx, scope{workID: generated.Work.ID}, now)
		if err != nil {
			return err
		}
		res = &app.ImportResult{
			Work:         st.work,
			StageCount:   len(generated.Stages),
			ChapterCount: len(generated.Chapters),
			LineCount:    len(generated.Lines),
			CostCount:    len(generated.Costs),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["work_id"] = res.Work.ID
	return res, nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	fieldErrors := make([]apperrors.FieldError, 0, len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
		fieldErrors = append(fieldErrors, apperrors.FieldError{Code: apperrors.CodeValidationFailed, Message: e.Error()})
	}
	return apperrors.Validation(apperrors.CodeValidationFailed, msg).WithFieldErrors(fieldErrors)
}
