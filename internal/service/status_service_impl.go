package service

import (
	"context"
	"sort"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
)

type statusService struct {
	uow db.UnitOfWork
}

func NewStatusService(uow db.UnitOfWork) StatusService {
	return &statusService{uow: uow}
}

// GetStatus assembles the dashboard of one work from stored snapshots.
func (s *statusService) GetStatus(ctx context.Context, req app.StatusRequest) (resp *app.StatusResponse, err error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		st, err := loadWorkState(ctx, r, req.WorkID)
		if err != nil {
			return err
		}
		alerts, err := r.alerts.ListByWork(ctx, req.WorkID, req.ActiveOnly)
		if err != nil {
			return err
		}

		sortStages(st.stages)
		resp = &app.StatusResponse{
			Work:    st.work,
			Stages:  st.stages,
			Lines:   st.lines,
			Alerts:  alerts,
			Finance: *summaryOf(st),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func sortStages(stages []*domain.Stage) {
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].Sequence < stages[j].Sequence
	})
}
