package app

import (
	"context"

	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/finance"
)

type ApplyProgressUseCase interface {
	Submit(ctx context.Context, req SubmitProgressRequest) (*ProgressResult, error)
}

type CancelProgressUseCase interface {
	Cancel(ctx context.Context, actor domain.Actor, eventID string) (*ProgressResult, error)
}

type RestoreProgressUseCase interface {
	Restore(ctx context.Context, actor domain.Actor, eventID string) (*ProgressResult, error)
}

type RecomputeHierarchyUseCase interface {
	RecomputeHierarchy(ctx context.Context, workID string, stageIDs, lineIDs []string) (*RecomputeResult, error)
}

type RealTotalsUseCase interface {
	GetRealTotals(ctx context.Context, workID string, groupBy finance.GroupBy) (map[string]float64, error)
}

type RebuildAlertsUseCase interface {
	Rebuild(ctx context.Context, workID string) (*RebuildResult, error)
}

type StatusUseCase interface {
	GetStatus(ctx context.Context, req StatusRequest) (*StatusResponse, error)
}

type ImportWorkUseCase interface {
	Import(ctx context.Context, actor domain.Actor, path string) (*ImportResult, error)
}
