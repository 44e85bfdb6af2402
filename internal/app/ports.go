package app

import (
	"context"
)

// DashboardUseCase loads one reconciliation pass for a team.
type DashboardUseCase interface {
	Load(ctx context.Context, req DashboardRequest) (*DashboardResponse, error)
}

// SetProgressUseCase records period-relative progress on one item.
type SetProgressUseCase interface {
	SetPeriodProgress(ctx context.Context, req SetProgressRequest) (*SetProgressResponse, error)
}

// CreateItemUseCase creates an item with its recognized fields.
type CreateItemUseCase interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*CreateItemResponse, error)
}
