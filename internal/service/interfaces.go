package service

import (
	"context"

	"github.com/alexanderramin/tierboard/internal/contract"
)

type DashboardService interface {
	Load(ctx context.Context, req contract.DashboardRequest) (*contract.DashboardResponse, error)
}

type ProgressService interface {
	SetPeriodProgress(ctx context.Context, req contract.SetProgressRequest) (*contract.SetProgressResponse, error)
}

type ItemService interface {
	CreateItem(ctx context.Context, req contract.CreateItemRequest) (*contract.CreateItemResponse, error)
}
