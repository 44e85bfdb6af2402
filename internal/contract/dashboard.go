package contract

import "github.com/alexanderramin/tierboard/internal/app"

type DashboardRequest = app.DashboardRequest

func NewDashboardRequest(groupName string) DashboardRequest {
	return app.NewDashboardRequest(groupName)
}

type SubView = app.SubView

type ChildView = app.ChildView

type MainView = app.MainView

type TierCounts = app.TierCounts

type DashboardResponse = app.DashboardResponse

type DashboardErrorCode = app.DashboardErrorCode

const (
	DashboardErrInvalidRequest DashboardErrorCode = app.DashboardErrInvalidRequest
	DashboardErrGroupNotFound  DashboardErrorCode = app.DashboardErrGroupNotFound
)

type DashboardError = app.DashboardError
