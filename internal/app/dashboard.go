package app

import (
	"time"

	"github.com/alexanderramin/tierboard/internal/cache"
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/hierarchy"
	"github.com/alexanderramin/tierboard/internal/performance"
)

type DashboardRequest struct {
	Now            *time.Time
	GroupName      string
	UserIDs        []int
	ProjectID      int
	Period         domain.PeriodTag
	IncludeWatched bool
	IncludeClosed  bool
}

func NewDashboardRequest(groupName string) DashboardRequest {
	return DashboardRequest{
		GroupName:      groupName,
		Period:         domain.PeriodYearly,
		IncludeWatched: true,
		IncludeClosed:  true,
	}
}

type SubView struct {
	ID        int
	Subject   string
	DoneRatio int
	State     domain.ProgressState
}

type ChildView struct {
	ID             int
	Subject        string
	Assignee       string
	DoneRatio      int
	MappedProgress int
	Weight         string
	State          domain.ProgressState
	Subs           []SubView
}

type MainView struct {
	ID          int
	Subject     string
	Performance int
	Children    []ChildView
}

type TierCounts struct {
	Main     int
	Child    int
	Sub      int
	Excluded int
}

type DashboardResponse struct {
	LoadID      string
	GeneratedAt time.Time
	Period      domain.PeriodTag
	Members     []domain.User
	Tree        []MainView
	Counts      TierCounts
	Summary     performance.Summary
	Series      []performance.PeriodPoint
	Progress    []performance.ProgressRow
	Broken      []hierarchy.BrokenLink
	Cache       cache.Stats
	Warnings    []string
}

type DashboardErrorCode string

const (
	DashboardErrInvalidRequest DashboardErrorCode = "INVALID_REQUEST"
	DashboardErrGroupNotFound  DashboardErrorCode = "GROUP_NOT_FOUND"
)

type DashboardError struct {
	Code    DashboardErrorCode
	Message string
}

func (e *DashboardError) Error() string {
	return string(e.Code) + ": " + e.Message
}
