package app

import (
	"time"

	"github.com/alexanderramin/tierboard/internal/domain"
)

type SetProgressRequest struct {
	Now         *time.Time
	ItemID      int
	Period      domain.PeriodTag
	PeriodValue int
	StatusID    *int
	Notes       string
	// IgnoreWindow skips the calendar gate, for back-filling closed periods.
	IgnoreWindow bool
}

func NewSetProgressRequest(itemID int, period domain.PeriodTag, value int) SetProgressRequest {
	return SetProgressRequest{
		ItemID:      itemID,
		Period:      period,
		PeriodValue: value,
	}
}

type SetProgressResponse struct {
	ItemID        int
	Period        domain.PeriodTag
	PeriodValue   int
	PreviousRatio int
	DoneRatio     int
	StatusID      *int
}

type CreateItemRequest struct {
	ProjectID  int
	ParentID   int
	Subject    string
	AssigneeID int
	DoneRatio  int
	Weight     string
	Department string
	Goal       string
	Unit       string
	Targets    map[domain.PeriodTag]string
}

type CreateItemResponse struct {
	Item *domain.Item
}

type ProgressErrorCode string

const (
	ProgressErrInvalidValue  ProgressErrorCode = "INVALID_VALUE"
	ProgressErrInvalidPeriod ProgressErrorCode = "INVALID_PERIOD"
	ProgressErrPeriodClosed  ProgressErrorCode = "PERIOD_CLOSED"
	ProgressErrInvalidStatus ProgressErrorCode = "INVALID_STATUS"
	ProgressErrFieldUnmapped ProgressErrorCode = "FIELD_UNMAPPED"
)

type ProgressError struct {
	Code    ProgressErrorCode
	Message string
}

func (e *ProgressError) Error() string {
	return string(e.Code) + ": " + e.Message
}
