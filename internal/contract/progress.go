package contract

import (
	"github.com/alexanderramin/tierboard/internal/app"
	"github.com/alexanderramin/tierboard/internal/domain"
)

type SetProgressRequest = app.SetProgressRequest

func NewSetProgressRequest(itemID int, period domain.PeriodTag, value int) SetProgressRequest {
	return app.NewSetProgressRequest(itemID, period, value)
}

type SetProgressResponse = app.SetProgressResponse

type CreateItemRequest = app.CreateItemRequest

type CreateItemResponse = app.CreateItemResponse

type ProgressErrorCode = app.ProgressErrorCode

const (
	ProgressErrInvalidValue  ProgressErrorCode = app.ProgressErrInvalidValue
	ProgressErrInvalidPeriod ProgressErrorCode = app.ProgressErrInvalidPeriod
	ProgressErrPeriodClosed  ProgressErrorCode = app.ProgressErrPeriodClosed
	ProgressErrInvalidStatus ProgressErrorCode = app.ProgressErrInvalidStatus
	ProgressErrFieldUnmapped ProgressErrorCode = app.ProgressErrFieldUnmapped
)

type ProgressError = app.ProgressError
