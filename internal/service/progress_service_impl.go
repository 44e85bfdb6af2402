package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/tierboard/internal/app"
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/period"
	"github.com/alexanderramin/tierboard/internal/tracker"
)

type progressService struct {
	client   tracker.Client
	calendar period.Calendar
	observer UseCaseObserver
}

func NewProgressService(client tracker.Client, calendar period.Calendar, observers ...UseCaseObserver) ProgressService {
	return &progressService{
		client:   client,
		calendar: calendar,
		observer: useCaseObserverOrNoop(observers),
	}
}

// SetPeriodProgress records progress expressed relative to a period by
// mapping it back onto the item's yearly done ratio. Quarter edits are only
// accepted while the period's calendar window is open.
func (s *progressService) SetPeriodProgress(ctx context.Context, req app.SetProgressRequest) (resp *app.SetProgressResponse, err error) {
	startedAt := time.Now()
	attrs := map[string]any{
		"item_id": req.ItemID,
		"period":  string(req.Period),
		"value":   req.PeriodValue,
	}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "set-period-progress",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    attrs,
		})
	}()

	if _, ok := period.RangeOf(req.Period); !ok {
		return nil, &app.ProgressError{
			Code:    app.ProgressErrInvalidPeriod,
			Message: fmt.Sprintf("unknown period %q", req.Period),
		}
	}
	if req.PeriodValue < 0 || req.PeriodValue > 100 {
		return nil, &app.ProgressError{
			Code:    app.ProgressErrInvalidValue,
			Message: fmt.Sprintf("period value must be within 0..100, got %d", req.PeriodValue),
		}
	}

	now := time.Now()
	if req.Now != nil {
		now = *req.Now
	}
	if !req.IgnoreWindow && !s.calendar.Active(req.Period, now) {
		start, end := s.calendar.Window(req.Period, s.calendar.FiscalYear(now))
		return nil, &app.ProgressError{
			Code: app.ProgressErrPeriodClosed,
			Message: fmt.Sprintf("%s is open from %s to %s",
				req.Period, start.Format(time.DateOnly), end.Format(time.DateOnly)),
		}
	}

	var item *domain.Item
	item, err = s.client.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("loading item %d: %w", req.ItemID, err)
	}

	if req.StatusID != nil && !statusAllowed(item, *req.StatusID) {
		return nil, &app.ProgressError{
			Code:    app.ProgressErrInvalidStatus,
			Message: fmt.Sprintf("status %d is not available for item %d", *req.StatusID, req.ItemID),
		}
	}

	ratio := period.MapFrom(req.Period, req.PeriodValue)
	upd := tracker.ItemUpdate{DoneRatio: &ratio, StatusID: req.StatusID}
	if req.Notes != "" {
		notes := req.Notes
		upd.Notes = &notes
	}
	if err = s.client.UpdateItem(ctx, req.ItemID, upd); err != nil {
		return nil, err
	}
	attrs["done_ratio"] = ratio

	return &app.SetProgressResponse{
		ItemID:        req.ItemID,
		Period:        req.Period,
		PeriodValue:   req.PeriodValue,
		PreviousRatio: domain.ClampRatio(item.DoneRatio),
		DoneRatio:     ratio,
		StatusID:      req.StatusID,
	}, nil
}

func statusAllowed(item *domain.Item, statusID int) bool {
	if item.Status != nil && item.Status.ID == statusID {
		return true
	}
	for _, st := range item.AllowedStatuses {
		if st.ID == statusID {
			return true
		}
	}
	return false
}
