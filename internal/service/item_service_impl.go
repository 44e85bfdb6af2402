package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/tierboard/internal/app"
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/fields"
	"github.com/alexanderramin/tierboard/internal/tracker"
)

type itemService struct {
	client   tracker.Client
	schema   fields.Schema
	observer UseCaseObserver
}

func NewItemService(client tracker.Client, schema fields.Schema, observers ...UseCaseObserver) ItemService {
	return &itemService{
		client:   client,
		schema:   schema,
		observer: useCaseObserverOrNoop(observers),
	}
}

// CreateItem creates an item with its recognized custom fields written by
// schema field id. An item created under a parent inherits the parent's
// project when none is given.
func (s *itemService) CreateItem(ctx context.Context, req app.CreateItemRequest) (resp *app.CreateItemResponse, err error) {
	startedAt := time.Now()
	attrs := map[string]any{
		"subject":   req.Subject,
		"parent_id": req.ParentID,
	}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "create-item",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    attrs,
		})
	}()

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, &app.ProgressError{Code: app.ProgressErrInvalidValue, Message: "subject is required"}
	}
	if req.DoneRatio < 0 || req.DoneRatio > 100 {
		return nil, &app.ProgressError{
			Code:    app.ProgressErrInvalidValue,
			Message: fmt.Sprintf("done ratio must be within 0..100, got %d", req.DoneRatio),
		}
	}

	var assignments []tracker.FieldAssignment
	assignments, err = s.fieldAssignments(req)
	if err != nil {
		return nil, err
	}

	projectID := req.ProjectID
	if projectID == 0 && req.ParentID != 0 {
		var parent *domain.Item
		parent, err = s.client.GetItem(ctx, req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("loading parent %d: %w", req.ParentID, err)
		}
		projectID = parent.Project.ID
	}
	if projectID == 0 {
		return nil, &app.ProgressError{Code: app.ProgressErrInvalidValue, Message: "a project or parent is required"}
	}

	var created *domain.Item
	created, err = s.client.CreateItem(ctx, tracker.NewItem{
		ProjectID:    projectID,
		ParentID:     req.ParentID,
		Subject:      subject,
		AssignedToID: req.AssigneeID,
		DoneRatio:    req.DoneRatio,
		CustomFields: assignments,
	})
	if err != nil {
		return nil, err
	}
	attrs["item_id"] = created.ID
	return &app.CreateItemResponse{Item: created}, nil
}

func (s *itemService) fieldAssignments(req app.CreateItemRequest) ([]tracker.FieldAssignment, error) {
	values := map[fields.Tag]string{
		fields.TagWeight:     req.Weight,
		fields.TagDepartment: req.Department,
		fields.TagGoal:       req.Goal,
		fields.TagUnit:       req.Unit,
	}
	for p, v := range req.Targets {
		tag, ok := fields.QuarterTag(p)
		if !ok {
			return nil, &app.ProgressError{
				Code:    app.ProgressErrInvalidPeriod,
				Message: fmt.Sprintf("targets are set per quarter, got %s", p),
			}
		}
		values[tag] = v
	}

	var out []tracker.FieldAssignment
	for tag, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id := s.schema.ID(tag)
		if id == 0 {
			return nil, &app.ProgressError{
				Code:    app.ProgressErrFieldUnmapped,
				Message: fmt.Sprintf("field %q has no id in the schema", s.schema.Name(tag)),
			}
		}
		out = append(out, tracker.FieldAssignment{ID: id, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
