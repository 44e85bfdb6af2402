package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/tierboard/internal/app"
	"github.com/alexanderramin/tierboard/internal/cache"
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/fields"
	"github.com/alexanderramin/tierboard/internal/hierarchy"
	"github.com/alexanderramin/tierboard/internal/performance"
	"github.com/alexanderramin/tierboard/internal/period"
	"github.com/alexanderramin/tierboard/internal/tracker"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DashboardOptions tunes a dashboard service. Zero values pick defaults.
type DashboardOptions struct {
	Concurrency int
	Logger      *slog.Logger
	Metrics     *Metrics
}

type dashboardService struct {
	client      tracker.Client
	schema      fields.Schema
	concurrency int
	logger      *slog.Logger
	metrics     *Metrics
	observer    UseCaseObserver

	// generation is bumped by every Load; a load only returns its result
	// while it is still the latest one.
	generation atomic.Uint64
}

func NewDashboardService(
	client tracker.Client,
	schema fields.Schema,
	opts DashboardOptions,
	observers ...UseCaseObserver,
) DashboardService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	return &dashboardService{
		client:      client,
		schema:      schema,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		observer:    useCaseObserverOrNoop(observers),
	}
}

// listing is one branch of the member fan-out.
type listing struct {
	label string
	query tracker.ListQuery
}

func (s *dashboardService) Load(ctx context.Context, req app.DashboardRequest) (resp *app.DashboardResponse, err error) {
	startedAt := time.Now()
	gen := s.generation.Add(1)
	loadID := uuid.NewString()
	attrs := map[string]any{
		"group":  req.GroupName,
		"period": string(req.Period),
	}
	defer func() {
		result := "ok"
		switch {
		case errors.Is(err, ErrSuperseded):
			result = "superseded"
		case err != nil:
			result = "error"
		}
		s.metrics.observeLoad(result, time.Since(startedAt))
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "dashboard-load",
			LoadID:    loadID,
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    attrs,
		})
	}()

	if err = validateDashboardRequest(req); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if req.Now != nil {
		now = *req.Now
	}
	logger := s.logger.With("load_id", loadID)

	var warnings warningList

	members, err := s.resolveMembers(ctx, req, logger, &warnings)
	if err != nil {
		return nil, err
	}
	attrs["members"] = len(members)

	items, err := s.fanOut(ctx, planListings(req, members), logger, &warnings)
	if err != nil {
		return nil, err
	}
	attrs["listed"] = len(items)

	itemCache := cache.New[int, *domain.Item]()
	builder := hierarchy.NewBuilder(itemCache, s.client.GetItem, logger, s.concurrency)
	tree, err := builder.Build(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("building hierarchy: %w", err)
	}

	if s.generation.Load() != gen {
		logger.InfoContext(ctx, "dashboard_load_superseded")
		return nil, ErrSuperseded
	}

	for _, b := range tree.Broken {
		warnings.add(fmt.Sprintf("item #%d dropped: parent #%d %s", b.ItemID, b.ParentID, b.Reason))
	}
	stats := itemCache.Stats()
	s.metrics.observeCache(stats)
	s.metrics.observeBroken(tree.Broken)

	children := tree.Children()
	resp = &app.DashboardResponse{
		LoadID:      loadID,
		GeneratedAt: now,
		Period:      req.Period,
		Members:     members,
		Tree:        buildTreeViews(tree, req.Period, s.schema),
		Counts: app.TierCounts{
			Main:     len(tree.Mains),
			Child:    tree.Count(domain.TierChild),
			Sub:      tree.Count(domain.TierSub),
			Excluded: tree.Count(domain.TierExcluded),
		},
		Summary:  performance.Report(tree, members, req.Period, s.schema),
		Series:   performance.PeriodSeries(children, s.schema),
		Progress: performance.ProgressRows(children, s.schema),
		Broken:   tree.Broken,
		Cache:    stats,
		Warnings: warnings.list(),
	}
	attrs["mains"] = resp.Counts.Main
	attrs["broken"] = len(tree.Broken)
	attrs["cache_hits"] = stats.Hits
	attrs["cache_fetches"] = stats.Fetches
	return resp, nil
}

func validateDashboardRequest(req app.DashboardRequest) error {
	if _, ok := period.RangeOf(req.Period); !ok {
		return &app.DashboardError{
			Code:    app.DashboardErrInvalidRequest,
			Message: fmt.Sprintf("unknown period %q", req.Period),
		}
	}
	if req.GroupName == "" && len(req.UserIDs) == 0 && req.ProjectID == 0 {
		return &app.DashboardError{
			Code:    app.DashboardErrInvalidRequest,
			Message: "a group, user ids or a project is required",
		}
	}
	return nil
}

// resolveMembers returns the team for the load: the named group's users plus
// any explicit user ids, sorted by id.
func (s *dashboardService) resolveMembers(ctx context.Context, req app.DashboardRequest, logger *slog.Logger, warnings *warningList) ([]domain.User, error) {
	byID := make(map[int]domain.User)

	if req.GroupName != "" {
		group, err := s.client.FindGroupByName(ctx, req.GroupName)
		switch {
		case errors.Is(err, tracker.ErrNotFound):
			return nil, &app.DashboardError{
				Code:    app.DashboardErrGroupNotFound,
				Message: fmt.Sprintf("group %q not found", req.GroupName),
			}
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.WarnContext(ctx, "group_lookup_failed", "group", req.GroupName, "error", err)
			s.metrics.observeBranchFailure("group")
			warnings.add(fmt.Sprintf("group %q unavailable: %v", req.GroupName, err))
		default:
			users, err := s.client.GroupMembers(ctx, group.ID)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.WarnContext(ctx, "group_members_failed", "group_id", group.ID, "error", err)
				s.metrics.observeBranchFailure("group")
				warnings.add(fmt.Sprintf("members of %q unavailable: %v", group.Name, err))
			}
			for _, u := range users {
				byID[u.ID] = u
			}
		}
	}
	for _, id := range req.UserIDs {
		if _, ok := byID[id]; !ok && id > 0 {
			byID[id] = domain.User{ID: id}
		}
	}

	members := make([]domain.User, 0, len(byID))
	for _, u := range byID {
		members = append(members, u)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func planListings(req app.DashboardRequest, members []domain.User) []listing {
	var out []listing
	for _, u := range members {
		out = append(out, listing{
			label: fmt.Sprintf("assigned:%d", u.ID),
			query: tracker.ListQuery{ProjectID: req.ProjectID, AssignedTo: u.ID, StatusAll: req.IncludeClosed},
		})
		if req.IncludeWatched {
			out = append(out, listing{
				label: fmt.Sprintf("watched:%d", u.ID),
				query: tracker.ListQuery{ProjectID: req.ProjectID, WatcherID: u.ID, StatusAll: req.IncludeClosed},
			})
		}
	}
	if len(members) == 0 && req.ProjectID != 0 {
		out = append(out, listing{
			label: fmt.Sprintf("project:%d", req.ProjectID),
			query: tracker.ListQuery{ProjectID: req.ProjectID, StatusAll: req.IncludeClosed},
		})
	}
	return out
}

// fanOut runs the listings concurrently. A failed branch is logged and
// treated as empty; only cancellation aborts the load. The merged result
// is sorted by id with duplicates removed.
func (s *dashboardService) fanOut(ctx context.Context, listings []listing, logger *slog.Logger, warnings *warningList) ([]*domain.Item, error) {
	results := make([][]*domain.Item, len(listings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, l := range listings {
		g.Go(func() error {
			items, err := s.client.ListAllItems(gctx, l.query)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				var pe *tracker.PaginationInvariantError
				if errors.As(err, &pe) {
					logger.WarnContext(gctx, "pagination_invariant", "branch", l.label, "reason", pe.Reason, "pages", pe.Pages, "total", pe.TotalCount)
				} else {
					logger.WarnContext(gctx, "listing_failed", "branch", l.label, "error", err)
				}
				kind, _, _ := strings.Cut(l.label, ":")
				s.metrics.observeBranchFailure(kind)
				warnings.add(fmt.Sprintf("listing %s failed: %v", l.label, err))
				return nil
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []*domain.Item
	for _, r := range results {
		merged = append(merged, r...)
	}
	merged = hierarchy.Dedupe(merged)
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged, nil
}

func buildTreeViews(tree *hierarchy.Tree, tag domain.PeriodTag, schema fields.Schema) []app.MainView {
	views := make([]app.MainView, 0, len(tree.Mains))
	for _, m := range tree.Mains {
		mv := app.MainView{ID: m.Main.ID, Subject: m.Main.Subject}
		childItems := make([]*domain.Item, 0, len(m.Children))
		for _, c := range m.Children {
			childItems = append(childItems, c.Child)
			cv := app.ChildView{
				ID:             c.Child.ID,
				Subject:        c.Child.Subject,
				DoneRatio:      domain.ClampRatio(c.Child.DoneRatio),
				MappedProgress: period.MapTo(tag, c.Child.DoneRatio),
				Weight:         fields.Weight(c.Child, schema).String(),
				State:          c.Child.State(),
			}
			if c.Child.AssignedTo != nil {
				cv.Assignee = c.Child.AssignedTo.Name
			}
			for _, sub := range c.Subs {
				cv.Subs = append(cv.Subs, app.SubView{
					ID:        sub.ID,
					Subject:   sub.Subject,
					DoneRatio: domain.ClampRatio(sub.DoneRatio),
					State:     sub.State(),
				})
			}
			mv.Children = append(mv.Children, cv)
		}
		mv.Performance = performance.WeightedPerformance(childItems, tag, schema)
		views = append(views, mv)
	}
	return views
}

// warningList collects warnings from concurrent branches.
type warningList struct {
	mu    sync.Mutex
	items []string
}

func (w *warningList) add(msg string) {
	w.mu.Lock()
	w.items = append(w.items, msg)
	w.mu.Unlock()
}

func (w *warningList) list() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := append([]string(nil), w.items...)
	sort.Strings(out)
	return out
}
