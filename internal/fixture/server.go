package fixture

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/tierboard/internal/db"
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/repository"
	"github.com/alexanderramin/tierboard/internal/tracker"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultLimit = 25
	maxLimit     = 100
)

type Options struct {
	// APIKey, when set, must accompany every API request.
	APIKey string
	Logger *slog.Logger
}

// Server serves the tracker endpoints tierboard consumes.
type Server struct {
	db      *sql.DB
	uow     db.UnitOfWork
	apiKey  string
	logger  *slog.Logger
	metrics *serverMetrics
	router  *mux.Router
}

func NewServer(database *sql.DB, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		db:      database,
		uow:     db.NewSQLiteUnitOfWork(database),
		apiKey:  opts.APIKey,
		logger:  logger,
		metrics: newServerMetrics(),
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)

	api := s.router.NewRoute().Subrouter()
	api.Use(s.instrument, s.authorize)
	api.HandleFunc("/issues.json", s.listIssues).Methods(http.MethodGet)
	api.HandleFunc("/issues.json", s.createIssue).Methods(http.MethodPost)
	api.HandleFunc("/issues/{id:[0-9]+}.json", s.getIssue).Methods(http.MethodGet)
	api.HandleFunc("/issues/{id:[0-9]+}.json", s.updateIssue).Methods(http.MethodPut)
	api.HandleFunc("/groups.json", s.listGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id:[0-9]+}.json", s.getGroup).Methods(http.MethodGet)
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" {
			key := r.Header.Get(tracker.APIKeyHeader)
			if key == "" {
				key = r.URL.Query().Get("key")
			}
			if key != s.apiKey {
				writeErrors(w, http.StatusUnauthorized, "invalid api key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.observe(r.Method, route, rec.status, time.Since(start))
		s.logger.Debug("fixture request",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		f    repository.IssueFilter
		errs []string
	)
	f.ProjectID = intParam(q.Get("project_id"), "project_id", &errs)
	f.ParentID = intParam(q.Get("parent_id"), "parent_id", &errs)
	f.AssignedTo = intParam(q.Get("assigned_to_id"), "assigned_to_id", &errs)
	f.WatcherID = intParam(q.Get("watcher_id"), "watcher_id", &errs)
	f.Offset = intParam(q.Get("offset"), "offset", &errs)
	f.Limit = intParam(q.Get("limit"), "limit", &errs)
	f.IncludeClosed = q.Get("status_id") == "*"
	if len(errs) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs...)
		return
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	f.Limit = min(f.Limit, maxLimit)

	items, total, err := repository.NewSQLiteIssueRepo(s.db).List(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if items == nil {
		items = []*domain.Item{}
	}
	writeJSON(w, http.StatusOK, tracker.Page{Items: items, TotalCount: total, Offset: f.Offset, Limit: f.Limit})
}

func (s *Server) getIssue(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	it, err := repository.NewSQLiteIssueRepo(s.db).GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*domain.Item{"issue": it})
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Issue *tracker.NewItem `json:"issue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Issue == nil {
		writeErrors(w, http.StatusUnprocessableEntity, "body must be {\"issue\": {...}}")
		return
	}
	in := body.Issue
	if errs := validateNewItem(in); len(errs) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs...)
		return
	}

	var created *domain.Item
	err := s.uow.WithinTx(r.Context(), func(ctx context.Context, tx db.DBTX) error {
		issues := repository.NewSQLiteIssueRepo(tx)
		dir := repository.NewSQLiteDirectoryRepo(tx)

		if in.ParentID != 0 {
			if _, err := issues.GetByID(ctx, in.ParentID); err != nil {
				return rejectf("parent issue %d is invalid", in.ParentID)
			}
		}
		it := &domain.Item{
			Subject:   strings.TrimSpace(in.Subject),
			DoneRatio: in.DoneRatio,
			Project:   domain.IDName{ID: in.ProjectID},
		}
		if in.ParentID != 0 {
			it.Parent = &domain.IDRef{ID: in.ParentID}
		}
		if in.AssignedToID != 0 {
			it.AssignedTo = &domain.IDName{ID: in.AssignedToID}
		}
		for _, fa := range in.CustomFields {
			def, err := dir.GetCustomField(ctx, fa.ID)
			if err != nil {
				return rejectf("custom field %d is invalid", fa.ID)
			}
			cf := domain.CustomField{ID: def.ID, Name: def.Name, Multiple: def.Multiple}
			if def.Multiple {
				cf.Value = domain.ListValue(fa.Value)
			} else {
				cf.Value = domain.StringValue(fa.Value)
			}
			it.CustomFields = append(it.CustomFields, cf)
		}
		if err := issues.Create(ctx, it); err != nil {
			return rejectf("issue could not be saved: %v", err)
		}
		stored, err := issues.GetByID(ctx, it.ID)
		if err != nil {
			return err
		}
		created = stored
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]*domain.Item{"issue": created})
}

func (s *Server) updateIssue(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var body struct {
		Issue *tracker.ItemUpdate `json:"issue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Issue == nil {
		writeErrors(w, http.StatusUnprocessableEntity, "body must be {\"issue\": {...}}")
		return
	}
	upd := body.Issue
	if upd.DoneRatio != nil && (*upd.DoneRatio < 0 || *upd.DoneRatio > 100) {
		writeErrors(w, http.StatusUnprocessableEntity, "done ratio must be within 0..100")
		return
	}

	err := s.uow.WithinTx(r.Context(), func(ctx context.Context, tx db.DBTX) error {
		if upd.StatusID != nil {
			if _, err := repository.NewSQLiteDirectoryRepo(tx).GetStatus(ctx, *upd.StatusID); err != nil {
				return rejectf("status %d is invalid", *upd.StatusID)
			}
		}
		issues := repository.NewSQLiteIssueRepo(tx)
		if err := issues.UpdateProgress(ctx, id, repository.ProgressUpdate{
			StatusID:  upd.StatusID,
			DoneRatio: upd.DoneRatio,
		}); err != nil {
			return err
		}
		if upd.Notes != nil && strings.TrimSpace(*upd.Notes) != "" {
			return issues.AddJournal(ctx, id, *upd.Notes)
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := repository.NewSQLiteGroupRepo(s.db).List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Group{"groups": groups})
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	g, err := repository.NewSQLiteGroupRepo(s.db).GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if r.URL.Query().Get("include") != "users" {
		g.Users = nil
	}
	writeJSON(w, http.StatusOK, map[string]*domain.Group{"group": g})
}

// fail maps repository and validation errors onto tracker status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var rej *rejection
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeErrors(w, http.StatusNotFound, err.Error())
	case errors.As(err, &rej):
		writeErrors(w, http.StatusUnprocessableEntity, rej.msg)
	default:
		s.logger.Error("fixture request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErrors(w, http.StatusInternalServerError, "internal error")
	}
}

func validateNewItem(in *tracker.NewItem) []string {
	var errs []string
	if strings.TrimSpace(in.Subject) == "" {
		errs = append(errs, "Subject cannot be blank")
	}
	if in.ProjectID == 0 {
		errs = append(errs, "Project cannot be blank")
	}
	if in.DoneRatio < 0 || in.DoneRatio > 100 {
		errs = append(errs, "Done ratio must be within 0..100")
	}
	return errs
}

type rejection struct {
	msg string
}

func (r *rejection) Error() string { return r.msg }

func rejectf(format string, args ...any) error {
	return &rejection{msg: fmt.Sprintf(format, args...)}
}

func intParam(raw, name string, errs *[]string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Sprintf("%s must be a non-negative integer", name))
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, msgs ...string) {
	writeJSON(w, status, map[string][]string{"errors": msgs})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type serverMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// newServerMetrics uses a private registry so several servers can coexist
// in one process.
func newServerMetrics() *serverMetrics {
	reg := prometheus.NewRegistry()
	m := &serverMetrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierboard",
			Subsystem: "fixture",
			Name:      "requests_total",
			Help:      "Fixture tracker requests by route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tierboard",
			Subsystem: "fixture",
			Name:      "request_duration_seconds",
			Help:      "Fixture tracker request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

func (m *serverMetrics) observe(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route).Observe(d.Seconds())
}
