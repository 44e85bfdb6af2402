// Package tracker talks to the issue tracker's JSON API.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/tierboard/internal/domain"
)

// APIKeyHeader carries the tracker API key on every request.
const APIKeyHeader = "X-Redmine-API-Key"

const (
	listInclude = "parent,watchers"
	itemInclude = "parent,watchers,children,assigned_to,allowed_statuses"
)

// ListQuery filters a paginated item listing. Zero values are omitted.
type ListQuery struct {
	ProjectID  int
	ParentID   int
	AssignedTo int
	WatcherID  int
	StatusAll  bool
	Limit      int
	Offset     int
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	v.Set("include", listInclude)
	if q.ProjectID != 0 {
		v.Set("project_id", strconv.Itoa(q.ProjectID))
	}
	if q.ParentID != 0 {
		v.Set("parent_id", strconv.Itoa(q.ParentID))
	}
	if q.AssignedTo != 0 {
		v.Set("assigned_to_id", strconv.Itoa(q.AssignedTo))
	}
	if q.WatcherID != 0 {
		v.Set("watcher_id", strconv.Itoa(q.WatcherID))
	}
	if q.StatusAll {
		v.Set("status_id", "*")
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	v.Set("offset", strconv.Itoa(q.Offset))
	return v
}

// Page is one slice of a listing plus the server-reported total.
type Page struct {
	Items      []*domain.Item `json:"issues"`
	TotalCount int            `json:"total_count"`
	Offset     int            `json:"offset"`
	Limit      int            `json:"limit"`
}

// ItemUpdate is a partial update; nil fields are left unchanged.
type ItemUpdate struct {
	StatusID  *int    `json:"status_id,omitempty"`
	DoneRatio *int    `json:"done_ratio,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// FieldAssignment sets a custom field by id on create.
type FieldAssignment struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}

// NewItem is the full field set for creating an item.
type NewItem struct {
	ProjectID    int               `json:"project_id"`
	ParentID     int               `json:"parent_issue_id,omitempty"`
	Subject      string            `json:"subject"`
	AssignedToID int               `json:"assigned_to_id,omitempty"`
	DoneRatio    int               `json:"done_ratio,omitempty"`
	CustomFields []FieldAssignment `json:"custom_fields,omitempty"`
}

// Client provides access to the tracker's items and groups.
type Client interface {
	// ListItems fetches one page of items.
	ListItems(ctx context.Context, q ListQuery) (*Page, error)

	// ListAllItems walks every page of a listing within the page budget.
	ListAllItems(ctx context.Context, q ListQuery) ([]*domain.Item, error)

	// GetItem fetches a single item with statuses and custom fields.
	GetItem(ctx context.Context, id int) (*domain.Item, error)

	// UpdateItem applies a partial update.
	UpdateItem(ctx context.Context, id int, upd ItemUpdate) error

	// CreateItem creates an item and returns it as stored.
	CreateItem(ctx context.Context, item NewItem) (*domain.Item, error)

	// FindGroupByName resolves a group by its display name.
	FindGroupByName(ctx context.Context, name string) (*domain.Group, error)

	// GroupMembers lists the users of a group.
	GroupMembers(ctx context.Context, groupID int) ([]domain.User, error)
}

// httpClient implements Client over the tracker's REST API.
type httpClient struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewClient creates a Client for the tracker at cfg.BaseURL.
func NewClient(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &httpClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: 8,
			},
		},
		observer: observer,
	}
}

func (c *httpClient) ListItems(ctx context.Context, q ListQuery) (*Page, error) {
	var page Page
	if err := c.call(ctx, "list_items", http.MethodGet, "/issues.json", q.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *httpClient) ListAllItems(ctx context.Context, q ListQuery) ([]*domain.Item, error) {
	return CollectAll(ctx, c, q, c.cfg.PageSize, c.cfg.MaxPages)
}

func (c *httpClient) GetItem(ctx context.Context, id int) (*domain.Item, error) {
	var body struct {
		Issue *domain.Item `json:"issue"`
	}
	query := url.Values{"include": {itemInclude}}
	if err := c.call(ctx, "get_item", http.MethodGet, fmt.Sprintf("/issues/%d.json", id), query, nil, &body); err != nil {
		return nil, fmt.Errorf("fetching item %d: %w", id, err)
	}
	if body.Issue == nil {
		return nil, fmt.Errorf("fetching item %d: %w", id, ErrNotFound)
	}
	return body.Issue, nil
}

func (c *httpClient) UpdateItem(ctx context.Context, id int, upd ItemUpdate) error {
	payload := map[string]ItemUpdate{"issue": upd}
	if err := c.call(ctx, "update_item", http.MethodPut, fmt.Sprintf("/issues/%d.json", id), nil, payload, nil); err != nil {
		return fmt.Errorf("updating item %d: %w", id, err)
	}
	return nil
}

func (c *httpClient) CreateItem(ctx context.Context, item NewItem) (*domain.Item, error) {
	payload := map[string]NewItem{"issue": item}
	var body struct {
		Issue *domain.Item `json:"issue"`
	}
	if err := c.call(ctx, "create_item", http.MethodPost, "/issues.json", nil, payload, &body); err != nil {
		return nil, fmt.Errorf("creating item %q: %w", item.Subject, err)
	}
	if body.Issue == nil {
		return nil, fmt.Errorf("creating item %q: empty response", item.Subject)
	}
	return body.Issue, nil
}

func (c *httpClient) FindGroupByName(ctx context.Context, name string) (*domain.Group, error) {
	var body struct {
		Groups []domain.Group `json:"groups"`
	}
	if err := c.call(ctx, "list_groups", http.MethodGet, "/groups.json", nil, nil, &body); err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	want := strings.TrimSpace(name)
	for i := range body.Groups {
		if strings.EqualFold(body.Groups[i].Name, want) {
			return &body.Groups[i], nil
		}
	}
	return nil, fmt.Errorf("group %q: %w", name, ErrNotFound)
}

func (c *httpClient) GroupMembers(ctx context.Context, groupID int) ([]domain.User, error) {
	var body struct {
		Group *domain.Group `json:"group"`
	}
	query := url.Values{"include": {"users"}}
	if err := c.call(ctx, "group_members", http.MethodGet, fmt.Sprintf("/groups/%d.json", groupID), query, nil, &body); err != nil {
		return nil, fmt.Errorf("fetching group %d: %w", groupID, err)
	}
	if body.Group == nil {
		return nil, fmt.Errorf("fetching group %d: %w", groupID, ErrNotFound)
	}
	return body.Group.Users, nil
}

// call runs one logical request with retries and reports it to the observer.
func (c *httpClient) call(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	var payload []byte
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		payload = data
	}

	var (
		lastErr  error
		status   int
		attempts int
	)
	for attempts < 1+c.cfg.MaxRetries {
		attempts++
		status, lastErr = c.doRequest(ctx, method, path, query, payload, out)
		if lastErr == nil || !retryable(lastErr) || ctx.Err() != nil {
			break
		}
	}

	err := c.classify(ctx, lastErr, attempts)
	c.observer.OnRequestComplete(ctx, RequestEvent{
		Op:        op,
		Method:    method,
		Path:      path,
		Status:    status,
		Attempts:  attempts,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
		ErrorCode: errorCode(err),
	})
	return err
}

func (c *httpClient) doRequest(ctx context.Context, method, path string, query url.Values, payload []byte, out any) (int, error) {
	u := c.cfg.endpoint(path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set(APIKeyHeader, c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, ErrUnauthorized
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return resp.StatusCode, fmt.Errorf("%w: %s", ErrRejected, strings.TrimSpace(string(respBody)))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return resp.StatusCode, nil
}

// classify maps the last attempt's error onto the package sentinels.
// ErrRetryExhausted is reserved for calls that actually retried.
func (c *httpClient) classify(ctx context.Context, err error, attempts int) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctxErr
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized), errors.Is(err, ErrRejected), errors.Is(err, ErrDecode):
		return err
	case isConnectionError(err):
		return ErrUnavailable
	case attempts <= 1:
		return err
	}
	return fmt.Errorf("%w: %v", ErrRetryExhausted, err)
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrRejected):
		return "REJECTED"
	case errors.Is(err, ErrDecode):
		return "DECODE"
	case errors.Is(err, ErrRetryExhausted):
		return "RETRY_EXHAUSTED"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}
