package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Directory resolves display names for booking parties. Lookups are
// best-effort: callers substitute an empty name on error instead of failing
// the request.
type Directory interface {
	StudentName(ctx context.Context, id uuid.UUID) (string, error)
	GroupName(ctx context.Context, id int64) (string, error)
}

// Client talks to the auth and groups services over HTTP and memoizes
// answers in a TTL cache so calendar views do not hammer them.
type Client struct {
	authBaseURL   string
	groupsBaseURL string
	httpClient    *http.Client
	cache         *gocache.Cache
	log           *zap.Logger
}

func NewClient(authBaseURL, groupsBaseURL string, timeout, cacheTTL time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		authBaseURL:   authBaseURL,
		groupsBaseURL: groupsBaseURL,
		httpClient:    &http.Client{Timeout: timeout},
		cache:         gocache.New(cacheTTL, 2*cacheTTL),
		log:           log.With(zap.String("component", "directory")),
	}
}

func (c *Client) StudentName(ctx context.Context, id uuid.UUID) (string, error) {
	key := "student:" + id.String()
	if v, ok := c.cache.Get(key); ok {
		return v.(string), nil
	}

	var payload struct {
		FullName string `json:"full_name"`
	}
	url := fmt.Sprintf("%s/auth/user-by-uuid/%s", c.authBaseURL, id)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		c.log.Debug("student lookup failed", zap.String("student_id", id.String()), zap.Error(err))
		return "", err
	}

	c.cache.SetDefault(key, payload.FullName)
	return payload.FullName, nil
}

func (c *Client) GroupName(ctx context.Context, id int64) (string, error) {
	key := fmt.Sprintf("group:%d", id)
	if v, ok := c.cache.Get(key); ok {
		return v.(string), nil
	}

	var payload struct {
		GroupName string `json:"group_name"`
	}
	url := fmt.Sprintf("%s/groups/%d", c.groupsBaseURL, id)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		c.log.Debug("group lookup failed", zap.Int64("group_id", id), zap.Error(err))
		return "", err
	}

	c.cache.SetDefault(key, payload.GroupName)
	return payload.GroupName, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
