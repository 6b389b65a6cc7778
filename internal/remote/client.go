// Package remote is the client of the company aggregation service. Every
// call is a JSON POST authorized by the device's identity token; a 401
// reply surfaces as ErrUnauthorized so the caller can clear local identity.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julianstephens/moodlit/internal/constants"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/models"
)

var (
	ErrUnauthorized  = apperrors.ErrUnauthorized
	ErrNotConfigured = errors.New("company service URL is not configured")
	ErrNoIdentity    = errors.New("no identity token, run 'moodlit company login'")
)

// TokenSource yields the current identity token. keyring.Store satisfies it.
type TokenSource interface {
	Get() (string, error)
}

// StaticToken is a TokenSource over a fixed token.
type StaticToken string

func (t StaticToken) Get() (string, error) {
	if t == "" {
		return "", ErrNoIdentity
	}
	return string(t), nil
}

type Client struct {
	baseURL  string
	deviceID string
	tokens   TokenSource
	http     *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL, deviceID string, tokens TokenSource, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrNotConfigured
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		deviceID: deviceID,
		tokens:   tokens,
		http:     &http.Client{Timeout: constants.RemoteTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	token, err := c.tokens.Get()
	if err != nil || token == "" {
		return ErrNoIdentity
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RemoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %v", apperrors.ErrTransient, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", apperrors.ErrTransient, path, err)
	}

	var env models.Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= 300 {
			return fmt.Errorf("%w: POST %s: http %d", apperrors.ErrTransient, path, resp.StatusCode)
		}
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	if resp.StatusCode >= 300 || env.Code != 0 {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", env.Message, apperrors.ErrNotFound)
		}
		return fmt.Errorf("%w: POST %s: http %d: %s", apperrors.ErrTransient, path, resp.StatusCode, env.Message)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}

// PostCheckIn mirrors a check-in. The note never leaves the device.
func (c *Client) PostCheckIn(ctx context.Context, checkIn models.CheckIn) error {
	checkIn.Note = ""
	return c.post(ctx, "/check-in", models.CheckInRequest{UUID: c.deviceID, CheckIn: checkIn}, nil)
}

// CheckIns returns the company's check-ins in [start, end), optionally
// restricted to one category.
func (c *Client) CheckIns(ctx context.Context, start, end time.Time, category int) ([]models.CompanyCheckIn, error) {
	var out models.CheckInsResponse
	err := c.post(ctx, "/check-ins", models.RangeRequest{UUID: c.deviceID, Start: start, End: end, Category: category}, &out)
	return out.CheckIns, err
}

// Insight looks up a cached company summary for ids.
func (c *Client) Insight(ctx context.Context, ids []int64, category int) (string, bool, error) {
	var out models.InsightResponse
	err := c.post(ctx, "/insights", models.InsightRequest{UUID: c.deviceID, CheckInIDs: ids, Category: category}, &out)
	return out.Summary, out.Found, err
}

func (c *Client) SaveInsight(ctx context.Context, ids []int64, category int, summary string) error {
	return c.post(ctx, "/insights/save", models.SaveInsightRequest{
		UUID: c.deviceID, CheckInIDs: ids, Category: category, Summary: summary,
	}, nil)
}

func (c *Client) DeleteInsight(ctx context.Context, ids []int64, category int) error {
	return c.post(ctx, "/insights/delete", models.InsightRequest{UUID: c.deviceID, CheckInIDs: ids, Category: category}, nil)
}

// Categories returns the company category scores and participation for
// [start, end).
func (c *Client) Categories(ctx context.Context, start, end time.Time) (models.CategoriesResponse, error) {
	var out models.CategoriesResponse
	err := c.post(ctx, "/categories", models.RangeRequest{UUID: c.deviceID, Start: start, End: end}, &out)
	return out, err
}

// Report flags the summary of ids for category as low quality; the service
// drops it.
func (c *Client) Report(ctx context.Context, ids []int64, category int, reason string) error {
	return c.post(ctx, "/report", models.ReportRequest{
		UUID: c.deviceID, CheckInIDs: ids, Category: category, Reason: reason,
	}, nil)
}
