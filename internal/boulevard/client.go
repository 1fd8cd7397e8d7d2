// Package boulevard talks to the Boulevard report-export API: requesting
// exports, listing recent ones and downloading the generated files.
package boulevard

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/solara-medspa/backend-go/internal/config"
	"github.com/solara-medspa/backend-go/internal/domain"
)

const defaultListLimit = 25

// Client is a thin HTTP client for the two export-management operations the
// sync consumes: create-export and list-exports.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	businessID string
}

// NewClient builds a Client from the Boulevard config.
func NewClient(cfg config.BoulevardConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    cfg.APIBaseURL,
		apiKey:     cfg.APIKey,
		businessID: cfg.BusinessID,
	}
}

// authHeader returns the platform auth header value: basic auth with the
// API key as username and an empty password.
func (c *Client) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.apiKey+":"))
}

type createExportRequest struct {
	ReportID   string `json:"reportId"`
	BusinessID string `json:"businessId,omitempty"`
}

// CreateExport asks the platform to generate a fresh export for the given
// report identifier encoding.
func (c *Client) CreateExport(ctx context.Context, reportID string) (*domain.ReportExportDescriptor, error) {
	payload, err := json.Marshal(createExportRequest{ReportID: reportID, BusinessID: c.businessID})
	if err != nil {
		return nil, fmt.Errorf("encode create export request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/exports", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build create export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create export request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read create export response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("create export returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var desc domain.ReportExportDescriptor
	if err := json.Unmarshal(body, &desc); err != nil {
		return nil, fmt.Errorf("decode export descriptor: %w", err)
	}
	return &desc, nil
}

type listExportsResponse struct {
	Exports []domain.ReportExportDescriptor `json:"exports"`
	Data    []domain.ReportExportDescriptor `json:"data"`
}

// ListExports returns recent export descriptors. Ordering is not trusted;
// the resolver sorts by generation time itself.
func (c *Client) ListExports(ctx context.Context, limit int) ([]domain.ReportExportDescriptor, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	url := fmt.Sprintf("%s/exports?limit=%d", c.baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build list exports request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list exports request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read list exports response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list exports returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	// Accept a bare array or an object wrapping it.
	var exports []domain.ReportExportDescriptor
	if err := json.Unmarshal(body, &exports); err == nil {
		return exports, nil
	}

	var wrapped listExportsResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode list exports response: %w", err)
	}
	if wrapped.Exports != nil {
		return wrapped.Exports, nil
	}
	return wrapped.Data, nil
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
