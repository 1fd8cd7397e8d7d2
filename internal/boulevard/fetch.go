package boulevard

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// FetchResult is a downloaded export file plus the diagnostics the
// orchestrator needs to decide how to react. Non-2xx statuses are returned,
// not raised.
type FetchResult struct {
	Body        []byte
	ContentType string
	StatusCode  int
	AuthUsed    bool
}

// OK reports whether the download succeeded at the HTTP level.
func (r FetchResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// AuthBlocked reports whether the URL is gated behind auth.
func (r FetchResult) AuthBlocked() bool {
	return r.StatusCode == http.StatusUnauthorized || r.StatusCode == http.StatusForbidden
}

// FetchFile downloads an export file. Export URLs are typically pre-signed,
// so the first attempt goes out unauthenticated; a 401/403 is retried once
// with the platform auth header.
func (c *Client) FetchFile(ctx context.Context, fileURL string) (*FetchResult, error) {
	result, err := c.doFetch(ctx, fileURL, false)
	if err != nil {
		return nil, err
	}
	if !result.AuthBlocked() {
		return result, nil
	}

	return c.doFetch(ctx, fileURL, true)
}

func (c *Client) doFetch(ctx context.Context, fileURL string, withAuth bool) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build file request: %w", err)
	}
	if withAuth {
		req.Header.Set("Authorization", c.authHeader())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("file download failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}

	return &FetchResult{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		AuthUsed:    withAuth,
	}, nil
}
