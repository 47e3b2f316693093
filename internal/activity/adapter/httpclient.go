package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

// httpClient is the shared plain net/http client underlying the
// JSON-over-HTTP adapters (news_search, deep_research, graph),
// grounded on the teacher's HTTPExecutor
// (pkg/executor/builtin/http.go): a single *http.Client with a fixed
// timeout, context-aware requests, and 4xx/5xx mapped to typed errors
// rather than returned as plain Go errors.
type httpClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (c *httpClient) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.Input(domain.CodeValidation, "marshal request: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domain.Transient(domain.CodeFetchFail, "build request", err, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return domain.Transient(domain.CodeFetchFail, "build request", err, nil)
	}
	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Transient(domain.CodeUpstream5xx, "request failed", err, nil)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Transient(domain.CodeUpstream5xx, "read response", err, nil)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 1
		return domain.Transient(domain.CodeRateLimited, "rate limited", nil, &retryAfter)
	}
	if resp.StatusCode >= 500 {
		return domain.Transient(domain.CodeUpstream5xx, fmt.Sprintf("upstream returned %d", resp.StatusCode), nil, nil)
	}
	if resp.StatusCode >= 400 {
		return domain.Data(domain.CodeFetchFail, fmt.Sprintf("upstream returned %d: %s", resp.StatusCode, string(body)), nil)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.Data(domain.CodeSchemaInvalid, "decode response: "+err.Error(), err)
	}
	return nil
}
