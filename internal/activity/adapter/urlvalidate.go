package adapter

import (
	"context"
	"net/http"
	"time"
)

// URLValidateAdapter issues a HEAD request per URL to confirm
// reachability and capture any redirect target (spec §6 url_validate
// contract — used by the link-cleanse pass, spec §4.9). No GET request
// is made: a server that rejects HEAD is reported with the status it
// returned for the HEAD request.
type URLValidateAdapter struct {
	client *http.Client
}

// NewURLValidateAdapter builds a URLValidateAdapter.
func NewURLValidateAdapter() *URLValidateAdapter {
	return &URLValidateAdapter{
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return nil
			},
		},
	}
}

// Validate checks every URL in req.URLs and reports its status.
// Unlike the other adapters, an unreachable URL is a normal result, not
// an error — url_validate has no declared error codes (spec §6).
func (a *URLValidateAdapter) Validate(ctx context.Context, req URLValidateRequest) (URLValidateResponse, error) {
	results := make([]URLStatus, len(req.URLs))
	for i, target := range req.URLs {
		results[i] = a.checkOne(ctx, target)
	}
	return URLValidateResponse{Results: results}, nil
}

func (a *URLValidateAdapter) checkOne(ctx context.Context, target string) URLStatus {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return URLStatus{URL: target, Status: 0}
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return URLStatus{URL: target, Status: 0}
	}
	defer resp.Body.Close()

	final := target
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	status := URLStatus{URL: target, Status: resp.StatusCode}
	if final != target {
		status.FinalURL = final
	}
	return status
}
