package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"histpull/internal/model"
)

type loginRequest struct {
	Email      string `json:"email"`
	AccessCode string `json:"access_code"`
}

type loginResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

type dataResponse struct {
	Status string      `json:"status"`
	Data   []rawRecord `json:"data"`
}

// rawRecord preserves whatever columns the provider returns for a row.
type rawRecord map[string]json.RawMessage

// Login exchanges credentials for a session token. A rejected login is
// returned as *AuthError; callers must treat it as fatal.
func (c *Client) Login(ctx context.Context) error {
	payload, err := json.Marshal(loginRequest{
		Email:      c.creds.Email,
		AccessCode: c.creds.AccessCode,
	})
	if err != nil {
		return fmt.Errorf("marshal login request: %w", err)
	}

	body, err := c.doWithRetry(ctx, http.MethodPost, "/login", nil, payload)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok && apiErr.IsAuth() {
			return &AuthError{Err: err}
		}
		return fmt.Errorf("login: %w", err)
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("unmarshal login response: %w", err)
	}
	if resp.Token == "" {
		return &AuthError{Err: fmt.Errorf("login response carried no token (status %q)", resp.Status)}
	}

	c.setToken(resp.Token)
	c.logger.Info("logged in to upstream", "email", c.creds.Email)
	return nil
}

// FetchDay fetches all rows for one instrument on one calendar date.
// A day with no trading data returns an empty slice, not an error.
// Auth rejections surface as *AuthError even mid-run (expired session).
func (c *Client) FetchDay(ctx context.Context, instrument string, day time.Time) ([]model.Record, error) {
	query := url.Values{}
	query.Set("date", day.Format(model.DateFormat))

	body, err := c.doWithRetry(ctx, http.MethodGet, "/data/"+url.PathEscape(instrument), query, nil)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok && apiErr.IsAuth() {
			return nil, &AuthError{Err: err}
		}
		return nil, err
	}

	var resp dataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal data response: %w", err)
	}

	records := make([]model.Record, 0, len(resp.Data))
	for _, raw := range resp.Data {
		rec := make(model.Record, len(raw))
		for col, val := range raw {
			rec[col] = rawToString(val)
		}
		records = append(records, rec)
	}

	return records, nil
}

// rawToString renders a JSON scalar as its raw column value. Strings are
// unquoted; numbers and booleans keep their literal form.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// doRequest performs a single HTTP request against the provider.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.sessionToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// doWithRetry performs a request with rate limiting and exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.doRequest(ctx, method, path, query, payload)
		if err == nil {
			return body, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
