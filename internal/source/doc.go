// Package source implements the authenticated client for the upstream
// historical data provider.
//
// The client:
//   - Logs in once per run and holds the session token
//   - Fetches one instrument-day of rows per call
//   - Retries transient failures with exponential backoff and jitter
//   - Applies a client-side rate limit across all requests
//
// Failure classification: 401/403 is an auth failure and fatal for the whole
// run; 408/429/5xx and transport-level errors are transient and retried;
// any other 4xx fails the day without retry.
package source
