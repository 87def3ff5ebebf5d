// Package client is an HTTP client for the wallet ledger API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Retryable  bool
	RetryAfter time.Duration
	// Body is the raw response body.
	Body []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d (%s)", e.StatusCode, e.Code)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	// Token is sent as a bearer token when set.
	Token string
	// OwnerID is sent as X-Owner-Id when Token is empty.
	OwnerID    string
	HTTPClient *http.Client
	// MaxElapsedTime bounds retries of retryable transfer failures. Zero
	// disables retries.
	MaxElapsedTime time.Duration
}

// Client calls the wallet ledger HTTP API.
type Client struct {
	baseURL        string
	token          string
	ownerID        string
	httpClient     *http.Client
	maxElapsedTime time.Duration
}

// New creates a new Client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.Token,
		ownerID:        cfg.OwnerID,
		httpClient:     httpClient,
		maxElapsedTime: cfg.MaxElapsedTime,
	}
}

// OpenAccount opens the caller's account.
func (c *Client) OpenAccount(ctx context.Context, contactAddress string) (*dto.AccountResponse, error) {
	var out dto.AccountResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/accounts", nil, dto.OpenAccountRequest{ContactAddress: contactAddress}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Balance returns the caller's balance.
func (c *Client) Balance(ctx context.Context) (*dto.BalanceResponse, error) {
	var out dto.BalanceResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/balance", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transactions returns the caller's balance and a page of history.
func (c *Client) Transactions(ctx context.Context, limit, offset int) (*dto.TransactionsResponse, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var out dto.TransactionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/transactions?"+query.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transfer sends amount, in major units, to the account registered under to.
// Retryable failures are retried with the same idempotency key, so at most
// one attempt moves funds.
func (c *Client) Transfer(ctx context.Context, to string, amount decimal.Decimal, idempotencyKey string) (*dto.TransferResponse, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[middleware.IdempotencyKeyHeader] = idempotencyKey
	}

	req := dto.TransferRequest{To: to, Amount: amount}

	var out dto.TransferResponse
	operation := func() error {
		err := c.do(ctx, http.MethodPost, "/api/v1/transfer", headers, req, &out)
		if err == nil {
			return nil
		}
		if !retryable(err, idempotencyKey != "") {
			return backoff.Permanent(err)
		}
		return err
	}

	if c.maxElapsedTime <= 0 {
		if err := operation(); err != nil {
			return nil, unwrapPermanent(err)
		}
		return &out, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = c.maxElapsedTime

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return &out, nil
}

// Consistency checks ledger-wide totals. An inconsistent ledger is returned
// with a 409 APIError alongside the totals.
func (c *Client) Consistency(ctx context.Context) (*dto.ConsistencyResponse, error) {
	var out dto.ConsistencyResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/ledger/consistency", nil, nil, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict &&
			json.Unmarshal(apiErr.Body, &out) == nil {
			return &out, err
		}
		return nil, err
	}
	return &out, nil
}

// retryable reports whether a failed transfer may be sent again. Timeouts and
// transport errors are only safe to repeat under an idempotency key.
func retryable(err error, hasKey bool) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Retryable {
			return true
		}
		return hasKey && apiErr.StatusCode == http.StatusGatewayTimeout
	}
	return hasKey && !errors.Is(err, context.Canceled)
}

func unwrapPermanent(err error) error {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.ownerID != "" {
		req.Header.Set(middleware.OwnerHeader, c.ownerID)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: raw}
		var errBody dto.ErrorResponse
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			apiErr.Code = errBody.Error
			apiErr.Message = errBody.Message
			apiErr.Retryable = errBody.Retryable
		} else {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(seconds) * time.Second
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
