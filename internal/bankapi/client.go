// Package bankapi is the typed HTTP client for the remote banking service.
// It is the only component that touches the network; every failure it
// returns is an *Error carrying a human-readable message.
package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/baharkarakas/bank-demo-web/internal/metrics"
	"github.com/baharkarakas/bank-demo-web/internal/models"
)

const (
	UnknownError     = "unknown error"
	UnreachableError = "bank service unreachable"

	// AccountDetailTransfers is the server-side cap on transfers returned
	// with an account detail.
	AccountDetailTransfers = 20
)

// Error is the single failure kind surfaced to callers. Status is 0 when no
// response was received.
type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.cause }

// IsNotFound reports whether err is a 404 from the bank service. The account
// page renders not-found for every failure, so this only tells a missing
// account apart from an outage in logs.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Message extracts the display message from any error.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return UnknownError
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }
func WithLogger(l *slog.Logger) Option      { return func(c *Client) { c.log = l } }

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New validates baseURL once; requests are resolved against it for the
// lifetime of the client.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse bank API URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("bank API URL %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	if err := c.fetchJSON(ctx, "list_accounts", http.MethodGet, "/api/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAccountDetail returns the account and its latest transfers, newest
// first as ordered by the server.
func (c *Client) GetAccountDetail(ctx context.Context, iban string) (models.AccountDetail, error) {
	var out models.AccountDetail
	err := c.fetchJSON(ctx, "get_account", http.MethodGet, "/api/accounts/"+url.PathEscape(iban), nil, &out)
	return out, err
}

func (c *Client) ListTransfers(ctx context.Context, limit, offset int) ([]models.Transfer, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var out []models.Transfer
	if err := c.fetchJSON(ctx, "list_transfers", http.MethodGet, "/api/transfers?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTransfer(ctx context.Context, in models.TransferCreate) (models.TransferCreated, error) {
	var out models.TransferCreated
	err := c.fetchJSON(ctx, "create_transfer", http.MethodPost, "/api/transfers", in, &out)
	return out, err
}

// errorBody covers both envelopes the service emits: {"error": "..."} and
// framework-level {"detail": "..."} / {"detail": [{"msg": "..."}]}.
type errorBody struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail"`
}

func (b errorBody) message() string {
	if b.Error != "" {
		return b.Error
	}
	if len(b.Detail) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(b.Detail, &s) == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(b.Detail, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func (c *Client) fetchJSON(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.UpstreamRequests.WithLabelValues(op, outcome).Inc()
		metrics.UpstreamLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			outcome = "unreachable"
			return &Error{Message: UnknownError, cause: fmt.Errorf("encode %s body: %w", op, err)}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		outcome = "unreachable"
		return &Error{Message: UnknownError, cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	res, err := c.http.Do(req)
	if err != nil {
		outcome = "unreachable"
		c.log.Warn("bank api unreachable", "op", op, "err", err)
		return &Error{Message: UnreachableError, cause: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		outcome = "rejected"
		msg := UnknownError
		if raw, err := io.ReadAll(res.Body); err == nil && json.Valid(raw) {
			var eb errorBody
			_ = json.Unmarshal(raw, &eb) // non-object bodies fall through to the status text
			if msg = eb.message(); msg == "" {
				msg = statusText(res)
			}
		}
		c.log.Debug("bank api rejected", "op", op, "status", res.StatusCode, "msg", msg)
		return &Error{Status: res.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		outcome = "rejected"
		return &Error{Status: res.StatusCode, Message: UnknownError, cause: fmt.Errorf("decode %s: %w", op, err)}
	}
	c.log.Debug("bank api ok", "op", op, "status", res.StatusCode, "dur", time.Since(start))
	return nil
}

// statusText is the reason phrase from the status line, falling back to the
// canonical text for the code.
func statusText(res *http.Response) string {
	if s := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode))); s != "" {
		return s
	}
	if s := http.StatusText(res.StatusCode); s != "" {
		return s
	}
	return UnknownError
}
