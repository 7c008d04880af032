package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CasesPath is the versioned resource path appended to the base URL.
const CasesPath = "/api/v1/cases"

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://localhost:8080"

const defaultUserAgent = "case-board/1.0"

// Result is the outcome of a write (create or update). A zero Result means
// success. On failure Message is set; ErrorResponse is set only when the
// backend returned a structured error.
type Result struct {
	Message       string
	ErrorResponse *ErrorResponse
}

// OK reports whether the write succeeded.
func (r Result) OK() bool {
	return r.Message == "" && r.ErrorResponse == nil
}

// FindResult is the outcome of FindCaseByID when the backend was reached.
type FindResult struct {
	Case  *cases.Case
	Error *ErrorResponse
}

// ListResult is the outcome of FindAllCases when the backend was reached.
type ListResult struct {
	Cases []cases.Case
	Error *ErrorResponse
}

// Client talks to the case backend. Every method issues exactly one HTTP
// request: there are no retries and no client-side timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a client for the backend at baseURL. An empty baseURL
// selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: missing host", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string { return c.baseURL }

type updateRequest struct {
	ID int64 `json:"id"`
	cases.Fields
}

type caseEnvelope struct {
	Data *cases.Case `json:"data"`
}

type casesEnvelope struct {
	Data []cases.Case `json:"data"`
}

// CreateCase posts validated fields as a new case.
func (c *Client) CreateCase(ctx context.Context, fields cases.Fields) Result {
	status, body, err := c.do(ctx, http.MethodPost, CasesPath, fields)
	if err != nil {
		c.logger.Warn("create case failed", zap.Error(err))
		return Result{Message: "Failed to create case"}
	}
	return c.writeResult("create case", status, body, "Error occurred in creating case", "Failed to create case")
}

// UpdateCase replaces the editable fields of case id. The id comes from the
// record being edited, never from form input.
func (c *Client) UpdateCase(ctx context.Context, id int64, fields cases.Fields) Result {
	failed := fmt.Sprintf("Failed to update case %d", id)
	status, body, err := c.do(ctx, http.MethodPut, casePath(id), updateRequest{ID: id, Fields: fields})
	if err != nil {
		c.logger.Warn("update case failed", zap.Int64("id", id), zap.Error(err))
		return Result{Message: failed}
	}
	return c.writeResult("update case", status, body, fmt.Sprintf("Error occurred in updating case %d", id), failed)
}

func (c *Client) writeResult(op string, status int, body []byte, rejected, failed string) Result {
	if isSuccess(status) {
		return Result{}
	}
	er, err := parseErrorResponse(body)
	if err != nil {
		c.logger.Warn(op+": unparseable error body", zap.Int("status", status), zap.Error(err))
		return Result{Message: failed}
	}
	c.logger.Info(op+": rejected by backend", zap.Int("status", status), zap.String("code", er.Error.Code))
	return Result{Message: rejected, ErrorResponse: er}
}

// FindCaseByID fetches one case. A backend-reported failure (for example not
// found) is returned in FindResult.Error; a transport or parse failure is
// returned as a *TransportError.
func (c *Client) FindCaseByID(ctx context.Context, id int64) (FindResult, error) {
	op := fmt.Sprintf("Failed to get case by id %d", id)
	status, body, err := c.do(ctx, http.MethodGet, casePath(id), nil)
	if err != nil {
		return FindResult{}, &TransportError{Op: op, Err: err}
	}
	if !isSuccess(status) {
		er, err := parseErrorResponse(body)
		if err != nil {
			return FindResult{}, &TransportError{Op: op, Err: err}
		}
		return FindResult{Error: er}, nil
	}
	var env caseEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return FindResult{}, &TransportError{Op: op, Err: fmt.Errorf("decode case: %w", err)}
	}
	return FindResult{Case: env.Data}, nil
}

// FindAllCases lists every case, with the same error split as FindCaseByID.
func (c *Client) FindAllCases(ctx context.Context) (ListResult, error) {
	const op = "Failed to get all cases"
	status, body, err := c.do(ctx, http.MethodGet, CasesPath, nil)
	if err != nil {
		return ListResult{}, &TransportError{Op: op, Err: err}
	}
	if !isSuccess(status) {
		er, err := parseErrorResponse(body)
		if err != nil {
			return ListResult{}, &TransportError{Op: op, Err: err}
		}
		return ListResult{Error: er}, nil
	}
	var env casesEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ListResult{}, &TransportError{Op: op, Err: fmt.Errorf("decode cases: %w", err)}
	}
	if env.Data == nil {
		env.Data = []cases.Case{}
	}
	return ListResult{Cases: env.Data}, nil
}

// DeleteCase removes case id. Any non-success is an error: *APIError when the
// backend answered, *TransportError otherwise. Deleting a missing id fails.
func (c *Client) DeleteCase(ctx context.Context, id int64) error {
	status, body, err := c.do(ctx, http.MethodDelete, casePath(id), nil)
	if err != nil {
		return &TransportError{Op: fmt.Sprintf("Failed to delete case %d", id), Err: err}
	}
	if isSuccess(status) {
		return nil
	}
	er, perr := parseErrorResponse(body)
	if perr != nil {
		c.logger.Debug("delete case: unparseable error body", zap.Int64("id", id), zap.Error(perr))
	}
	return &APIError{StatusCode: status, Response: er}
}

// do performs one request and reads the whole response body.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	log := c.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
	log.Debug("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug("received response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))
	return resp.StatusCode, body, nil
}

func casePath(id int64) string {
	return CasesPath + "/" + strconv.FormatInt(id, 10)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
