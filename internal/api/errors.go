package api

import (
	"encoding/json"
	"fmt"
)

// ErrorDetail is one (reason, message) pair of a backend error.
type ErrorDetail struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ErrorBody is the payload under the "error" key of a backend error response.
type ErrorBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Errors  []ErrorDetail `json:"errors"`
}

// ErrorResponse is the structured error the backend returns with a non-2xx status:
//
//	{ "error": { "code": "...", "message": "...", "errors": [{ "reason": "...", "message": "..." }] } }
type ErrorResponse struct {
	Error *ErrorBody `json:"error"`
}

// NewErrorResponse builds an ErrorResponse; the backend uses it to render errors.
func NewErrorResponse(code, message string, details ...ErrorDetail) ErrorResponse {
	if details == nil {
		details = []ErrorDetail{}
	}
	return ErrorResponse{Error: &ErrorBody{Code: code, Message: message, Errors: details}}
}

// Details returns the error details, or nil when there is no error body.
func (r *ErrorResponse) Details() []ErrorDetail {
	if r == nil || r.Error == nil {
		return nil
	}
	return r.Error.Errors
}

// Summary renders the response as "code: message".
func (r *ErrorResponse) Summary() string {
	if r == nil || r.Error == nil {
		return ""
	}
	if r.Error.Code == "" {
		return r.Error.Message
	}
	return r.Error.Code + ": " + r.Error.Message
}

// parseErrorResponse decodes a non-2xx body. A body that is not JSON or has no
// "error" object is not a structured backend error.
func parseErrorResponse(body []byte) (*ErrorResponse, error) {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, fmt.Errorf("decode error body: %w", err)
	}
	if er.Error == nil {
		return nil, fmt.Errorf("decode error body: missing \"error\" object")
	}
	return &er, nil
}

// APIError is returned by DeleteCase when the backend answers with a non-2xx
// status. Response is nil when the body could not be parsed.
type APIError struct {
	StatusCode int
	Response   *ErrorResponse
}

func (e *APIError) Error() string {
	if s := e.Response.Summary(); s != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, s)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// TransportError reports a failure to reach the backend or to parse its reply.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
