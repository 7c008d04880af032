package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/case-board/internal/api"
	"github.com/Ashfaaq98/case-board/internal/bus"
	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/Ashfaaq98/case-board/internal/store"
)

// Error codes carried in the error body.
const (
	codeValidation = "VALIDATION_ERROR"
	codeNotFound   = "NOT_FOUND"
	codeConflict   = "CONFLICT"
	codeBadRequest = "BAD_REQUEST"
	codeInternal   = "INTERNAL"
)

const maxBodyBytes = 1 << 20

type dataEnvelope struct {
	Data interface{} `json:"data"`
}

// caseRequest is the create/update body. Description may be null.
type caseRequest struct {
	ID          *int64  `json:"id"`
	CaseNumber  string  `json:"caseNumber"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

func (c caseRequest) input() cases.Input {
	in := cases.Input{CaseNumber: c.CaseNumber, Title: c.Title, Status: c.Status}
	if c.Description != nil {
		in.Description = *c.Description
	}
	return in
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details ...api.ErrorDetail) {
	writeJSON(w, status, api.NewErrorResponse(code, message, details...))
}

func writeValidation(w http.ResponseWriter, fe cases.FieldErrors) {
	var details []api.ErrorDetail
	for _, f := range cases.InputFields {
		for _, m := range fe[f] {
			details = append(details, api.ErrorDetail{Reason: f, Message: m})
		}
	}
	writeError(w, http.StatusBadRequest, codeValidation, "Validation failed", details...)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Malformed JSON body")
		return false
	}
	return true
}

// pathID parses the {id} parameter as a positive decimal integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, codeNotFound, "Case not found: "+raw)
		return 0, false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{"status": "ok"}
	if err := s.opts.Store.Ping(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["store"] = err.Error()
	}
	if stats, err := s.opts.Bus.GetStats(r.Context()); err == nil {
		body["bus"] = stats
	}
	if err := s.opts.Bus.HealthCheck(r.Context()); err != nil {
		body["bus_error"] = err.Error()
	}
	writeJSON(w, status, body)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.opts.Store.ListCases(r.Context())
	if err != nil {
		s.internalError(w, r, "list cases", err)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: list})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.opts.Store.GetCase(r.Context(), id)
	if err != nil {
		s.storeError(w, r, "get case", id, err)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: c})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req caseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	fields, fe := s.opts.Schema.Validate(req.input())
	if fe != nil {
		writeValidation(w, fe)
		return
	}

	c, err := s.opts.Store.CreateCase(r.Context(), fields)
	if err != nil {
		s.storeError(w, r, "create case", 0, err)
		return
	}
	s.recordChange(r.Context(), store.ActionCreateCase, bus.ActionCreated, c)
	writeJSON(w, http.StatusCreated, dataEnvelope{Data: c})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req caseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID != nil && *req.ID != id {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Body id does not match path id",
			api.ErrorDetail{Reason: "id", Message: "Body id must equal " + strconv.FormatInt(id, 10) + "."})
		return
	}

	existing, err := s.opts.Store.GetCase(r.Context(), id)
	if err != nil {
		s.storeError(w, r, "get case", id, err)
		return
	}

	fields, fe := s.opts.Schema.Validate(req.input())
	if fe != nil {
		writeValidation(w, fe)
		return
	}
	if fields.CaseNumber != existing.CaseNumber {
		writeValidation(w, cases.FieldErrors{cases.FieldCaseNumber: {"Case number cannot be changed."}})
		return
	}

	c, err := s.opts.Store.UpdateCase(r.Context(), id, fields)
	if err != nil {
		s.storeError(w, r, "update case", id, err)
		return
	}
	s.recordChange(r.Context(), store.ActionUpdateCase, bus.ActionUpdated, c)
	writeJSON(w, http.StatusOK, dataEnvelope{Data: c})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	existing, err := s.opts.Store.GetCase(r.Context(), id)
	if err == nil {
		err = s.opts.Store.DeleteCase(r.Context(), id)
	}
	if err != nil {
		s.storeError(w, r, "delete case", id, err)
		return
	}
	s.recordChange(r.Context(), store.ActionDeleteCase, bus.ActionDeleted, existing)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, op string, id int64, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Case not found: "+strconv.FormatInt(id, 10))
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, codeConflict, "Case number already exists",
			api.ErrorDetail{Reason: cases.FieldCaseNumber, Message: "Case number must be unique."})
	default:
		s.internalError(w, r, op, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error(op+" failed",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
}

// recordChange writes the audit entry and publishes the change. Failures are
// logged only; the change itself has already been committed.
func (s *Server) recordChange(ctx context.Context, auditAction, busAction string, c cases.Case) {
	log := s.logger.With(zap.String("request_id", RequestIDFromContext(ctx)), zap.Int64("case_id", c.ID))

	entry := store.AuditEntry{
		CaseID: c.ID,
		Action: auditAction,
		Details: map[string]interface{}{
			"caseNumber": c.CaseNumber,
			"status":     string(c.Status),
			"requestId":  RequestIDFromContext(ctx),
		},
	}
	if err := s.opts.Store.LogAction(ctx, entry); err != nil {
		log.Warn("failed to write audit entry", zap.Error(err))
	}
	if err := s.opts.Bus.PublishCaseChange(ctx, bus.NewCaseMessage(busAction, c)); err != nil {
		log.Warn("failed to publish case change", zap.Error(err))
	}
}
