package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Ashfaaq98/case-board/internal/api"
	"github.com/Ashfaaq98/case-board/internal/bus"
	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/Ashfaaq98/case-board/internal/store"
)

type recordingBus struct {
	bus.NullBus
	mu   sync.Mutex
	msgs []bus.CaseMessage
}

func (b *recordingBus) PublishCaseChange(ctx context.Context, msg bus.CaseMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *recordingBus) actions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, m := range b.msgs {
		out = append(out, m.Action)
	}
	return out
}

type fixture struct {
	store  *store.Store
	bus    *recordingBus
	client *api.Client
	url    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	rb := &recordingBus{}
	srv, err := New(Options{Store: st, Bus: rb})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := api.NewClient(ts.URL)
	require.NoError(t, err)
	return &fixture{store: st, bus: rb, client: c, url: ts.URL}
}

func strPtr(s string) *string { return &s }

func TestCreateThenFind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.client.CreateCase(ctx, cases.Fields{
		CaseNumber: "C-001", Title: "Disk full", Description: strPtr("on /var"), Status: cases.StatusNew,
	})
	require.True(t, res.OK(), res.Message)

	list, err := f.client.FindAllCases(ctx)
	require.NoError(t, err)
	require.Nil(t, list.Error)
	require.Len(t, list.Cases, 1)
	created := list.Cases[0]
	assert.Equal(t, "C-001", created.CaseNumber)
	assert.Equal(t, "Disk full", created.Title)
	assert.Equal(t, "on /var", created.DescriptionText())
	assert.Equal(t, cases.StatusNew, created.Status)

	found, err := f.client.FindCaseByID(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, found.Error)
	require.NotNil(t, found.Case)
	assert.Equal(t, created.ID, found.Case.ID)
	assert.Equal(t, created.CaseNumber, found.Case.CaseNumber)

	assert.Equal(t, []string{bus.ActionCreated}, f.bus.actions())

	entries, err := f.store.GetAuditEntries(ctx, created.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, store.ActionCreateCase, entries[0].Action)
}

func TestCreateValidationError(t *testing.T) {
	f := newFixture(t)

	res := f.client.CreateCase(context.Background(), cases.Fields{
		CaseNumber: "", Title: strings.Repeat("x", 81), Status: "Unknown",
	})
	require.False(t, res.OK())
	require.NotNil(t, res.ErrorResponse)
	assert.Equal(t, "Error occurred in creating case", res.Message)
	assert.Equal(t, codeValidation, res.ErrorResponse.Error.Code)

	var reasons []string
	for _, d := range res.ErrorResponse.Details() {
		reasons = append(reasons, d.Reason)
	}
	assert.Equal(t, []string{cases.FieldCaseNumber, cases.FieldTitle, cases.FieldStatus}, reasons)
	assert.Empty(t, f.bus.actions())
}

func TestCreateDuplicateCaseNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fields := cases.Fields{CaseNumber: "C-1", Title: "One", Status: cases.StatusNew}

	require.True(t, f.client.CreateCase(ctx, fields).OK())

	res := f.client.CreateCase(ctx, fields)
	require.NotNil(t, res.ErrorResponse)
	assert.Equal(t, codeConflict, res.ErrorResponse.Error.Code)
}

func TestUpdateCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.store.CreateCase(ctx, cases.Fields{CaseNumber: "C-1", Title: "Old", Status: cases.StatusNew})
	require.NoError(t, err)

	res := f.client.UpdateCase(ctx, c.ID, cases.Fields{CaseNumber: "C-1", Title: "New", Status: cases.StatusResolved})
	require.True(t, res.OK(), res.Message)

	got, err := f.store.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, cases.StatusResolved, got.Status)
	assert.Equal(t, []string{bus.ActionUpdated}, f.bus.actions())
}

func TestUpdateRejectsCaseNumberChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.store.CreateCase(ctx, cases.Fields{CaseNumber: "C-1", Title: "Old", Status: cases.StatusNew})
	require.NoError(t, err)

	res := f.client.UpdateCase(ctx, c.ID, cases.Fields{CaseNumber: "C-2", Title: "New", Status: cases.StatusNew})
	require.NotNil(t, res.ErrorResponse)
	assert.Equal(t, "Error occurred in updating case "+itoa(c.ID), res.Message)
	assert.Equal(t, []api.ErrorDetail{{Reason: cases.FieldCaseNumber, Message: "Case number cannot be changed."}},
		res.ErrorResponse.Details())
}

func TestUpdateRejectsMismatchedBodyID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.store.CreateCase(ctx, cases.Fields{CaseNumber: "C-1", Title: "Old", Status: cases.StatusNew})
	require.NoError(t, err)

	body := `{"id":999,"caseNumber":"C-1","title":"x","description":null,"status":"New"}`
	req, err := http.NewRequest(http.MethodPut, f.url+api.CasesPath+"/"+itoa(c.ID), strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateMissingCase(t *testing.T) {
	f := newFixture(t)

	res := f.client.UpdateCase(context.Background(), 77, cases.Fields{CaseNumber: "C-1", Title: "x", Status: cases.StatusNew})
	require.NotNil(t, res.ErrorResponse)
	assert.Equal(t, codeNotFound, res.ErrorResponse.Error.Code)
}

func TestDeleteTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.store.CreateCase(ctx, cases.Fields{CaseNumber: "C-1", Title: "t", Status: cases.StatusNew})
	require.NoError(t, err)

	require.NoError(t, f.client.DeleteCase(ctx, c.ID))

	err = f.client.DeleteCase(ctx, c.ID)
	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.NotNil(t, apiErr.Response)
	assert.Equal(t, codeNotFound, apiErr.Response.Error.Code)

	found, err := f.client.FindCaseByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, found.Case)
	require.NotNil(t, found.Error)
	assert.Equal(t, codeNotFound, found.Error.Error.Code)

	assert.Equal(t, []string{bus.ActionDeleted}, f.bus.actions())
	entries, err := f.store.GetAuditEntries(ctx, c.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, store.ActionDeleteCase, entries[0].Action)
}

func TestNonNumericIDIsNotFound(t *testing.T) {
	f := newFixture(t)

	for _, raw := range []string{"abc", "-1", "0"} {
		resp, err := http.Get(f.url + api.CasesPath + "/" + raw)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, raw)
	}
}

func TestMalformedBody(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.url+api.CasesPath, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthzAndRequestID(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.url+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))

	var health struct {
		Status string                 `json:"status"`
		Bus    map[string]interface{} `json:"bus"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "null", health.Bus["type"])
	assert.Equal(t, "disabled", health.Bus["status"])

	resp2, err := http.Get(f.url + "/healthz")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.NotEmpty(t, resp2.Header.Get(requestIDHeader))
}

type panickingStore struct {
	CaseStore
}

func (panickingStore) ListCases(context.Context) ([]cases.Case, error) {
	panic("boom")
}

func TestRecovererRendersInternalError(t *testing.T) {
	srv, err := New(Options{Store: panickingStore{}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, api.CasesPath, nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL","message":"Internal server error","errors":[]}}`, rec.Body.String())
}

func TestRequestLoggerRecordsStatusAndSize(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	st, err := store.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv, err := New(Options{Store: st, Logger: zap.New(core)})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, api.CasesPath+"/42", nil)
	req.Header.Set(requestIDHeader, "req-42")
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, int64(rec.Body.Len()), fields["bytes"])
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, api.CasesPath+"/42", fields["path"])
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	st, err := store.NewStore(":memory:")
	require.NoError(t, err)
	defer st.Close()

	srv, err := New(Options{Store: st, Addr: "127.0.0.1:0"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestServeOnListener(t *testing.T) {
	st, err := store.NewStore(":memory:")
	require.NoError(t, err)
	defer st.Close()

	srv, err := New(Options{Store: st, Addr: "127.0.0.1:0"})
	require.NoError(t, err)

	ln, err := srv.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	c, err := api.NewClient("http://" + ln.Addr().String())
	require.NoError(t, err)
	list, err := c.FindAllCases(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list.Cases)

	cancel()
	require.NoError(t, <-done)

	assert.Error(t, srv.Run(context.Background()), "a server serves once")
}
