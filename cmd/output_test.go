package cmd

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/case-board/internal/api"
	"github.com/Ashfaaq98/case-board/internal/bus"
	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/Ashfaaq98/case-board/internal/form"
)

func strPtr(s string) *string { return &s }

func TestMergeEditInputKeepsUnchangedFields(t *testing.T) {
	existing := cases.Case{
		ID:          4,
		CaseNumber:  "C-4",
		Title:       "Printer jam",
		Description: strPtr("Floor 2"),
		Status:      cases.StatusNew,
	}
	flags := cases.Input{Title: "ignored", Description: "", Status: "Resolved"}

	in := mergeEditInput(existing, flags, func(name string) bool {
		return name == "status" || name == "description"
	})

	assert.Equal(t, "C-4", in.CaseNumber)
	assert.Equal(t, "Printer jam", in.Title)
	assert.Equal(t, "", in.Description)
	assert.Equal(t, "Resolved", in.Status)
}

func TestWriteStructuredFormats(t *testing.T) {
	c := cases.Case{ID: 1, CaseNumber: "C-1", Title: "Disk full", Status: cases.StatusClosed}

	var js bytes.Buffer
	require.NoError(t, writeStructured(&js, outputJSON, c))
	assert.Contains(t, js.String(), `"caseNumber": "C-1"`)
	assert.Contains(t, js.String(), `"description": null`)

	var ym bytes.Buffer
	require.NoError(t, writeStructured(&ym, outputYAML, c))
	assert.Contains(t, ym.String(), "caseNumber: C-1")
	assert.Contains(t, ym.String(), "status: Closed")

	assert.Error(t, writeStructured(&bytes.Buffer{}, "xml", c))
	assert.Error(t, validOutput("csv"))
}

func TestWriteCaseTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCaseTable(&buf, []cases.Case{
		{ID: 1, CaseNumber: "C-1", Title: "Disk full", Status: cases.StatusNew},
		{ID: 2, CaseNumber: "C-2", Title: "VPN down", Status: cases.StatusInProgress},
	}))
	out := buf.String()
	assert.Contains(t, out, "CASE #")
	assert.Contains(t, out, "VPN down")
	assert.Contains(t, out, "In-progress")
}

func TestWriteFormStateListsFieldErrorsInOrder(t *testing.T) {
	er := api.NewErrorResponse("CONFLICT", "Case number already exists.", api.ErrorDetail{Reason: "caseNumber", Message: "taken"})
	state := form.State{
		Errors: cases.FieldErrors{
			cases.FieldStatus:     {"Status is required."},
			cases.FieldCaseNumber: {"Case number is required."},
		},
		Message:       "The backend rejected the case.",
		ErrorResponse: &er,
	}

	var buf bytes.Buffer
	writeFormState(&buf, state)
	out := buf.String()

	caseIdx := bytes.Index(buf.Bytes(), []byte("Case number is required."))
	statusIdx := bytes.Index(buf.Bytes(), []byte("Status is required."))
	require.GreaterOrEqual(t, caseIdx, 0)
	require.GreaterOrEqual(t, statusIdx, 0)
	assert.Less(t, caseIdx, statusIdx)
	assert.Contains(t, out, "The backend rejected the case.")
	assert.Contains(t, out, "CONFLICT: Case number already exists.")
	assert.Contains(t, out, "caseNumber: taken")
}

func TestWriteCaseMessage(t *testing.T) {
	msg := bus.CaseMessage{Action: bus.ActionUpdated, CaseID: 7, CaseNumber: "C-7", Status: "Resolved", Timestamp: 1700000000}

	var table bytes.Buffer
	require.NoError(t, writeCaseMessage(&table, outputTable, msg))
	assert.Contains(t, table.String(), "#7")
	assert.Contains(t, table.String(), "updated")

	var js bytes.Buffer
	require.NoError(t, writeCaseMessage(&js, outputJSON, msg))
	assert.Contains(t, js.String(), `"case_number": "C-7"`)
}

func TestFormatDetailsSortsKeys(t *testing.T) {
	assert.Equal(t, "-", formatDetails(nil))
	assert.Equal(t, "case_number=C-1 status=New", formatDetails(map[string]interface{}{
		"status":      "New",
		"case_number": "C-1",
	}))
}

func TestResolvePathRelativeToBase(t *testing.T) {
	base := filepath.Join("srv", "board")
	assert.Equal(t, filepath.Join(base, "data", "case-board.db"), resolvePathRelativeToBase(base, "./data/case-board.db"))
	assert.Equal(t, ":memory:", resolvePathRelativeToBase(base, ":memory:"))

	abs, err := filepath.Abs("x.db")
	require.NoError(t, err)
	assert.Equal(t, abs, resolvePathRelativeToBase(base, abs))
}

func TestSessionClientSendsVersionedUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer ts.Close()

	prev := appVersion
	appVersion = "1.2.3"
	defer func() { appVersion = prev }()

	s, err := newSessionWithLogger(Config{API: APIConfig{URL: ts.URL}, Board: BoardConfig{EmptyOnError: true}}, zap.NewNop())
	require.NoError(t, err)
	_, err = s.client.FindAllCases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "case-board/1.2.3", got)

	appVersion = ""
	assert.Equal(t, "case-board/dev", userAgent())
}

func TestPrintListening(t *testing.T) {
	var buf bytes.Buffer
	printListening(&buf, &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080})
	assert.Equal(t, "Case backend listening on http://127.0.0.1:8080/api/v1/cases (Ctrl+C to stop)\n", buf.String())
}
