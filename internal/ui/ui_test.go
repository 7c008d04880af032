package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rivo/tview"

	"github.com/Ashfaaq98/case-board/internal/api"
	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/Ashfaaq98/case-board/internal/form"
)

// fakeBackend implements Backend in memory.
type fakeBackend struct {
	mu        sync.Mutex
	cases     []cases.Case
	listErr   error
	updateRes *api.Result
	created   []cases.Fields
	updated   []int64
	listCalls int
}

func (f *fakeBackend) FindAllCases(ctx context.Context) (api.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return api.ListResult{}, f.listErr
	}
	out := make([]cases.Case, len(f.cases))
	copy(out, f.cases)
	return api.ListResult{Cases: out}, nil
}

func (f *fakeBackend) FindCaseByID(ctx context.Context, id int64) (api.FindResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cases {
		if c.ID == id {
			c := c
			return api.FindResult{Case: &c}, nil
		}
	}
	er := api.NewErrorResponse("NOT_FOUND", "Case not found")
	return api.FindResult{Error: &er}, nil
}

func (f *fakeBackend) DeleteCase(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.cases {
		if c.ID == id {
			f.cases = append(f.cases[:i], f.cases[i+1:]...)
			return nil
		}
	}
	return &api.APIError{StatusCode: 404}
}

func (f *fakeBackend) CreateCase(ctx context.Context, fields cases.Fields) api.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, fields)
	f.cases = append(f.cases, cases.Case{
		ID: int64(len(f.cases) + 100), CaseNumber: fields.CaseNumber, Title: fields.Title,
		Description: fields.Description, Status: fields.Status,
	})
	return api.Result{}
}

func (f *fakeBackend) UpdateCase(ctx context.Context, id int64, fields cases.Fields) api.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, id)
	if f.updateRes != nil {
		return *f.updateRes
	}
	return api.Result{}
}

func sampleCases() []cases.Case {
	return []cases.Case{
		{ID: 1, CaseNumber: "C-1", Title: "Disk full", Status: cases.StatusNew},
		{ID: 2, CaseNumber: "C-2", Title: "Printer", Status: cases.StatusClosed},
	}
}

func newTestUI(t *testing.T, backend *fakeBackend, emptyOnError bool) *UI {
	t.Helper()
	ui := NewUI(context.Background(), backend, Options{EmptyOnError: emptyOnError})
	t.Cleanup(ui.Stop)
	return ui
}

func TestNewUIRendersEmptyBoard(t *testing.T) {
	ui := newTestUI(t, &fakeBackend{}, true)

	if len(ui.rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(ui.rows))
	}
	if got := ui.table.GetCell(1, 0).Text; !strings.Contains(got, "No cases") {
		t.Errorf("expected empty placeholder, got %q", got)
	}
	if ui.themeName != "dark" {
		t.Errorf("expected default theme dark, got %s", ui.themeName)
	}
}

func TestRefreshLoadsCases(t *testing.T) {
	backend := &fakeBackend{cases: sampleCases()}
	ui := newTestUI(t, backend, true)

	ui.refresh()

	if len(ui.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(ui.rows))
	}
	if got := ui.table.GetCell(1, 1).Text; got != "C-1" {
		t.Errorf("expected first case number C-1, got %q", got)
	}
	if got := ui.table.GetCell(2, 3).Text; got != "Closed" {
		t.Errorf("expected status Closed, got %q", got)
	}
	if !strings.Contains(ui.statusBar.GetText(true), "Loaded 2 cases") {
		t.Errorf("unexpected status: %q", ui.statusBar.GetText(true))
	}
}

func TestRefreshFailure(t *testing.T) {
	backend := &fakeBackend{listErr: errors.New("connection refused")}

	quiet := newTestUI(t, backend, true)
	quiet.refresh()
	if len(quiet.rows) != 0 {
		t.Errorf("expected empty board on failure")
	}
	if strings.Contains(quiet.statusBar.GetText(true), "Failed to load cases") {
		t.Errorf("empty-on-error board must not report the failure")
	}

	loud := newTestUI(t, backend, false)
	loud.refresh()
	if !strings.Contains(loud.statusBar.GetText(true), "Failed to load cases") {
		t.Errorf("expected load failure in status, got %q", loud.statusBar.GetText(true))
	}
}

func TestCreateFormShowsValidationErrors(t *testing.T) {
	backend := &fakeBackend{}
	ui := newTestUI(t, backend, true)

	cf := ui.showCaseForm(form.NewCreate(backend, nil))
	if cf.form.GetFormItemByLabel("Case number") == nil {
		t.Fatal("create form must have an editable case number")
	}

	ui.submit(cf, cases.Input{Title: "Disk full", Status: "Unknown"})

	if len(backend.created) != 0 {
		t.Fatalf("invalid input must not reach the backend")
	}
	text := cf.errors.GetText(true)
	if !strings.Contains(text, "Case number: Case number is required.") {
		t.Errorf("missing case number error in %q", text)
	}
	if !strings.Contains(text, "Please select a status") {
		t.Errorf("missing status error in %q", text)
	}
	if ui.activeForm != cf {
		t.Errorf("form must stay open after a failed submit")
	}
}

func TestCreateFormSuccessReturnsToBoard(t *testing.T) {
	backend := &fakeBackend{}
	ui := newTestUI(t, backend, true)

	cf := ui.showCaseForm(form.NewCreate(backend, nil))
	ui.submit(cf, cases.Input{CaseNumber: "C-001", Title: "Disk full", Status: "New"})

	if len(backend.created) != 1 {
		t.Fatalf("expected one create, got %d", len(backend.created))
	}
	if ui.activeForm != nil || ui.dialogActive {
		t.Errorf("expected to return to the board")
	}
	if len(ui.rows) != 1 || ui.rows[0].CaseNumber != "C-001" {
		t.Errorf("expected board reloaded with the new case, got %+v", ui.rows)
	}
}

func TestEditFormShowsBackendError(t *testing.T) {
	er := api.NewErrorResponse("E1", "boom", api.ErrorDetail{Reason: "x", Message: "y"})
	backend := &fakeBackend{
		cases:     sampleCases(),
		updateRes: &api.Result{Message: "Error occurred in updating case 1", ErrorResponse: &er},
	}
	ui := newTestUI(t, backend, true)

	ui.loadForEdit("1")
	cf := ui.activeForm
	if cf == nil || cf.ctrl.Mode() != form.ModeEdit {
		t.Fatal("expected an edit form")
	}
	if cf.input.Title != "Disk full" || cf.input.Status != "New" {
		t.Errorf("edit form not prefilled: %+v", cf.input)
	}
	// The read-only case number is a text view, never an input field.
	if _, ok := cf.form.GetFormItemByLabel("Case number").(*tview.TextView); !ok {
		t.Errorf("expected case number text view")
	}

	in := cf.input
	in.CaseNumber = "CHANGED"
	ui.submit(cf, in)

	if len(backend.updated) != 1 || backend.updated[0] != 1 {
		t.Fatalf("expected update of case 1, got %v", backend.updated)
	}
	text := cf.errors.GetText(true)
	if !strings.Contains(text, "Error occurred in updating case 1") || !strings.Contains(text, "x: y") {
		t.Errorf("expected message and details, got %q", text)
	}
}

func TestLoadForEditNotFound(t *testing.T) {
	backend := &fakeBackend{cases: sampleCases()}
	ui := newTestUI(t, backend, true)

	for _, raw := range []string{"abc", "99"} {
		ui.loadForEdit(raw)
		if ui.activeForm != nil {
			t.Errorf("%s: no form expected", raw)
		}
		if !ui.dialogActive {
			t.Errorf("%s: expected not-found notice", raw)
		}
		ui.restoreMainLayout()
	}
}

func TestDeleteCase(t *testing.T) {
	backend := &fakeBackend{cases: sampleCases()}
	ui := newTestUI(t, backend, true)
	ui.refresh()

	ui.deleteCase(1)
	if len(ui.rows) != 1 || ui.rows[0].ID != 2 {
		t.Fatalf("expected only case 2 left, got %+v", ui.rows)
	}
	if !strings.Contains(ui.statusBar.GetText(true), "Successfully deleted case with ID: 1") {
		t.Errorf("unexpected status: %q", ui.statusBar.GetText(true))
	}

	ui.deleteCase(1)
	if !strings.Contains(ui.statusBar.GetText(true), "Error occurred while deleting case 1") {
		t.Errorf("unexpected status: %q", ui.statusBar.GetText(true))
	}
}

func TestFormatFormState(t *testing.T) {
	er := api.NewErrorResponse("E1", "boom", api.ErrorDetail{Reason: "x", Message: "y"})
	state := form.State{
		Errors: cases.FieldErrors{
			cases.FieldStatus: {"Please select a status."},
			cases.FieldTitle:  {"Title is required."},
		},
		Message:       "Error occurred in creating case",
		ErrorResponse: &er,
	}

	got := formatFormState(themeDark(), state)
	lines := strings.Split(got, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), got)
	}
	if !strings.Contains(lines[0], "Title: Title is required.") {
		t.Errorf("title error must come first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "Status: Please select a status.") {
		t.Errorf("status error second, got %q", lines[1])
	}
	if !strings.Contains(lines[3], "x:[-] y") {
		t.Errorf("detail line, got %q", lines[3])
	}

	if formatFormState(themeDark(), form.State{}) != "" {
		t.Errorf("empty state must render nothing")
	}
}

func TestCycleTheme(t *testing.T) {
	ui := newTestUI(t, &fakeBackend{}, true)

	seen := []string{ui.themeName}
	for range ThemeNames {
		ui.cycleTheme()
		seen = append(seen, ui.themeName)
	}
	want := []string{"dark", "light", "high-contrast", "dark"}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("theme cycle = %v, want %v", seen, want)
		}
	}
}

func TestCaseRow(t *testing.T) {
	row := caseRow(cases.Case{ID: 7, CaseNumber: "C-7", Title: "T", Status: cases.StatusInProgress})
	want := []string{"7", "C-7", "T", "In-progress", ""}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("col %d = %q, want %q", i, row[i], want[i])
		}
	}
}
