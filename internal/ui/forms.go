package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/Ashfaaq98/case-board/internal/form"
)

// caseForm is one open create or edit dialog.
type caseForm struct {
	ctrl   *form.Controller
	form   *tview.Form
	errors *tview.TextView
	layout *tview.Flex
	input  cases.Input
}

// showCaseForm replaces the board with a form driven by ctrl. In edit mode
// the case number is shown but cannot be changed.
func (ui *UI) showCaseForm(ctrl *form.Controller) *caseForm {
	cf := &caseForm{ctrl: ctrl}
	t := ui.theme

	f := tview.NewForm()
	if ctrl.Mode() == form.ModeEdit {
		editing := ctrl.Editing()
		cf.input = editing.Input()
		f.SetTitle(fmt.Sprintf(" Edit Case %d ", editing.ID))
		f.AddTextView(cases.FieldLabel(cases.FieldCaseNumber), tview.Escape(editing.CaseNumber), cases.MaxCaseNumberLen+2, 1, true, false)
	} else {
		f.SetTitle(" New Case ")
		f.AddInputField(cases.FieldLabel(cases.FieldCaseNumber), "", cases.MaxCaseNumberLen+2, nil, func(text string) {
			cf.input.CaseNumber = text
		})
	}
	f.SetBorder(true)

	f.SetBackgroundColor(t.Bg)
	f.SetFieldBackgroundColor(t.Surface)
	f.SetFieldTextColor(t.TextPrimary)
	f.SetLabelColor(t.TextPrimary)
	f.SetButtonBackgroundColor(t.SelectionBg)
	f.SetButtonTextColor(t.SelectionFg)
	f.SetBorderColor(t.FocusBorder)

	f.AddInputField(cases.FieldLabel(cases.FieldTitle), cf.input.Title, 60, nil, func(text string) {
		cf.input.Title = text
	})
	f.AddTextArea(cases.FieldLabel(cases.FieldDescription), cf.input.Description, 60, 4, 0, func(text string) {
		cf.input.Description = text
	})
	// No status is preselected on create so an untouched form fails validation.
	f.AddDropDown(cases.FieldLabel(cases.FieldStatus), cases.StatusNames(), cases.StatusIndex(cases.Status(cf.input.Status)),
		func(option string, index int) {
			cf.input.Status = option
		})

	// Tab leaves the description instead of inserting a tab.
	if item := f.GetFormItemByLabel(cases.FieldLabel(cases.FieldDescription)); item != nil {
		if ta, ok := item.(*tview.TextArea); ok {
			ta.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
				idx := f.GetFormItemIndex(cases.FieldLabel(cases.FieldDescription))
				switch ev.Key() {
				case tcell.KeyTab:
					if idx+1 < f.GetFormItemCount() {
						ui.app.SetFocus(f.GetFormItem(idx + 1))
					}
					return nil
				case tcell.KeyBacktab:
					if idx > 0 {
						ui.app.SetFocus(f.GetFormItem(idx - 1))
					}
					return nil
				}
				return ev
			})
		}
	}

	f.AddButton("Save", func() {
		ui.setStatus("[%s]Saving...[-]", t.TagAccent)
		in := cf.input
		go ui.submit(cf, in)
	})
	f.AddButton("Cancel", func() {
		ui.restoreMainLayout()
	})
	f.SetCancelFunc(func() {
		ui.restoreMainLayout()
	})

	cf.errors = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	cf.errors.SetBackgroundColor(t.Bg)

	cf.form = f
	cf.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(f, 0, 1, true).
		AddItem(cf.errors, 7, 0, false).
		AddItem(ui.statusBar, 1, 0, false)

	ui.activeForm = cf
	ui.dialogActive = true
	ui.app.SetRoot(cf.layout, true)
	ui.app.SetFocus(f)
	verb := "New"
	if ctrl.Mode() == form.ModeEdit {
		verb = "Edit"
	}
	ui.setStatus("[%s]%s case: Tab moves between fields, Esc cancels[-]", t.TagAccent, verb)
	return cf
}

// submit runs one submit cycle for cf. It blocks on the network and must not
// run on the tview goroutine.
func (ui *UI) submit(cf *caseForm, in cases.Input) {
	sub := cf.ctrl.Submit(ui.ctx, in)
	if sub.Stale {
		ui.logger.Debug("discarding stale submission", zap.Uint64("token", sub.Token))
		return
	}

	if sub.Navigate() {
		ui.update(func() {
			if ui.activeForm == cf {
				ui.restoreMainLayout()
			}
			ui.setStatus("[%s]Case saved[-]", ui.theme.TagSuccess)
		})
		ui.refresh()
		return
	}

	state := cf.ctrl.State()
	ui.update(func() {
		cf.errors.SetText(formatFormState(ui.theme, state))
		ui.setStatus("[%s]Case not saved[-]", ui.theme.TagError)
	})
}

// formatFormState renders per-field errors in field order, then the top-level
// message and the backend's "reason: message" details.
func formatFormState(t Theme, state form.State) string {
	var b strings.Builder
	for _, field := range cases.InputFields {
		for _, msg := range state.Errors[field] {
			fmt.Fprintf(&b, "[%s]%s: %s[-]\n", t.TagError, cases.FieldLabel(field), tview.Escape(msg))
		}
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "[%s::b]%s[-::-]\n", t.TagError, tview.Escape(state.Message))
	}
	for _, d := range state.ErrorResponse.Details() {
		fmt.Fprintf(&b, "  [%s]%s:[-] %s\n", t.TagWarning, tview.Escape(d.Reason), tview.Escape(d.Message))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (ui *UI) showDeleteConfirm(c cases.Case) {
	msg := fmt.Sprintf("Delete case:\n\n[%s]%s %s[-]\n\nThis action cannot be undone.",
		ui.theme.TagTextPrimary, tview.Escape(c.CaseNumber), tview.Escape(c.Title))

	modal := tview.NewModal().
		SetText(msg).
		AddButtons([]string{"Delete", "Cancel"})
	modal.SetTitle(" Confirm Delete Case ")
	ui.styleModal(modal)

	modal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
		if buttonLabel != "Delete" {
			ui.restoreMainLayout()
			return
		}
		ui.setStatus("[%s]Deleting case...[-]", ui.theme.TagWarning)
		go ui.deleteCase(c.ID)
	})

	ui.showDialog(modal)
}

// deleteCase deletes id through the board and reports the board's message.
func (ui *UI) deleteCase(id int64) {
	err := ui.board.Delete(ui.ctx, id)
	ui.update(func() {
		ui.restoreMainLayout()
		ui.renderCases()
		tag := ui.theme.TagSuccess
		if err != nil {
			tag = ui.theme.TagError
		}
		ui.setStatus("[%s]%s[-]", tag, ui.board.Message())
	})
}

func (ui *UI) showModal(title, text string) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"Close"})
	modal.SetTitle(fmt.Sprintf(" %s ", title))
	ui.styleModal(modal)
	modal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
		ui.restoreMainLayout()
	})
	ui.showDialog(modal)
}

func (ui *UI) showHelp() {
	ui.showModal("Help", strings.Join([]string{
		"n        new case",
		"e/Enter  edit selected case",
		"d        delete selected case",
		"r        reload",
		"t        cycle theme",
		"q        quit",
		"",
		"In forms: Tab/Shift+Tab move, Esc cancels",
	}, "\n"))
}

func (ui *UI) styleModal(modal *tview.Modal) {
	modal.SetBackgroundColor(ui.theme.Surface)
	modal.SetTextColor(ui.theme.TextPrimary)
	modal.SetBorderColor(ui.theme.FocusBorder)
	modal.SetButtonBackgroundColor(ui.theme.SelectionBg)
	modal.SetButtonTextColor(ui.theme.SelectionFg)
}

func (ui *UI) showDialog(p tview.Primitive) {
	ui.dialogActive = true
	ui.app.SetRoot(p, true)
	ui.app.SetFocus(p)
}

// restoreMainLayout returns to the board after a form or modal closes.
func (ui *UI) restoreMainLayout() {
	ui.dialogActive = false
	ui.activeForm = nil
	ui.app.SetRoot(ui.root, true)
	ui.app.SetFocus(ui.table)
}
