// Package ui implements the interactive case board on top of tview.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/case-board/internal/board"
	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/Ashfaaq98/case-board/internal/form"
)

// Backend is everything the board and its forms call on the API client.
type Backend interface {
	board.Backend
	form.Remote
}

// Options configures the board UI.
type Options struct {
	// EmptyOnError shows an empty board instead of an error when loading fails.
	EmptyOnError bool
	// Theme is one of ThemeNames; unknown names fall back to dark.
	Theme  string
	Logger *zap.Logger
}

// UI represents the terminal case board
type UI struct {
	app     *tview.Application
	backend Backend
	board   *board.Board
	logger  *zap.Logger

	// Layout components
	root      *tview.Flex
	appTitle  *tview.TextView
	table     *tview.Table
	detail    *tview.TextView
	statusBar *tview.TextView

	// Rows currently rendered in the table, in display order
	rows []cases.Case

	// Open create/edit form, nil on the board
	activeForm *caseForm

	theme     Theme
	themeName string

	running      atomic.Bool
	dialogActive bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewUI creates the board UI. Nothing is loaded until Start.
func NewUI(ctx context.Context, backend Backend, opts Options) *UI {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	uiCtx, cancel := context.WithCancel(ctx)

	ui := &UI{
		app:     tview.NewApplication(),
		backend: backend,
		board:   board.New(backend, board.Options{EmptyOnError: opts.EmptyOnError, Logger: logger}),
		logger:  logger.Named("ui"),
		ctx:     uiCtx,
		cancel:  cancel,
	}
	ui.theme, ui.themeName = themeByName(opts.Theme)

	ui.setupLayout()
	ui.setupKeybindings()
	ui.applyTheme()
	ui.renderCases()
	ui.setStatus("[%s]Ready[-]", ui.theme.TagAccent)

	return ui
}

// Start runs the TUI until the user quits or ctx is cancelled.
func (ui *UI) Start(ctx context.Context) error {
	ui.logger.Info("starting TUI application")

	// Show UI immediately, then load data asynchronously
	go ui.refresh()

	go func() {
		select {
		case <-ctx.Done():
		case <-ui.ctx.Done():
		}
		ui.cancel()
		ui.app.Stop()
	}()

	ui.running.Store(true)
	err := ui.app.Run()
	ui.running.Store(false)
	ui.cancel()
	ui.logger.Info("TUI application stopped", zap.Error(err))
	return err
}

// Stop stops the TUI application
func (ui *UI) Stop() {
	ui.cancel()
	ui.app.Stop()
}

// update runs f on the tview goroutine when the app is running, or inline
// otherwise (tests build the UI without a screen).
func (ui *UI) update(f func()) {
	if ui.running.Load() {
		ui.app.QueueUpdateDraw(f)
		return
	}
	f()
}

func (ui *UI) setupLayout() {
	ui.appTitle = tview.NewTextView().SetDynamicColors(true)
	ui.appTitle.SetText(" case-board")

	ui.table = tview.NewTable()
	ui.table.SetTitle(" Cases ")
	ui.table.SetBorder(true)
	ui.table.SetTitleAlign(tview.AlignLeft)
	ui.table.SetSelectable(true, false)
	// Pin header row so it stays visible when selecting/scrolling.
	ui.table.SetFixed(1, 0)
	ui.table.SetSelectionChangedFunc(func(row, column int) {
		if c, ok := ui.caseAt(row); ok {
			ui.detail.SetText(ui.caseDetail(c))
		} else {
			ui.detail.SetText("")
		}
	})
	ui.table.SetSelectedFunc(func(row, column int) {
		if c, ok := ui.caseAt(row); ok {
			ui.openEdit(c)
		}
	})

	ui.detail = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	ui.detail.SetTitle(" Details ")
	ui.detail.SetBorder(true)
	ui.detail.SetTitleAlign(tview.AlignLeft)

	ui.statusBar = tview.NewTextView().SetDynamicColors(true)

	main := tview.NewFlex().
		AddItem(ui.table, 0, 3, true).
		AddItem(ui.detail, 0, 2, false)

	ui.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.appTitle, 1, 0, false).
		AddItem(main, 0, 1, true).
		AddItem(ui.statusBar, 1, 0, false)

	ui.app.SetRoot(ui.root, true)
	ui.app.SetFocus(ui.table)
}

func (ui *UI) setupKeybindings() {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// While a modal or form is active, allow it to handle all keys.
		if ui.dialogActive {
			return event
		}

		switch event.Key() {
		case tcell.KeyCtrlC:
			ui.Stop()
			return nil
		case tcell.KeyEsc:
			ui.setStatus("[%s]Ready[-]", ui.theme.TagAccent)
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				ui.Stop()
				return nil
			case 'r', 'R':
				ui.setStatus("[%s]Refreshing...[-]", ui.theme.TagAccent)
				go ui.refresh()
				return nil
			case 'n', 'N':
				ui.showCaseForm(form.NewCreate(ui.backend, ui.logger))
				return nil
			case 'e', 'E':
				if c, ok := ui.selectedCase(); ok {
					ui.openEdit(c)
				}
				return nil
			case 'd', 'D':
				if c, ok := ui.selectedCase(); ok {
					ui.showDeleteConfirm(c)
				}
				return nil
			case 't', 'T':
				ui.cycleTheme()
				return nil
			case '?', 'h':
				ui.showHelp()
				return nil
			}
		}
		return event
	})
}

// refresh loads the board and redraws it. It blocks on the network and must
// not run on the tview goroutine.
func (ui *UI) refresh() {
	err := ui.board.Load(ui.ctx)
	ui.update(func() {
		ui.renderCases()
		if err != nil {
			ui.setStatus("[%s]%s[-]", ui.theme.TagError, ui.board.Message())
			return
		}
		ui.setStatus("[%s]Loaded %d cases[-]", ui.theme.TagSuccess, len(ui.rows))
	})
}

// renderCases rebuilds the table from the board, keeping the selected row
// where possible.
func (ui *UI) renderCases() {
	selected, _ := ui.table.GetSelection()

	ui.rows = ui.board.Cases()
	ui.table.Clear()

	headers := []string{"ID", "Case #", "Title", "Status", "Last modified"}
	for col, header := range headers {
		ui.table.SetCell(0, col, tview.NewTableCell(header).
			SetTextColor(ui.theme.TableHeader).
			SetBackgroundColor(ui.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}

	if len(ui.rows) == 0 {
		ui.table.SetCell(1, 0, tview.NewTableCell("No cases. Press n to create one.").
			SetTextColor(ui.theme.TableRowMuted).
			SetSelectable(false))
		ui.detail.SetText("")
		return
	}

	for i, c := range ui.rows {
		row := i + 1
		for col, text := range caseRow(c) {
			cell := tview.NewTableCell(tview.Escape(text)).SetTextColor(ui.theme.TableRow)
			if col == 2 {
				cell.SetExpansion(1)
			}
			if col == 3 {
				cell.SetTextColor(tcell.GetColor(ui.theme.statusTag(c.Status)))
			}
			ui.table.SetCell(row, col, cell)
		}
	}

	if selected < 1 {
		selected = 1
	}
	if selected > len(ui.rows) {
		selected = len(ui.rows)
	}
	ui.table.Select(selected, 0)
	if c, ok := ui.caseAt(selected); ok {
		ui.detail.SetText(ui.caseDetail(c))
	}
}

// caseRow returns the table cells for c.
func caseRow(c cases.Case) []string {
	modified := ""
	if !c.LastModifiedDateTime.IsZero() {
		modified = c.LastModifiedDateTime.Local().Format("2006-01-02 15:04")
	}
	return []string{
		strconv.FormatInt(c.ID, 10),
		c.CaseNumber,
		c.Title,
		string(c.Status),
		modified,
	}
}

func (ui *UI) caseDetail(c cases.Case) string {
	label := func(s string) string { return fmt.Sprintf("[%s]%s:[-]", ui.theme.TagMuted, s) }
	description := c.DescriptionText()
	if description == "" {
		description = fmt.Sprintf("[%s](none)[-]", ui.theme.TagMuted)
	} else {
		description = tview.Escape(description)
	}
	return fmt.Sprintf("%s %d\n%s %s\n%s %s\n%s [%s]%s[-]\n%s %s\n%s %s\n\n%s\n%s",
		label("ID"), c.ID,
		label("Case number"), tview.Escape(c.CaseNumber),
		label("Title"), tview.Escape(c.Title),
		label("Status"), ui.theme.statusTag(c.Status), c.Status,
		label("Created"), formatTime(c.CreatedDateTime),
		label("Modified"), formatTime(c.LastModifiedDateTime),
		label("Description"), description,
	)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC1123)
}

func (ui *UI) caseAt(row int) (cases.Case, bool) {
	i := row - 1
	if i < 0 || i >= len(ui.rows) {
		return cases.Case{}, false
	}
	return ui.rows[i], true
}

func (ui *UI) selectedCase() (cases.Case, bool) {
	row, _ := ui.table.GetSelection()
	c, ok := ui.caseAt(row)
	if !ok {
		ui.setStatus("[%s]Select a case first[-]", ui.theme.TagWarning)
	}
	return c, ok
}

// openEdit fetches a fresh copy of c before showing the edit form.
func (ui *UI) openEdit(c cases.Case) {
	ui.setStatus("[%s]Loading case %d...[-]", ui.theme.TagAccent, c.ID)
	go ui.loadForEdit(strconv.FormatInt(c.ID, 10))
}

// loadForEdit resolves raw through the board and opens the edit form, or a
// not-found notice when the case cannot be fetched.
func (ui *UI) loadForEdit(raw string) {
	c, err := ui.board.Lookup(ui.ctx, raw)
	if err != nil {
		ui.logger.Info("case not found for edit", zap.String("id", raw), zap.Error(err))
		ui.update(func() {
			ui.showModal("Not Found", fmt.Sprintf("Case %s was not found.", raw))
		})
		ui.refresh()
		return
	}
	ui.update(func() {
		ui.showCaseForm(form.NewEdit(ui.backend, c, ui.logger))
	})
}

// setStatus updates the status bar. Call on the tview goroutine.
func (ui *UI) setStatus(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05")
	hints := fmt.Sprintf("[%s]n[-]:new [%s]e[-]:edit [%s]d[-]:delete [%s]r[-]:reload [%s]?[-]:help [%s]q[-]:quit",
		ui.theme.TagAccent, ui.theme.TagAccent, ui.theme.TagAccent,
		ui.theme.TagAccent, ui.theme.TagAccent, ui.theme.TagAccent)
	ui.statusBar.SetText(fmt.Sprintf("[%s]%s[-] %s [%s]|[-] %s",
		ui.theme.TagMuted, timestamp, message, ui.theme.TagMuted, hints))
}

func (ui *UI) applyTheme() {
	t := ui.theme
	for _, box := range []*tview.Box{ui.table.Box, ui.detail.Box, ui.statusBar.Box, ui.appTitle.Box} {
		box.SetBackgroundColor(t.Bg)
		box.SetBorderColor(t.Border)
		box.SetTitleColor(t.TextPrimary)
	}
	ui.table.SetBorderColor(t.FocusBorder)
	ui.table.SetSelectedStyle(tcell.StyleDefault.Background(t.SelectionBg).Foreground(t.SelectionFg))
	ui.detail.SetTextColor(t.TextPrimary)
	ui.statusBar.SetTextColor(t.TextPrimary)
	ui.appTitle.SetTextColor(t.TextPrimary)
	ui.appTitle.SetText(fmt.Sprintf(" [%s::b]case-board[-::-] [%s]theme: %s[-]", t.TagAccent, t.TagMuted, ui.themeName))
}

func (ui *UI) cycleTheme() {
	next := ThemeNames[0]
	for i, name := range ThemeNames {
		if name == ui.themeName {
			next = ThemeNames[(i+1)%len(ThemeNames)]
			break
		}
	}
	ui.theme, ui.themeName = themeByName(next)
	ui.applyTheme()
	ui.renderCases()
	ui.setStatus("[%s]Theme: %s[-]", ui.theme.TagSuccess, ui.themeName)
}
