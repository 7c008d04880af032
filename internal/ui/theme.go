package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/Ashfaaq98/case-board/internal/cases"
)

// Theme holds the colors of the board and its dialogs.
type Theme struct {
	// Widget colors
	Bg          tcell.Color
	Surface     tcell.Color
	Border      tcell.Color
	FocusBorder tcell.Color
	SelectionBg tcell.Color
	SelectionFg tcell.Color
	TextPrimary tcell.Color
	TextMuted   tcell.Color

	// Table colors
	TableHeader   tcell.Color
	TableHeaderBg tcell.Color
	TableRow      tcell.Color
	TableRowMuted tcell.Color

	// Text tag colors (for tview dynamic color markup)
	TagTextPrimary string
	TagMuted       string
	TagAccent      string
	TagSuccess     string
	TagWarning     string
	TagError       string

	// One tag per case status
	TagStatus map[cases.Status]string
}

func hex(s string) tcell.Color { return tcell.GetColor(s) }

func themeDark() Theme {
	return Theme{
		Bg:          hex("#0e1116"),
		Surface:     hex("#12161e"),
		Border:      hex("#2b3240"),
		FocusBorder: hex("#4aa8ff"),
		SelectionBg: hex("#2b3240"),
		SelectionFg: hex("#cfd8e3"),
		TextPrimary: hex("#e6edf3"),
		TextMuted:   hex("#8a939f"),

		TableHeader:   hex("#eab308"),
		TableHeaderBg: hex("#1a2332"),
		TableRow:      hex("#e6edf3"),
		TableRowMuted: hex("#94a3b8"),

		TagTextPrimary: "#e6edf3",
		TagMuted:       "#8a939f",
		TagAccent:      "#2dd4bf",
		TagSuccess:     "#22c55e",
		TagWarning:     "#f59e0b",
		TagError:       "#ef4444",

		TagStatus: map[cases.Status]string{
			cases.StatusNew:          "#87afff",
			cases.StatusAcknowledged: "#ffd75f",
			cases.StatusInProgress:   "#ffaf5f",
			cases.StatusResolved:     "#87ffaf",
			cases.StatusClosed:       "#8a939f",
		},
	}
}

func themeLight() Theme {
	return Theme{
		Bg:          hex("#f6f8fa"),
		Surface:     hex("#ffffff"),
		Border:      hex("#d0d7de"),
		FocusBorder: hex("#0969da"),
		SelectionBg: hex("#ddf4ff"),
		SelectionFg: hex("#0a3069"),
		TextPrimary: hex("#1f2328"),
		TextMuted:   hex("#656d76"),

		TableHeader:   hex("#9a6700"),
		TableHeaderBg: hex("#eaeef2"),
		TableRow:      hex("#1f2328"),
		TableRowMuted: hex("#656d76"),

		TagTextPrimary: "#1f2328",
		TagMuted:       "#656d76",
		TagAccent:      "#0969da",
		TagSuccess:     "#1a7f37",
		TagWarning:     "#9a6700",
		TagError:       "#cf222e",

		TagStatus: map[cases.Status]string{
			cases.StatusNew:          "#0969da",
			cases.StatusAcknowledged: "#9a6700",
			cases.StatusInProgress:   "#bc4c00",
			cases.StatusResolved:     "#1a7f37",
			cases.StatusClosed:       "#656d76",
		},
	}
}

func themeHighContrast() Theme {
	return Theme{
		Bg:          tcell.ColorBlack,
		Surface:     tcell.ColorBlack,
		Border:      tcell.ColorWhite,
		FocusBorder: tcell.ColorYellow,
		SelectionBg: tcell.ColorWhite,
		SelectionFg: tcell.ColorBlack,
		TextPrimary: tcell.ColorWhite,
		TextMuted:   tcell.ColorSilver,

		TableHeader:   tcell.ColorYellow,
		TableHeaderBg: tcell.ColorBlack,
		TableRow:      tcell.ColorWhite,
		TableRowMuted: tcell.ColorSilver,

		TagTextPrimary: "white",
		TagMuted:       "silver",
		TagAccent:      "aqua",
		TagSuccess:     "lime",
		TagWarning:     "yellow",
		TagError:       "red",

		TagStatus: map[cases.Status]string{
			cases.StatusNew:          "aqua",
			cases.StatusAcknowledged: "yellow",
			cases.StatusInProgress:   "fuchsia",
			cases.StatusResolved:     "lime",
			cases.StatusClosed:       "silver",
		},
	}
}

// ThemeNames lists the selectable themes in cycle order.
var ThemeNames = []string{"dark", "light", "high-contrast"}

func themeByName(name string) (Theme, string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "light":
		return themeLight(), "light"
	case "high-contrast", "hc":
		return themeHighContrast(), "high-contrast"
	default:
		return themeDark(), "dark"
	}
}

// statusTag returns the markup color for s, muted for unknown values.
func (t Theme) statusTag(s cases.Status) string {
	if tag, ok := t.TagStatus[s]; ok {
		return tag
	}
	return t.TagMuted
}
