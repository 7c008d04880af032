package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Smallest screen the board lays out usefully on.
const (
	minTUIWidth  = 60
	minTUIHeight = 15
)

// probeTerminal initializes a tcell screen to check the terminal can host the
// board, and reports its size.
func probeTerminal() (width, height int, ok bool) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return 0, 0, false
	}
	if err := screen.Init(); err != nil {
		return 0, 0, false
	}
	width, height = screen.Size()
	// Clean up immediately
	screen.Fini()
	return width, height, true
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

func getWorkingDir() string {
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	return "."
}

// resolvePathRelativeToBase resolves a possibly relative path against a base directory.
// Absolute paths are returned unchanged.
func resolvePathRelativeToBase(base, p string) string {
	if filepath.IsAbs(p) || p == ":memory:" {
		return p
	}
	// Normalize leading "./" for consistent joining
	p = strings.TrimPrefix(p, "./")
	return filepath.Join(base, p)
}
