// Package board holds the list-view state of the case board: the loaded
// cases, the last operation message, and lookup of a case to edit.
package board

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Ashfaaq98/case-board/internal/api"
	"github.com/Ashfaaq98/case-board/internal/cases"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Lookup when there is no case to edit.
var ErrNotFound = errors.New("case not found")

// Backend is the part of the API client the board reads and deletes with.
type Backend interface {
	FindAllCases(ctx context.Context) (api.ListResult, error)
	FindCaseByID(ctx context.Context, id int64) (api.FindResult, error)
	DeleteCase(ctx context.Context, id int64) error
}

// Options tunes board behaviour.
type Options struct {
	// EmptyOnError makes a failed load show an empty list with no message.
	// When false the failure is reported through Message and Load's error.
	EmptyOnError bool
	Logger       *zap.Logger
}

// Board is the list state of one mounted board view.
type Board struct {
	backend Backend
	opts    Options
	logger  *zap.Logger

	loadSeq atomic.Uint64

	mu      sync.Mutex
	cases   []cases.Case
	message string
}

// New creates an empty board.
func New(backend Backend, opts Options) *Board {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		backend: backend,
		opts:    opts,
		logger:  logger,
		cases:   []cases.Case{},
	}
}

// Cases returns a copy of the loaded cases.
func (b *Board) Cases() []cases.Case {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]cases.Case, len(b.cases))
	copy(out, b.cases)
	return out
}

// Message returns the last operation message.
func (b *Board) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.message
}

// Load replaces the list with the backend's cases. A load overtaken by a newer
// Load is dropped. With EmptyOnError the list is cleared on failure and nil is
// returned; otherwise the error is returned and set as the message.
func (b *Board) Load(ctx context.Context) error {
	token := b.loadSeq.Add(1)

	res, err := b.backend.FindAllCases(ctx)
	if err == nil && res.Error != nil {
		err = fmt.Errorf("list cases: %s", res.Error.Summary())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if token != b.loadSeq.Load() {
		b.logger.Debug("dropping stale load", zap.Uint64("token", token))
		return nil
	}

	if err != nil {
		b.logger.Warn("error in finding all cases", zap.Error(err))
		b.cases = []cases.Case{}
		if b.opts.EmptyOnError {
			return nil
		}
		b.message = "Failed to load cases"
		return err
	}

	b.cases = res.Cases
	if b.cases == nil {
		b.cases = []cases.Case{}
	}
	return nil
}

// Delete removes case id on the backend and then from the list.
func (b *Board) Delete(ctx context.Context, id int64) error {
	err := b.backend.DeleteCase(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.message = fmt.Sprintf("Error occurred while deleting case %d", id)
		b.logger.Warn(b.message, zap.Error(err))
		return err
	}

	kept := b.cases[:0:0]
	for _, c := range b.cases {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	b.cases = kept
	b.message = fmt.Sprintf("Successfully deleted case with ID: %d", id)
	return nil
}

// ParseID parses a case id as written in a path or argument. Only a plain
// non-negative decimal integer is accepted.
func ParseID(raw string) (int64, bool) {
	if raw == "" || raw != strings.TrimSpace(raw) {
		return -1, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 || strconv.FormatInt(id, 10) != raw {
		return -1, false
	}
	return id, true
}

// Lookup resolves raw to the case to edit. Any failure, including transport
// errors, ends in ErrNotFound so the caller can show its not-found view.
func (b *Board) Lookup(ctx context.Context, raw string) (cases.Case, error) {
	id, ok := ParseID(raw)
	if !ok {
		return cases.Case{}, fmt.Errorf("%w: invalid id %q", ErrNotFound, raw)
	}

	res, err := b.backend.FindCaseByID(ctx, id)
	if err != nil {
		b.logger.Warn("error in finding case", zap.Int64("id", id), zap.Error(err))
		return cases.Case{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if res.Error != nil {
		return cases.Case{}, fmt.Errorf("%w: %s", ErrNotFound, res.Error.Summary())
	}
	if res.Case == nil {
		return cases.Case{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return *res.Case, nil
}
