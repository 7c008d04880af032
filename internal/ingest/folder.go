// Package ingest imports case records from files into the case backend.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/Ashfaaq98/case-board/internal/form"
)

// FolderOptions controls import behavior.
type FolderOptions struct {
	Dir      string
	Watch    bool
	Patterns []string // e.g. []string{"*.jsonl", "*.json"}
	Logger   *zap.Logger
	// When true and in Watch mode, start JSONL files at EOF on startup so
	// existing lines are not imported again each time the importer starts.
	TailFromEnd bool
}

// Stats counts import outcomes.
type Stats struct {
	Imported int // accepted by the backend
	Invalid  int // failed local validation or could not be decoded
	Rejected int // refused by the backend or not delivered
}

// FolderImporter submits case records found in a directory (one-shot or watch mode).
// Every record goes through a create form, so local validation and backend
// error handling are exactly those of an interactive create.
type FolderImporter struct {
	remote form.Remote
	opts   FolderOptions
	logger *zap.Logger

	offsets map[string]int64 // per-file tail offset for jsonl
	mu      sync.Mutex
	stats   Stats
}

// NewFolderImporter constructs a folder importer.
func NewFolderImporter(remote form.Remote, opts FolderOptions) *FolderImporter {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = []string{"*.jsonl", "*.json"}
	}
	return &FolderImporter{
		remote:  remote,
		opts:    opts,
		logger:  opts.Logger.Named("import"),
		offsets: make(map[string]int64),
	}
}

// Stats returns a snapshot of the outcome counters.
func (fi *FolderImporter) Stats() Stats {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	return fi.stats
}

// Run executes the import per options (one-shot or watch).
func (fi *FolderImporter) Run(ctx context.Context) error {
	if err := fi.scanOnce(ctx); err != nil {
		return err
	}

	if !fi.opts.Watch {
		s := fi.Stats()
		fi.logger.Info("completed one-shot import",
			zap.Int("imported", s.Imported), zap.Int("invalid", s.Invalid), zap.Int("rejected", s.Rejected))
		return nil
	}

	return fi.watchLoop(ctx)
}

func (fi *FolderImporter) matches(name string) bool {
	lower := strings.ToLower(name)
	for _, pat := range fi.opts.Patterns {
		p := strings.TrimSpace(strings.ToLower(pat))
		if ok, _ := filepath.Match(p, lower); ok {
			return true
		}
	}
	return false
}

func (fi *FolderImporter) scanOnce(ctx context.Context) error {
	entries, err := os.ReadDir(fi.opts.Dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !fi.matches(e.Name()) {
			continue
		}
		path := filepath.Join(fi.opts.Dir, e.Name())
		if isJSONL(e.Name()) {
			if fi.opts.Watch && fi.opts.TailFromEnd {
				if st, err := os.Stat(path); err == nil {
					fi.setOffset(path, st.Size())
				}
				continue
			}
			offset, err := fi.processJSONL(ctx, path, 0)
			if err != nil {
				fi.logger.Warn("error processing file", zap.String("path", path), zap.Error(err))
			}
			fi.setOffset(path, offset)
			continue
		}
		if err := fi.processJSONFile(ctx, path); err != nil {
			fi.logger.Warn("error processing file", zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

func (fi *FolderImporter) watchLoop(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer w.Close()

	if err := w.Add(fi.opts.Dir); err != nil {
		return fmt.Errorf("watch add: %w", err)
	}

	fi.logger.Info("watching directory",
		zap.String("dir", fi.opts.Dir), zap.Strings("patterns", fi.opts.Patterns))

	for {
		select {
		case <-ctx.Done():
			s := fi.Stats()
			fi.logger.Info("watch stopping",
				zap.Int("imported", s.Imported), zap.Int("invalid", s.Invalid), zap.Int("rejected", s.Rejected))
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			fi.handleEvent(ctx, ev)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fi.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (fi *FolderImporter) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if !fi.matches(filepath.Base(ev.Name)) {
		return
	}

	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		fi.mu.Lock()
		delete(fi.offsets, ev.Name)
		fi.mu.Unlock()
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	if isJSONL(ev.Name) {
		fi.mu.Lock()
		offset := fi.offsets[ev.Name]
		fi.mu.Unlock()

		newOffset, err := fi.processJSONL(ctx, ev.Name, offset)
		if err != nil {
			fi.logger.Warn("error tailing file", zap.String("path", ev.Name), zap.Error(err))
			return
		}
		fi.setOffset(ev.Name, newOffset)
		return
	}

	// Whole-file JSON is re-read on every write; records already imported are
	// refused by the backend as duplicate case numbers.
	if err := fi.processJSONFile(ctx, ev.Name); err != nil {
		fi.logger.Warn("error processing file", zap.String("path", ev.Name), zap.Error(err))
	}
}

func (fi *FolderImporter) setOffset(path string, offset int64) {
	fi.mu.Lock()
	fi.offsets[path] = offset
	fi.mu.Unlock()
}

// processJSONL imports complete lines from startOffset and returns the offset
// after the last imported line. In watch mode a trailing partial line is left
// for the next pass; a one-shot import takes it as the final record.
func (fi *FolderImporter) processJSONL(ctx context.Context, path string, startOffset int64) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		// File might be transiently missing (rename/rotate)
		return startOffset, err
	}
	defer f.Close()

	if st, err := f.Stat(); err == nil && st.Size() < startOffset {
		// Truncated; start over.
		startOffset = 0
	}
	if _, err := f.Seek(startOffset, io.SeekStart); err != nil {
		return startOffset, err
	}

	reader := bufio.NewReaderSize(f, 64*1024)
	offset := startOffset
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			if fi.opts.Watch || len(line) == 0 {
				return offset, nil
			}
			offset += int64(len(line))
			if trim := strings.TrimSpace(string(line)); trim != "" {
				fi.submitRaw(ctx, path, []byte(trim))
			}
			return offset, nil
		}
		if err != nil {
			return offset, err
		}
		offset += int64(len(line))

		trim := strings.TrimSpace(string(line))
		if trim == "" {
			continue
		}
		fi.submitRaw(ctx, path, []byte(trim))
	}
}

// processJSONFile imports a file holding one case object or an array of them.
func (fi *FolderImporter) processJSONFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	trim := strings.TrimSpace(string(data))
	if trim == "" {
		return nil
	}

	if strings.HasPrefix(trim, "[") {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(trim), &arr); err != nil {
			fi.count(func(s *Stats) { s.Invalid++ })
			return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
		}
		for _, raw := range arr {
			fi.submitRaw(ctx, path, raw)
		}
		return nil
	}

	fi.submitRaw(ctx, path, []byte(trim))
	return nil
}

// record is the on-disk shape of one case. Description may be null.
type record struct {
	CaseNumber  string  `json:"caseNumber"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

func (fi *FolderImporter) submitRaw(ctx context.Context, path string, raw []byte) {
	log := fi.logger.With(zap.String("file", filepath.Base(path)))

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		log.Warn("skipping undecodable record", zap.Error(err))
		fi.count(func(s *Stats) { s.Invalid++ })
		return
	}
	in := cases.Input{CaseNumber: rec.CaseNumber, Title: rec.Title, Status: rec.Status}
	if rec.Description != nil {
		in.Description = *rec.Description
	}

	// A fresh controller per record keeps one record's state out of the next.
	sub := form.NewCreate(fi.remote, fi.logger).Submit(ctx, in)
	switch o := sub.Outcome.(type) {
	case form.Succeeded:
		log.Info("imported case", zap.String("case_number", in.CaseNumber))
		fi.count(func(s *Stats) { s.Imported++ })
	case form.ValidationFailed:
		log.Warn("invalid case record", zap.String("case_number", in.CaseNumber), zap.String("errors", o.Errors.Error()))
		fi.count(func(s *Stats) { s.Invalid++ })
	case form.RemoteRejected:
		fields := []zap.Field{zap.String("case_number", in.CaseNumber), zap.String("message", o.Message)}
		if o.ErrorResponse != nil {
			fields = append(fields, zap.String("error", o.ErrorResponse.Summary()))
		}
		log.Warn("case record rejected", fields...)
		fi.count(func(s *Stats) { s.Rejected++ })
	}
}

func (fi *FolderImporter) count(f func(*Stats)) {
	fi.mu.Lock()
	f(&fi.stats)
	fi.mu.Unlock()
}

func isJSONL(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".jsonl")
}
