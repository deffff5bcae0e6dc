// Package watcher turns photos dropped into per-user inbox folders
// (<root>/<user-id>/<photo>) into food records.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fikafood/fika/internal/models"
)

const defaultDebounce = 400 * time.Millisecond

// RejectedSuffix is appended to photos that could not become a record.
const RejectedSuffix = ".rejected"

// DefaultExtensions are the photo types accepted when none are configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// RecordCreator creates a record from a photo. A non-nil record with an error
// means the record exists but its analysis failed.
type RecordCreator interface {
	Create(ctx context.Context, userID, fileName string, image []byte, description string) (*models.Record, error)
}

// Inbox watches a root directory and hands every new photo to a RecordCreator.
// Consumed photos are removed; photos that produced no record are renamed
// with RejectedSuffix.
type Inbox struct {
	root        string
	extensions  []string
	creator     RecordCreator
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	ctx         context.Context
	mu          sync.Mutex
	process     sync.Mutex // one photo at a time
	debounceMap map[string]*time.Timer
	done        chan struct{} // closed by Stop; replaced on each Start
	started     bool
	logger      *zap.Logger
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Inbox) { in.logger = l }
}

// WithDebounce sets how long a file must stay quiet before it is processed.
func WithDebounce(d time.Duration) Option {
	return func(in *Inbox) { in.debounce = d }
}

// NewInbox creates an inbox over root. Empty extensions means DefaultExtensions.
func NewInbox(root string, extensions []string, creator RecordCreator, opts ...Option) *Inbox {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	in := &Inbox{
		root:        filepath.Clean(root),
		extensions:  extensions,
		creator:     creator,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = zap.NewNop()
	}
	return in
}

// Root returns the watched directory.
func (in *Inbox) Root() string { return in.root }

// Start creates the root if needed, watches it and every user folder, and
// runs until ctx is cancelled or Stop is called. Photos already present are
// not processed; call SyncExisting for that.
func (in *Inbox) Start(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.started {
		return nil
	}
	if err := os.MkdirAll(in.root, 0755); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	err = filepath.WalkDir(in.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return err
	}
	in.watcher = w
	in.ctx = ctx
	in.done = make(chan struct{})
	in.started = true
	in.logger.Info("photo inbox watching", zap.String("root", in.root), zap.Strings("extensions", in.extensions))
	go in.run(ctx, in.done, w.Events, w.Errors)
	return nil
}

func (in *Inbox) run(ctx context.Context, done chan struct{}, events <-chan fsnotify.Event, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			in.stop(done)
			return
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			in.handleEvent(ev)
		case err, ok := <-errs:
			if !ok {
				return
			}
			if err != nil {
				in.logger.Debug("inbox watcher error", zap.Error(err))
			}
		}
	}
}

func (in *Inbox) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if !inDir(in.root, path) {
		return
	}
	in.logger.Debug("inbox event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			in.handleNewDirectory(path)
			return
		}
		if in.accepts(path) {
			in.debounceProcess(path)
		}
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		in.cancelDebounce(path)
	}
}

// handleNewDirectory watches a new user folder and picks up photos that
// were copied in together with it.
func (in *Inbox) handleNewDirectory(dir string) {
	in.mu.Lock()
	w := in.watcher
	in.mu.Unlock()
	if w == nil {
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				in.logger.Debug("inbox failed to watch directory", zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		if in.accepts(path) {
			in.debounceProcess(path)
		}
		return nil
	})
}

// userOf returns the user folder a photo was dropped into, or "" for files
// directly under the root.
func (in *Inbox) userOf(path string) string {
	rel, err := filepath.Rel(in.root, path)
	if err != nil {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 || parts[0] == "." || parts[0] == ".." {
		return ""
	}
	return parts[0]
}

func (in *Inbox) accepts(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return in.userOf(path) != "" && matchExtension(path, in.extensions)
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func matchExtension(path string, extensions []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if len(extensions) == 0 {
		return true
	}
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (in *Inbox) debounceProcess(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.started {
		return
	}
	if t, ok := in.debounceMap[path]; ok {
		t.Stop()
	}
	in.debounceMap[path] = time.AfterFunc(in.debounce, func() {
		in.mu.Lock()
		delete(in.debounceMap, path)
		ctx := in.ctx
		in.mu.Unlock()
		in.Process(ctx, path)
	})
}

func (in *Inbox) cancelDebounce(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.debounceMap[path]; ok {
		t.Stop()
		delete(in.debounceMap, path)
	}
}

// Process turns one photo into a record. It reports whether a record was created.
func (in *Inbox) Process(ctx context.Context, path string) bool {
	in.process.Lock()
	defer in.process.Unlock()

	userID := in.userOf(path)
	if userID == "" {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		// Already consumed or moved away.
		in.logger.Debug("inbox skip unreadable file", zap.String("path", path), zap.Error(err))
		return false
	}
	logger := in.logger.With(zap.String("path", path), zap.String("user_id", userID))

	rec, err := in.creator.Create(ctx, userID, filepath.Base(path), data, "")
	if rec == nil {
		logger.Warn("inbox photo rejected", zap.Error(err))
		if rerr := os.Rename(path, path+RejectedSuffix); rerr != nil {
			logger.Error("failed to mark photo rejected", zap.Error(rerr))
		}
		return false
	}
	if err != nil {
		logger.Warn("inbox photo analysis failed", zap.String("record_id", rec.ID), zap.Error(err))
	} else {
		logger.Info("inbox photo recorded", zap.String("record_id", rec.ID))
	}
	if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
		logger.Error("failed to remove consumed photo", zap.Error(rerr))
	}
	return true
}

// SyncExisting processes every photo already waiting in the inbox and returns
// how many became records.
func (in *Inbox) SyncExisting(ctx context.Context) int {
	var paths []string
	_ = filepath.WalkDir(in.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if in.accepts(path) {
			paths = append(paths, path)
		}
		return nil
	})
	in.logger.Debug("inbox syncing existing photos", zap.Int("count", len(paths)))
	created := 0
	for _, p := range paths {
		if in.Process(ctx, p) {
			created++
		}
	}
	return created
}

// Stop stops watching and drops pending photos; they are picked up again by
// the next SyncExisting. The inbox can be started again afterwards.
func (in *Inbox) Stop() { in.stop(nil) }

// stop ends the run identified by done, or the current run when done is nil.
func (in *Inbox) stop(done chan struct{}) {
	in.mu.Lock()
	if !in.started || in.watcher == nil || (done != nil && done != in.done) {
		in.mu.Unlock()
		return
	}
	for path, t := range in.debounceMap {
		t.Stop()
		delete(in.debounceMap, path)
	}
	_ = in.watcher.Close()
	in.watcher = nil
	in.started = false
	close(in.done)
	in.mu.Unlock()
}
