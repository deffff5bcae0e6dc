package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fikafood/fika/internal/models"
)

type call struct {
	userID   string
	fileName string
	data     string
}

type fakeCreator struct {
	mu    sync.Mutex
	calls []call
	// reject makes Create fail without a record; analysisErr returns a failed record.
	reject      bool
	analysisErr bool
}

func (f *fakeCreator) Create(_ context.Context, userID, fileName string, image []byte, _ string) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{userID, fileName, string(image)})
	switch {
	case f.reject:
		return nil, models.NewValidationError("image", "rejected")
	case f.analysisErr:
		return &models.Record{ID: "r-failed", Status: models.StatusFailed}, errors.New("model down")
	}
	return &models.Record{ID: "r1", UserID: userID, Status: models.StatusCompleted}, nil
}

func (f *fakeCreator) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestInbox_ProcessesNewPhoto(t *testing.T) {
	root := t.TempDir()
	mkdirAll(t, filepath.Join(root, "u1"))
	fc := &fakeCreator{}
	in := NewInbox(root, nil, fc, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	photo := filepath.Join(root, "u1", "lunch.jpg")
	writeFile(t, photo, "jpeg-bytes")
	writeFile(t, filepath.Join(root, "u1", "notes.txt"), "ignored")

	waitFor(t, func() bool { return len(fc.snapshot()) == 1 && !exists(photo) })
	got := fc.snapshot()[0]
	if got.userID != "u1" || got.fileName != "lunch.jpg" || got.data != "jpeg-bytes" {
		t.Errorf("call = %+v", got)
	}
	if !exists(filepath.Join(root, "u1", "notes.txt")) {
		t.Error("non-photo file should be left alone")
	}
}

func TestInbox_RestartAfterStop(t *testing.T) {
	root := t.TempDir()
	mkdirAll(t, filepath.Join(root, "u1"))
	fc := &fakeCreator{}
	in := NewInbox(root, nil, fc, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	in.Stop()
	in.Stop()
	if err := in.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer in.Stop()

	photo := filepath.Join(root, "u1", "cena.jpg")
	writeFile(t, photo, "jpeg-bytes")
	waitFor(t, func() bool { return len(fc.snapshot()) == 1 && !exists(photo) })
}

func TestInbox_NewUserFolder(t *testing.T) {
	root := t.TempDir()
	fc := &fakeCreator{}
	in := NewInbox(root, []string{"png"}, fc, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	dir := filepath.Join(root, "u2")
	mkdirAll(t, dir)
	writeFile(t, filepath.Join(dir, "dinner.png"), "png-bytes")

	waitFor(t, func() bool { return len(fc.snapshot()) == 1 })
	if got := fc.snapshot()[0]; got.userID != "u2" || got.fileName != "dinner.png" {
		t.Errorf("call = %+v", got)
	}
}

func TestInbox_RejectedPhotoIsRenamed(t *testing.T) {
	root := t.TempDir()
	photo := filepath.Join(root, "u1", "bad.jpg")
	mkdirAll(t, filepath.Dir(photo))
	writeFile(t, photo, "x")

	fc := &fakeCreator{reject: true}
	in := NewInbox(root, nil, fc)
	if created := in.SyncExisting(context.Background()); created != 0 {
		t.Errorf("created = %d, want 0", created)
	}
	if exists(photo) || !exists(photo+RejectedSuffix) {
		t.Error("rejected photo should be renamed")
	}
	// A rejected photo is not picked up again.
	in.SyncExisting(context.Background())
	if len(fc.snapshot()) != 1 {
		t.Errorf("calls = %d, want 1", len(fc.snapshot()))
	}
}

func TestInbox_FailedAnalysisStillConsumesPhoto(t *testing.T) {
	root := t.TempDir()
	photo := filepath.Join(root, "u1", "blurry.webp")
	mkdirAll(t, filepath.Dir(photo))
	writeFile(t, photo, "x")

	in := NewInbox(root, nil, &fakeCreator{analysisErr: true})
	if !in.Process(context.Background(), photo) {
		t.Error("a failed record is still a record")
	}
	if exists(photo) {
		t.Error("photo should be removed")
	}
}

func TestInbox_SyncExistingSkipsRootFilesAndHidden(t *testing.T) {
	root := t.TempDir()
	mkdirAll(t, filepath.Join(root, "u1"))
	writeFile(t, filepath.Join(root, "orphan.jpg"), "x")
	writeFile(t, filepath.Join(root, "u1", ".partial.jpg"), "x")
	writeFile(t, filepath.Join(root, "u1", "a.JPG"), "x")
	writeFile(t, filepath.Join(root, "u1", "b.jpeg"), "x")

	fc := &fakeCreator{}
	in := NewInbox(root, nil, fc)
	if created := in.SyncExisting(context.Background()); created != 2 {
		t.Errorf("created = %d, want 2", created)
	}
	if !exists(filepath.Join(root, "orphan.jpg")) {
		t.Error("file without a user folder should stay")
	}
}

func TestInbox_StartCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "inbox", "photos")
	in := NewInbox(root, nil, &fakeCreator{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()
	if !exists(root) {
		t.Error("root directory should exist after Start")
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.jpg", []string{".jpg"}, true},
		{"/a/b.JPG", []string{"jpg"}, true},
		{"/a/b.png", []string{".jpg"}, false},
		{"/a/b", nil, true},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.extensions); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/u1/b.jpg", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}
