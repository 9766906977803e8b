package audio_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"voice-cart/internal/domain"
	"voice-cart/internal/infra/audio"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileSource_LoadFromDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	testCases := []struct {
		filename string
		content  []byte
	}{
		{"command1.wav", []byte("RIFF....WAVEfmt audio data 1")},
		{"command2.ogg", []byte("OggS audio data 2")},
		{"notes.md", []byte("ignored")},
	}

	for _, tc := range testCases {
		path := filepath.Join(tmpDir, tc.filename)
		if err := os.WriteFile(path, tc.content, 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}
	}

	source := audio.NewFileSource(tmpDir, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := source.Start(ctx); err != nil {
		t.Fatalf("starting source: %v", err)
	}

	first, err := source.NextCommand(ctx)
	if err != nil {
		t.Fatalf("reading first command: %v", err)
	}
	if string(first) != "RIFF....WAVEfmt audio data 1" {
		t.Errorf("first: got %q", first)
	}

	second, err := source.NextCommand(ctx)
	if err != nil {
		t.Fatalf("reading second command: %v", err)
	}
	if string(second) != "OggS audio data 2" {
		t.Errorf("second: got %q", second)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "command1.wav.processed")); err != nil {
		t.Errorf("processed file not renamed: %v", err)
	}

	short, cancelShort := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer cancelShort()
	if _, err := source.NextCommand(short); err == nil {
		t.Error("expected timeout once the directory is drained")
	}
}

func TestFileSource_TextOrder(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "order.txt"), []byte("  add two mangoes\n"), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	source := audio.NewFileSource(tmpDir, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := source.NextCommand(ctx)
	if err != nil {
		t.Fatalf("NextCommand: %v", err)
	}

	want := domain.TextCommandPrefix + "add two mangoes"
	if string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}
}

func frame(n int, v int16) []int16 {
	f := make([]int16, n)
	for i := range f {
		f[i] = v
	}
	return f
}

func TestFileSource_SkipsUnreadableEntry(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Symlink(filepath.Join(tmpDir, "missing"), filepath.Join(tmpDir, "a.wav")); err != nil {
		t.Fatalf("creating symlink: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "b.txt"), []byte("add milk"), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	source := audio.NewFileSource(tmpDir, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := source.NextCommand(ctx)
	if err != nil {
		t.Fatalf("NextCommand: %v", err)
	}
	if string(data) != domain.TextCommandPrefix+"add milk" {
		t.Errorf("got %q", data)
	}

	// Only the broken entry is left; the source must wait on the poll
	// interval rather than fail straight away.
	short, cancelShort := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer cancelShort()

	start := time.Now()
	_, err = source.NextCommand(short)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("returned after %v without waiting", elapsed)
	}
}

func TestFileSource_RenameFailureDoesNotReplay(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "c.txt"), []byte("add rice"), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	blocker := filepath.Join(tmpDir, "c.txt.processed")
	if err := os.MkdirAll(filepath.Join(blocker, "keep"), 0755); err != nil {
		t.Fatalf("creating blocker: %v", err)
	}

	var logs bytes.Buffer
	source := audio.NewFileSource(tmpDir, slog.New(slog.NewTextHandler(&logs, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := source.NextCommand(ctx)
	if err != nil {
		t.Fatalf("NextCommand: %v", err)
	}
	if string(data) != domain.TextCommandPrefix+"add rice" {
		t.Errorf("got %q", data)
	}
	if !bytes.Contains(logs.Bytes(), []byte("marking file processed")) {
		t.Errorf("rename failure not logged: %s", logs.String())
	}

	short, cancelShort := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer cancelShort()
	if data, err := source.NextCommand(short); err == nil {
		t.Errorf("file replayed: %q", data)
	}
}

func TestSegmenter_EndsOnTrailingSilence(t *testing.T) {
	seg := audio.NewSegmenter(1000, 500)

	if seg.Push(frame(500, 0)) {
		t.Fatal("leading silence should not end the utterance")
	}
	if seg.Push(frame(200, 3000)) {
		t.Fatal("speech should not end the utterance")
	}
	if seg.Push(frame(600, 10)) {
		t.Fatal("short pause should not end the utterance")
	}
	if !seg.Push(frame(400, -10)) {
		t.Fatal("one second of silence should end the utterance")
	}

	if n := len(seg.Samples()); n != 1200 {
		t.Errorf("samples: got %d, want 1200", n)
	}

	seg.Reset()
	if len(seg.Samples()) != 0 {
		t.Error("Reset should drop samples")
	}
}

func TestSegmenter_LengthCap(t *testing.T) {
	seg := audio.NewSegmenter(100, 500)

	done := false
	pushes := 0
	for !done && pushes < 100 {
		done = seg.Push(frame(50, -2000))
		pushes++
	}

	if !done {
		t.Fatal("continuous speech should hit the cap")
	}
	if pushes != 20 {
		t.Errorf("pushes: got %d, want 20", pushes)
	}
}
