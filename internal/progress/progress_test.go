package progress

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCallbackReporter_SetTotal(t *testing.T) {
	var updates []Update
	var mu sync.Mutex

	reporter := NewCallbackReporter(func(u Update) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	})

	reporter.SetTotal(10, 1024*1024)
	reporter.Start("etc/hosts", 100)

	mu.Lock()
	defer mu.Unlock()

	if len(updates) == 0 {
		t.Fatal("expected updates")
	}
	update := updates[0]
	if update.FilesTotal != 10 {
		t.Errorf("expected FilesTotal 10, got %d", update.FilesTotal)
	}
	if update.BytesTotal != 1024*1024 {
		t.Errorf("expected BytesTotal 1048576, got %d", update.BytesTotal)
	}
}

func TestCallbackReporter_Start(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.Start("etc/passwd", 500)

	if update.Type != UpdateStart {
		t.Errorf("expected UpdateStart, got %v", update.Type)
	}
	if update.CurrentFile != "etc/passwd" {
		t.Errorf("expected file name 'etc/passwd', got '%s'", update.CurrentFile)
	}
	if update.CurrentTotal != 500 {
		t.Errorf("expected total 500, got %d", update.CurrentTotal)
	}
}

func TestCallbackReporter_Update(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.Start("etc/hosts", 1000)
	time.Sleep(5 * time.Millisecond) // Small delay for speed calculation
	reporter.Update(250)

	if update.Type != UpdateProgress {
		t.Errorf("expected UpdateProgress, got %v", update.Type)
	}
	if update.CurrentBytes != 250 {
		t.Errorf("expected 250 bytes, got %d", update.CurrentBytes)
	}
	if update.BytesPerSecond <= 0 {
		t.Error("expected positive hashing speed")
	}
}

func TestCallbackReporter_Complete(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.SetTotal(2, 1500)
	reporter.Start("a.bin", 1000)
	reporter.Complete()

	if update.Type != UpdateComplete {
		t.Errorf("expected UpdateComplete, got %v", update.Type)
	}
	if update.FilesHashed != 1 {
		t.Errorf("expected 1 file hashed, got %d", update.FilesHashed)
	}
	if update.BytesHashed != 1000 {
		t.Errorf("expected 1000 bytes hashed, got %d", update.BytesHashed)
	}

	reporter.Start("b.bin", 500)
	reporter.Complete()

	if update.FilesHashed != 2 || update.BytesHashed != 1500 {
		t.Errorf("unexpected running totals: %+v", update)
	}
}

func TestCallbackReporter_Error(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.Start("locked.bin", 100)
	reporter.Error(errors.New("permission denied"))

	if update.Type != UpdateError {
		t.Errorf("expected UpdateError, got %v", update.Type)
	}
	if update.Error == nil {
		t.Error("expected error in update")
	}
	if update.CurrentFile != "locked.bin" {
		t.Errorf("expected current file in error update, got '%s'", update.CurrentFile)
	}
}

func TestReader(t *testing.T) {
	var updates []int64
	reporter := NewCallbackReporter(func(u Update) {
		if u.Type == UpdateProgress {
			updates = append(updates, u.CurrentBytes)
		}
	})

	data := strings.Repeat("x", 100)
	reader := NewReader(strings.NewReader(data), reporter)

	var out bytes.Buffer
	n, err := io.CopyBuffer(&out, reader, make([]byte, 40))
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if n != 100 {
		t.Errorf("expected 100 bytes copied, got %d", n)
	}
	if len(updates) == 0 {
		t.Fatal("expected progress updates")
	}
	if updates[len(updates)-1] != 100 {
		t.Errorf("expected final update at 100 bytes, got %d", updates[len(updates)-1])
	}
}

func TestNullReporter(t *testing.T) {
	var r Reporter = NullReporter{}
	r.SetTotal(1, 1)
	r.Start("f", 1)
	r.Update(1)
	r.Complete()
	r.Error(errors.New("ignored"))
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}
	for _, c := range cases {
		if got := FormatBytes(c.bytes); got != c.want {
			t.Errorf("FormatBytes(%d) = %s, want %s", c.bytes, got, c.want)
		}
	}
}

func TestFormatProgress(t *testing.T) {
	if got := FormatProgress(0, 0, 10); got != "" {
		t.Errorf("expected empty bar for zero total, got %q", got)
	}
	got := FormatProgress(50, 100, 10)
	if !strings.Contains(got, "50.0%") {
		t.Errorf("expected 50%% bar, got %q", got)
	}
}
