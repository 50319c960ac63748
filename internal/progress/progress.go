package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Reporter receives progress events while a directory tree is enumerated
// and hashed into a snapshot
type Reporter interface {
	// SetTotal records the enumeration result before hashing begins
	SetTotal(totalFiles int, totalBytes int64)
	// Start begins tracking one file
	Start(path string, sizeBytes int64)
	// Update reports bytes hashed so far for the current file
	Update(bytesHashed int64)
	// Complete marks the current file as fully hashed
	Complete()
	// Error reports a per-file failure; the walk continues
	Error(err error)
}

// Callback is a function that receives progress updates
type Callback func(update Update)

// Update represents one progress event
type Update struct {
	Type           UpdateType
	CurrentFile    string
	CurrentBytes   int64
	CurrentTotal   int64
	FilesHashed    int
	FilesTotal     int
	BytesHashed    int64
	BytesTotal     int64
	BytesPerSecond float64
	Error          error
}

// UpdateType indicates the type of progress update
type UpdateType int

const (
	UpdateStart UpdateType = iota
	UpdateProgress
	UpdateComplete
	UpdateError
)

// CallbackReporter implements Reporter with a callback function
type CallbackReporter struct {
	callback     Callback
	mu           sync.Mutex
	currentFile  string
	currentTotal int64
	currentBytes int64
	filesTotal   int
	bytesTotal   int64
	filesHashed  int
	bytesHashed  int64
	startTime    time.Time
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{callback: callback}
}

// SetTotal sets the total number of files and bytes to hash
func (r *CallbackReporter) SetTotal(totalFiles int, totalBytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filesTotal = totalFiles
	r.bytesTotal = totalBytes
}

// Start begins tracking one file
func (r *CallbackReporter) Start(path string, sizeBytes int64) {
	r.mu.Lock()
	r.currentFile = path
	r.currentTotal = sizeBytes
	r.currentBytes = 0
	r.startTime = time.Now()

	update := Update{
		Type:         UpdateStart,
		CurrentFile:  path,
		CurrentTotal: sizeBytes,
		FilesHashed:  r.filesHashed,
		FilesTotal:   r.filesTotal,
		BytesHashed:  r.bytesHashed,
		BytesTotal:   r.bytesTotal,
	}
	callback := r.callback
	r.mu.Unlock()

	// Call callback outside lock to prevent deadlock
	if callback != nil {
		callback(update)
	}
}

// Update reports bytes hashed so far for the current file
func (r *CallbackReporter) Update(bytesHashed int64) {
	r.mu.Lock()
	r.currentBytes = bytesHashed

	var bytesPerSecond float64
	elapsed := time.Since(r.startTime).Seconds()
	if elapsed > 0 {
		bytesPerSecond = float64(bytesHashed) / elapsed
	}

	update := Update{
		Type:           UpdateProgress,
		CurrentFile:    r.currentFile,
		CurrentBytes:   bytesHashed,
		CurrentTotal:   r.currentTotal,
		FilesHashed:    r.filesHashed,
		FilesTotal:     r.filesTotal,
		BytesHashed:    r.bytesHashed + bytesHashed,
		BytesTotal:     r.bytesTotal,
		BytesPerSecond: bytesPerSecond,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// Complete marks the current file as fully hashed
func (r *CallbackReporter) Complete() {
	r.mu.Lock()
	r.filesHashed++
	r.bytesHashed += r.currentTotal

	update := Update{
		Type:         UpdateComplete,
		CurrentFile:  r.currentFile,
		CurrentBytes: r.currentTotal,
		CurrentTotal: r.currentTotal,
		FilesHashed:  r.filesHashed,
		FilesTotal:   r.filesTotal,
		BytesHashed:  r.bytesHashed,
		BytesTotal:   r.bytesTotal,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// Error reports a per-file failure
func (r *CallbackReporter) Error(err error) {
	r.mu.Lock()
	update := Update{
		Type:        UpdateError,
		CurrentFile: r.currentFile,
		FilesHashed: r.filesHashed,
		FilesTotal:  r.filesTotal,
		BytesHashed: r.bytesHashed,
		BytesTotal:  r.bytesTotal,
		Error:       err,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// Reader wraps an io.Reader to report bytes as they are hashed
type Reader struct {
	reader   io.Reader
	reporter Reporter
	hashed   int64
}

// NewReader creates a progress-tracking reader
func NewReader(r io.Reader, reporter Reporter) *Reader {
	return &Reader{reader: r, reporter: reporter}
}

// Read implements io.Reader
func (pr *Reader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.hashed += int64(n)
		if pr.reporter != nil {
			pr.reporter.Update(pr.hashed)
		}
	}
	return n, err
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) SetTotal(totalFiles int, totalBytes int64) {}
func (NullReporter) Start(path string, sizeBytes int64)        {}
func (NullReporter) Update(bytesHashed int64)                  {}
func (NullReporter) Complete()                                 {}
func (NullReporter) Error(err error)                           {}

// FormatBytes formats bytes into a human-readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatSpeed formats bytes per second into a human-readable string
func FormatSpeed(bytesPerSecond float64) string {
	return FormatBytes(int64(bytesPerSecond)) + "/s"
}

// FormatProgress returns a progress bar string
func FormatProgress(current, total int64, width int) string {
	if total == 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}

	bar := make([]byte, width)
	for i := 0; i < width; i++ {
		if i < filled {
			bar[i] = '='
		} else if i == filled {
			bar[i] = '>'
		} else {
			bar[i] = ' '
		}
	}

	return fmt.Sprintf("[%s] %5.1f%%", string(bar), percent*100)
}
