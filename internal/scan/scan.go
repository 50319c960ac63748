package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ajnelson-nist/dfxml/internal/dfxmlio"
	"github.com/ajnelson-nist/dfxml/internal/domain"
	"github.com/ajnelson-nist/dfxml/internal/logger"
	"github.com/ajnelson-nist/dfxml/internal/progress"
)

// DefaultAlgorithms are the content hashes computed when none are requested
var DefaultAlgorithms = []string{MD5, SHA1, SHA256}

// Options configures a Scanner
type Options struct {
	// Algorithms selects the content hashes to compute. Defaults to
	// DefaultAlgorithms when empty.
	Algorithms []string

	// MaxHashSize: files larger than this are recorded without content
	// hashes (0 = unlimited)
	MaxHashSize int64

	// BufferSize: size of buffer for streaming reads (default 32KB)
	BufferSize int

	// IgnoreNames skips entries by base name in addition to nothing being
	// skipped by default
	IgnoreNames []string

	// Reporter receives progress events; nil disables reporting
	Reporter progress.Reporter
}

// Scanner builds a snapshot from a live directory tree. Every regular file
// is stat'ed and hashed so the result can be diffed against other snapshots.
type Scanner struct {
	root        string
	algorithms  []string
	maxHashSize int64
	bufferSize  int
	ignoreNames map[string]bool
	reporter    progress.Reporter
}

// New creates a Scanner rooted at the given directory
func New(root string, opts Options) (*Scanner, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absRoot)
	}

	algorithms := opts.Algorithms
	if len(algorithms) == 0 {
		algorithms = DefaultAlgorithms
	}
	for _, algo := range algorithms {
		if !IsSupported(algo) {
			return nil, fmt.Errorf("unsupported algorithm: %s", algo)
		}
	}

	ignore := make(map[string]bool, len(opts.IgnoreNames))
	for _, name := range opts.IgnoreNames {
		ignore[name] = true
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.NullReporter{}
	}

	return &Scanner{
		root:        absRoot,
		algorithms:  algorithms,
		maxHashSize: opts.MaxHashSize,
		bufferSize:  opts.BufferSize,
		ignoreNames: ignore,
		reporter:    reporter,
	}, nil
}

// entry is one filesystem object found during enumeration
type entry struct {
	relPath string
	info    os.FileInfo
}

// Scan walks the tree and returns it as a single-volume snapshot. Objects
// carry the synthetic unpartitioned volume ID, the same one snapshot loading
// assigns to file objects outside any volume.
func (s *Scanner) Scan(ctx context.Context) (*domain.Snapshot, error) {
	log := logger.With("component", "scanner", "root", s.root)

	entries, totalBytes, err := s.enumerate(ctx)
	if err != nil {
		return nil, err
	}
	s.reporter.SetTotal(len(entries), totalBytes)

	objects := make([]domain.FileSystemObject, 0, len(entries))
	for _, e := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		obj := s.objectFromEntry(&e)
		if !obj.IsDirectory && s.maxHashSize > 0 && e.info.Size() > s.maxHashSize {
			// Oversized files keep their stat metadata but no hashes
			objects = append(objects, *obj)
			continue
		}
		if !obj.IsDirectory {
			s.reporter.Start(e.relPath, e.info.Size())
			hashes, err := s.hashFile(ctx, e.relPath)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				// Unreadable files stay in the snapshot without hashes;
				// matching falls back to identity for them
				s.reporter.Error(err)
				log.Warn("could not hash file", "path", e.relPath, "error", err)
			} else {
				obj.ContentHashes = hashes
				s.reporter.Complete()
			}
		}
		objects = append(objects, *obj)
	}

	log.Debug("scan complete", "objects", len(objects), "bytes", totalBytes)

	return &domain.Snapshot{
		Sources: []string{s.root},
		Volumes: []domain.VolumeSnapshot{{
			VolumeID: dfxmlio.UnpartitionedVolumeID,
			Objects:  objects,
		}},
	}, nil
}

// enumerate walks the tree once to collect entries and size the work ahead
func (s *Scanner) enumerate(ctx context.Context) ([]entry, int64, error) {
	var entries []entry
	var totalBytes int64

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path == s.root {
			return nil
		}
		if s.ignoreNames[d.Name()] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		// Symlinks and other special files are not snapshot objects
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		entries = append(entries, entry{
			relPath: filepath.ToSlash(rel),
			info:    info,
		})
		if !d.IsDir() {
			totalBytes += info.Size()
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walking %s: %w", s.root, err)
	}

	return entries, totalBytes, nil
}

// objectFromEntry maps one stat result onto a filesystem object
func (s *Scanner) objectFromEntry(e *entry) *domain.FileSystemObject {
	timestamps := map[domain.TimestampKind]time.Time{
		domain.TimeModified: e.info.ModTime().UTC(),
	}

	address, atime, ctime, ok := statExtra(e.info)
	if ok {
		timestamps[domain.TimeAccessed] = atime
		timestamps[domain.TimeChanged] = ctime
	}

	size := e.info.Size()
	if e.info.IsDir() {
		size = 0
	}

	return &domain.FileSystemObject{
		VolumeID:       dfxmlio.UnpartitionedVolumeID,
		Path:           strings.Split(e.relPath, "/"),
		StorageAddress: address,
		Allocated:      true,
		SizeBytes:      size,
		ContentHashes:  map[string]string{},
		Timestamps:     timestamps,
		IsDirectory:    e.info.IsDir(),
	}
}

// hashFile computes the configured digests for one file
func (s *Scanner) hashFile(ctx context.Context, relPath string) (map[string]string, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := progress.NewReader(f, s.reporter)
	return digests(ctx, reader, s.algorithms, s.maxHashSize, s.bufferSize)
}
