package sink

import (
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// FileJournal appends newline-delimited JSON to a local file and
// rotates it when the size threshold is exceeded. Rotated files are
// optionally gzip-compressed in the background.
type FileJournal struct {
	path       string
	rotateSize int64
	compress   bool
	log        *slog.Logger

	mu   sync.Mutex
	file *os.File
	size int64

	compressWG sync.WaitGroup
}

// NewFileJournal opens (or creates) the journal file.
func NewFileJournal(path string, rotateSize int64, compress bool, log *slog.Logger) (*FileJournal, error) {
	if log == nil {
		log = slog.Default()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat journal %s: %w", path, err)
	}
	return &FileJournal{
		path:       path,
		rotateSize: rotateSize,
		compress:   compress,
		log:        log,
		file:       f,
		size:       info.Size(),
	}, nil
}

// Append writes the batch and rotates afterwards if the threshold was
// crossed.
func (j *FileJournal) Append(lines [][]byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, line := range lines {
		n, err := j.file.Write(line)
		j.size += int64(n)
		if err != nil {
			return fmt.Errorf("journal write failed: %w", err)
		}
		n, err = j.file.Write([]byte{'\n'})
		j.size += int64(n)
		if err != nil {
			return fmt.Errorf("journal write failed: %w", err)
		}
	}

	if j.rotateSize > 0 && j.size >= j.rotateSize {
		if err := j.rotate(); err != nil {
			return err
		}
	}
	return nil
}

// rotate closes the current file, renames it with a timestamp suffix
// and reopens a fresh one. Caller holds j.mu.
func (j *FileJournal) rotate() error {
	if err := j.file.Close(); err != nil {
		return fmt.Errorf("failed to close journal for rotation: %w", err)
	}

	rotated := fmt.Sprintf("%s.%s", j.path, time.Now().UTC().Format("20060102T150405.000"))
	if err := os.Rename(j.path, rotated); err != nil {
		return fmt.Errorf("failed to rotate journal: %w", err)
	}

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to reopen journal after rotation: %w", err)
	}
	j.file = f
	j.size = 0

	if j.compress {
		j.compressWG.Add(1)
		go func() {
			defer j.compressWG.Done()
			if err := gzipFile(rotated); err != nil {
				j.log.Warn("failed to compress rotated journal", "file", rotated, "error", err)
			}
		}()
	}
	return nil
}

// Close syncs and closes the journal, waiting for any in-flight
// compression to finish.
func (j *FileJournal) Close() error {
	j.mu.Lock()
	err := j.file.Sync()
	if cerr := j.file.Close(); err == nil {
		err = cerr
	}
	j.mu.Unlock()

	j.compressWG.Wait()
	return err
}

func gzipFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		_ = gz.Close()
		_ = dst.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		_ = dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}
