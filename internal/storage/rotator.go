// Package storage archives analysis results as rotating JSONL files:
// hot/ holds the file being written, warm/ closed files, cold/ gzip archives.
package storage

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	// Rotation triggers
	MaxRecordsPerFile = 1000
	MaxFileAge        = 1 * time.Hour
)

// FileRotator handles writing records to rotating JSONL files
type FileRotator struct {
	mu  sync.Mutex
	log *zap.Logger
	now func() time.Time

	maxRecords int
	maxAge     time.Duration

	hotDir  string
	warmDir string
	coldDir string

	currentFile   *os.File
	currentWriter *bufio.Writer
	currentPath   string
	recordCount   int
	fileOpenedAt  time.Time
	seq           int
}

// RotatorOption configures a FileRotator
type RotatorOption func(*FileRotator)

// WithMaxRecords rotates after n records.
func WithMaxRecords(n int) RotatorOption {
	return func(r *FileRotator) { r.maxRecords = n }
}

// WithMaxAge rotates files older than d.
func WithMaxAge(d time.Duration) RotatorOption {
	return func(r *FileRotator) { r.maxAge = d }
}

// WithRotatorLogger sets the logger.
func WithRotatorLogger(log *zap.Logger) RotatorOption {
	return func(r *FileRotator) { r.log = log }
}

// NewFileRotator creates a new rotator with the given base directory
func NewFileRotator(baseDir string, opts ...RotatorOption) (*FileRotator, error) {
	r := &FileRotator{
		log:        zap.NewNop(),
		now:        time.Now,
		maxRecords: MaxRecordsPerFile,
		maxAge:     MaxFileAge,
		hotDir:     filepath.Join(baseDir, "hot"),
		warmDir:    filepath.Join(baseDir, "warm"),
		coldDir:    filepath.Join(baseDir, "cold"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("rotator")

	for _, dir := range []string{r.hotDir, r.warmDir, r.coldDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := r.rotate(); err != nil {
		return nil, err
	}
	return r, nil
}

// SetColdDir allows setting a different cold storage path (e.g., HDD)
func (r *FileRotator) SetColdDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create cold directory: %w", err)
	}
	r.mu.Lock()
	r.coldDir = path
	r.mu.Unlock()
	return nil
}

// Append writes one record as a JSON line, flushes it, and rotates the file
// when it is full or too old.
func (r *FileRotator) Append(record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentFile == nil {
		return fmt.Errorf("rotator is closed")
	}

	if _, err := r.currentWriter.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := r.currentWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	r.recordCount++

	if r.shouldRotate() {
		return r.rotate()
	}
	return nil
}

func (r *FileRotator) shouldRotate() bool {
	if r.currentFile == nil {
		return true
	}
	if r.recordCount >= r.maxRecords {
		return true
	}
	return r.now().Sub(r.fileOpenedAt) >= r.maxAge
}

// rotate closes the current file, moves it to warm/ and opens a new one.
func (r *FileRotator) rotate() error {
	if r.currentFile != nil {
		if err := r.closeCurrent(); err != nil {
			return err
		}
	}

	r.seq++
	filename := fmt.Sprintf("impact_%s_%04d.jsonl", r.now().Format("2006-01-02_15-04-05"), r.seq)
	r.currentPath = filepath.Join(r.hotDir, filename)

	file, err := os.Create(r.currentPath)
	if err != nil {
		return fmt.Errorf("failed to create new file: %w", err)
	}

	r.currentFile = file
	r.currentWriter = bufio.NewWriterSize(file, 64*1024)
	r.recordCount = 0
	r.fileOpenedAt = r.now()

	r.log.Debug("opened new file", zap.String("file", filename))
	return nil
}

// closeCurrent moves a non-empty current file to warm/ and removes an empty one.
func (r *FileRotator) closeCurrent() error {
	if err := r.currentWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush before rotation: %w", err)
	}
	if err := r.currentFile.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	r.currentFile = nil

	name := filepath.Base(r.currentPath)
	if r.recordCount == 0 {
		return os.Remove(r.currentPath)
	}
	if err := os.Rename(r.currentPath, filepath.Join(r.warmDir, name)); err != nil {
		return fmt.Errorf("failed to move to warm storage: %w", err)
	}
	r.log.Info("moved file to warm storage", zap.String("file", name), zap.Int("records", r.recordCount))
	return nil
}

// Close flushes and closes the current file
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentFile == nil {
		return nil
	}
	return r.closeCurrent()
}

// Stats returns current rotator statistics
func (r *FileRotator) Stats() (recordsInCurrentFile int, currentFileName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recordCount, filepath.Base(r.currentPath)
}

// CompressWarm moves every warm file to cold storage and returns how many
// were compressed.
func (r *FileRotator) CompressWarm() (int, error) {
	r.mu.Lock()
	warmDir, coldDir := r.warmDir, r.coldDir
	r.mu.Unlock()

	entries, err := os.ReadDir(warmDir)
	if err != nil {
		return 0, fmt.Errorf("failed to list warm storage: %w", err)
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		if err := CompressToCold(filepath.Join(warmDir, e.Name()), coldDir); err != nil {
			return n, fmt.Errorf("failed to compress %s: %w", e.Name(), err)
		}
		r.log.Info("compressed file to cold storage", zap.String("file", e.Name()))
		n++
	}
	return n, nil
}

// CompressToCold compresses a warm file and moves it to cold storage
func CompressToCold(warmPath, coldDir string) error {
	src, err := os.Open(warmPath)
	if err != nil {
		return err
	}
	defer src.Close()

	coldPath := filepath.Join(coldDir, filepath.Base(warmPath)+".gz")
	dst, err := os.Create(coldPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	gzWriter := gzip.NewWriter(dst)
	if _, err := io.Copy(gzWriter, src); err != nil {
		return err
	}
	if err := gzWriter.Close(); err != nil {
		return err
	}

	return os.Remove(warmPath)
}
