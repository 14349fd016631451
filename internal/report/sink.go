package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/cadence/internal/model"
)

// Sink receives finished exports.
type Sink interface {
	// Put stores r under name and returns where it ended up.
	Put(ctx context.Context, name string, r Report) (string, error)
}

// FileSink writes exports into Dir. An empty Dir means the working directory.
type FileSink struct {
	Dir string
}

// Put writes the CSV to Dir/name through a temp file so a reader never sees
// a partial export.
func (s FileSink) Put(ctx context.Context, name string, r Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, r); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".cadence-export-*")
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing export: %w", err)
	}

	dest := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("renaming export: %w", err)
	}
	return dest, nil
}

// WriterSink streams exports to W, ignoring the name. Used for stdout.
type WriterSink struct {
	W io.Writer
}

// Put writes the CSV to W.
func (s WriterSink) Put(ctx context.Context, _ string, r Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := WriteCSV(s.W, r); err != nil {
		return "", err
	}
	return "-", nil
}

// Export builds the report for items and hands it to sink under today's
// file name.
func Export(ctx context.Context, sink Sink, items []model.LineItem, now time.Time) (string, error) {
	r, err := Build(items)
	if err != nil {
		return "", err
	}
	return sink.Put(ctx, FileName(now), r)
}
