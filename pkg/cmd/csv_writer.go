package cmd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CSVWriter appends rows to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens filePath for appending, creating it and its directory
// when missing. isNew reports whether the file was empty, so callers know to
// write a header.
func NewCSVWriter(filePath string) (w *CSVWriter, isNew bool, err error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("create output directory: %w", err)
		}
	}

	info, err := os.Stat(filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		isNew = true
	case err != nil:
		return nil, false, fmt.Errorf("stat CSV file: %w", err)
	default:
		isNew = info.Size() == 0
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open or create CSV file: %w", err)
	}
	return &CSVWriter{file: file, writer: csv.NewWriter(file)}, isNew, nil
}

// WriteRow buffers one row; rows reach the file on Flush or Close.
func (cw *CSVWriter) WriteRow(row []string) error {
	return cw.writer.Write(row)
}

func (cw *CSVWriter) Flush() error {
	cw.writer.Flush()
	return cw.writer.Error()
}

func (cw *CSVWriter) Close() error {
	flushErr := cw.Flush()
	closeErr := cw.file.Close()
	if flushErr != nil {
		return fmt.Errorf("error flushing CSV writer: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("error closing CSV file: %w", closeErr)
	}
	return nil
}
