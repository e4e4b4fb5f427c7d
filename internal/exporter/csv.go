package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/gocarina/gocsv"

	apperrors "luminexcli/internal/errors"
	"luminexcli/internal/files"
	"luminexcli/pkg/contracts/domain"
)

// utf8BOM helps Excel recognise UTF-8 output
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	files     *files.Manager
	logger    *slog.Logger
	bomPrefix bool
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(manager *files.Manager, logger *slog.Logger, opts WriteOptions) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{files: manager, logger: logger, bomPrefix: opts.BOMPrefix}
}

// WriteTable writes a table to path. Missing cells are written as empty
// fields.
func (w *CSVWriter) WriteTable(path string, t *domain.Table) error {
	w.logger.Info("Writing CSV file",
		slog.String("full_path", path),
		slog.String("plate", t.Plate),
		slog.Int("record_count", t.Len()),
		slog.Int("column_count", len(t.Columns)))

	return w.files.WriteAtomic(path, func(out io.Writer) error {
		return w.encodeTable(out, t)
	})
}

// WriteFlags writes the flagged-wells file. The header is written even when
// flags is empty.
func (w *CSVWriter) WriteFlags(path string, flags []domain.Flag) error {
	w.logger.Info("Writing CSV file",
		slog.String("full_path", path),
		slog.Int("record_count", len(flags)))

	return w.files.WriteAtomic(path, func(out io.Writer) error {
		if err := w.writeBOM(out); err != nil {
			return err
		}
		if flags == nil {
			flags = []domain.Flag{}
		}
		if err := gocsv.Marshal(flags, out); err != nil {
			return apperrors.NewStorageError("failed to encode flagged wells", err)
		}
		return nil
	})
}

// EncodeTable writes t to out without touching the file system.
func (w *CSVWriter) EncodeTable(out io.Writer, t *domain.Table) error {
	return w.encodeTable(out, t)
}

func (w *CSVWriter) encodeTable(out io.Writer, t *domain.Table) error {
	if err := w.writeBOM(out); err != nil {
		return err
	}

	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(out))
	if err := writer.Write(t.Columns); err != nil {
		return apperrors.NewStorageError("failed to write headers", err)
	}
	for i, record := range t.Records() {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush CSV", err)
	}
	return nil
}

func (w *CSVWriter) writeBOM(out io.Writer) error {
	if !w.bomPrefix {
		return nil
	}
	if _, err := out.Write(utf8BOM); err != nil {
		return apperrors.NewStorageError("failed to write BOM", err)
	}
	return nil
}
