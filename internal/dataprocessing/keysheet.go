package dataprocessing

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"gopkg.in/guregu/null.v3"

	apperrors "luminexcli/internal/errors"
	"luminexcli/internal/exporter"
	"luminexcli/pkg/contracts/domain"
)

// KeySheetName is the worksheet of a plate layout workbook holding the key
const KeySheetName = "Key"

// KeySheetConverter turns the Key sheet of a layout workbook into a key CSV
type KeySheetConverter struct {
	writer *exporter.CSVWriter
	logger *slog.Logger
}

// NewKeySheetConverter creates a new converter writing through writer
func NewKeySheetConverter(writer *exporter.CSVWriter, logger *slog.Logger) *KeySheetConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeySheetConverter{writer: writer, logger: logger}
}

// Convert reads the Key sheet of src (.xlsx or .xls) and writes it to dst.
func (c *KeySheetConverter) Convert(src, dst string) error {
	rows, err := ReadKeySheet(src)
	if err != nil {
		return err
	}

	table := sheetToTable(rows)
	c.logger.Debug("Read key sheet",
		slog.String("file", filepath.Base(src)),
		slog.Int("rows", table.Len()))

	return c.writer.WriteTable(dst, table)
}

// ReadKeySheet returns the raw cell text of the Key sheet.
func ReadKeySheet(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSXSheet(path, KeySheetName)
	case ".xls":
		return readXLSSheet(path, KeySheetName)
	default:
		return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound,
			fmt.Sprintf("unsupported workbook format %q", filepath.Ext(path)), nil).
			WithContext("file", path)
	}
}

func readXLSXSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("file", path)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("sheet %q", sheet)).WithContext("file", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read sheet", err).WithContext("file", path)
	}
	return rows, nil
}

func readXLSSheet(path, sheet string) (rows [][]string, err error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("file", path)
	}
	defer fh.Close()

	// The xls decoder panics on some damaged workbooks.
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = apperrors.NewStorageError("failed to decode workbook", fmt.Errorf("%v", r)).WithContext("file", path)
		}
	}()

	wb, err := xls.OpenReader(fh, "utf-8")
	if err != nil || wb == nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("file", path)
	}

	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil || ws.Name != sheet {
			continue
		}
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := xlsRow(ws, r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			var cells []string
			for col := 0; col <= row.LastCol(); col++ {
				cells = append(cells, row.Col(col))
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}

	return nil, apperrors.NewNotFoundError(fmt.Sprintf("sheet %q", sheet)).WithContext("file", path)
}

// xlsRow returns nil for rows the sheet does not store; the decoder
// dereferences a nil row in that case.
func xlsRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

// sheetToTable uses the first row as header. Blank header cells are named
// "Unnamed: <index>" and rows that are blank throughout are dropped.
func sheetToTable(rows [][]string) *domain.Table {
	if len(rows) == 0 {
		return domain.NewTable(nil)
	}

	header := trimTrailingEmpty(rows[0])
	width := len(header)
	for _, row := range rows[1:] {
		if n := len(trimTrailingEmpty(row)); n > width {
			width = n
		}
	}

	columns := make([]string, width)
	for i := range columns {
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			columns[i] = strings.TrimSpace(header[i])
		} else {
			columns[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}

	table := domain.NewTable(columns)
	for _, row := range rows[1:] {
		cells := make([]null.String, width)
		blank := true
		for j := 0; j < width && j < len(row); j++ {
			cells[j] = domain.CellFromString(strings.TrimSpace(row[j]))
			if cells[j].Valid {
				blank = false
			}
		}
		if blank {
			continue
		}
		table.AppendRow(cells)
	}
	return table
}
