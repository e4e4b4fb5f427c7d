package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/csimplestring/go-csv/detector"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"

	apperrors "luminexcli/internal/errors"
	"luminexcli/pkg/contracts/domain"
)

// keyColumns are the columns every key table must carry
var keyColumns = []string{domain.ColumnWell, domain.ColumnStudySample, domain.ColumnSubclass}

// LoadKeyTable reads the key table for plate from path. A missing file is
// KEY_NOT_FOUND; a key that repeats a well is DUPLICATE_WELL.
func LoadKeyTable(path, plate string) (*domain.KeyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewKeyNotFoundError(plate, path)
		}
		return nil, apperrors.NewStorageError("failed to read key table", err).
			WithContext("plate", plate).
			WithContext("path", path)
	}

	key, err := ParseKeyTable(bytes.NewReader(data), plate)
	if err != nil {
		var ae *apperrors.AppError
		if apperrors.As(err, &ae) {
			ae.WithContext("path", path)
		}
		return nil, err
	}
	return key, nil
}

// ParseKeyTable decodes a delimited key table. The delimiter is detected from
// the content and falls back to a comma.
func ParseKeyTable(r io.Reader, plate string) (*domain.KeyTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read key table", err).WithContext("plate", plate)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	comma := determineDelimiter(bytes.NewReader(data))

	header, err := newKeyReader(data, comma).Read()
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeMalformedSection, "key table has no header", err).
			WithContext("plate", plate)
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}
	for _, col := range keyColumns {
		if !present[col] {
			return nil, apperrors.NewMissingColumnError(col).WithContext("plate", plate)
		}
	}

	var rows []domain.KeyRow
	if err := gocsv.UnmarshalCSV(newKeyReader(data, comma), &rows); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeMalformedSection, "failed to decode key table", err).
			WithContext("plate", plate)
	}

	key, dups := domain.NewKeyTable(plate, rows)
	if len(dups) > 0 {
		return nil, apperrors.NewDuplicateWellError(plate, dups)
	}
	return key, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func newKeyReader(data []byte, comma rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r
}

// determineDelimiter returns the most likely delimiter of a CSV-like file.
// Candidates that are not a usual field separator are ignored.
func determineDelimiter(r io.Reader) rune {
	d := detector.New()
	for _, candidate := range d.DetectDelimiter(r, '"') {
		if candidate != "" && strings.ContainsRune(",;\t|", rune(candidate[0])) {
			return rune(candidate[0])
		}
	}

	return ','
}

// MergeKeys left-joins the key onto t by Well. Every row of t is kept;
// unmatched rows get missing Study_sample and Subclass. Afterwards Well,
// Study_sample and Subclass are the first three columns, in that order.
func MergeKeys(t *domain.Table, key *domain.KeyTable) error {
	idx := t.ColumnIndex(domain.ColumnWell)
	if idx < 0 {
		return apperrors.NewMissingColumnError(domain.ColumnWell).WithContext("plate", t.Plate)
	}

	studySamples := make([]null.String, t.Len())
	subclasses := make([]null.String, t.Len())
	for i, row := range t.Rows {
		if !row[idx].Valid {
			continue
		}
		if k, ok := key.Lookup(row[idx].String); ok {
			studySamples[i] = domain.CellFromString(k.StudySample)
			subclasses[i] = domain.CellFromString(k.Subclass)
		}
	}

	t.SetColumn(domain.ColumnStudySample, studySamples)
	t.SetColumn(domain.ColumnSubclass, subclasses)
	t.MoveToFront(domain.ColumnWell, domain.ColumnStudySample, domain.ColumnSubclass)
	return nil
}
