package dataprocessing

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/guregu/null.v3"

	apperrors "luminexcli/internal/errors"
	"luminexcli/pkg/contracts/domain"
)

// Section names used by the instrument export
const (
	SectionCount  = "Count"
	SectionMedian = "Median"
)

// markerLabel is the first field of every section marker line, e.g.
// DataType:,Count or "DataType:","Median".
const markerLabel = "DataType:"

// maxLineBytes bounds a single export line; exports with hundreds of
// analytes produce long rows.
const maxLineBytes = 4 * 1024 * 1024

type scanState int

const (
	stateSeeking scanState = iota
	stateInSection
	stateDone
)

// SectionExtractor splits a raw export into named tables
type SectionExtractor struct {
	logger *slog.Logger
}

// NewSectionExtractor creates a new section extractor
func NewSectionExtractor(logger *slog.Logger) *SectionExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SectionExtractor{logger: logger}
}

// ReadLines reads an export into lines. Line endings and a leading UTF-8 BOM
// are stripped.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to read export", err)
	}
	return lines, nil
}

// Extract returns the table under the named section marker. The body runs
// from the line after the marker to the first blank line or the next marker.
// It returns NOT_FOUND when no marker names the section, EMPTY_SECTION when
// the body is empty and MALFORMED_SECTION when the body does not parse.
func (e *SectionExtractor) Extract(lines []string, section string) (*domain.Table, error) {
	var body []string
	state := stateSeeking

	for _, line := range lines {
		if state == stateDone {
			break
		}
		name, isMarker := sectionMarker(line)
		switch state {
		case stateSeeking:
			if isMarker && name == section {
				state = stateInSection
			}
		case stateInSection:
			if isMarker || strings.TrimSpace(line) == "" {
				state = stateDone
				continue
			}
			body = append(body, line)
		}
	}

	if state == stateSeeking {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("section %q", section)).
			WithContext("data_type", section)
	}
	if len(body) == 0 {
		return nil, apperrors.NewEmptySectionError(section)
	}

	table, err := parseBody(body)
	if err != nil {
		return nil, apperrors.NewMalformedSectionError(section, err)
	}

	e.logger.Debug("Extracted section",
		slog.String("data_type", section),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)))

	return table, nil
}

// Sections lists the section names in the order they appear.
func (e *SectionExtractor) Sections(lines []string) []string {
	var names []string
	for _, line := range lines {
		if name, ok := sectionMarker(line); ok {
			names = append(names, name)
		}
	}
	return names
}

// sectionMarker reports whether line is a section marker and returns the
// section it names. Both the bare and the quoted encodings are accepted
// since the line is read as CSV fields.
func sectionMarker(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, markerLabel) && !strings.HasPrefix(trimmed, `"`+markerLabel) {
		return "", false
	}

	r := csv.NewReader(strings.NewReader(trimmed))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil || len(fields) < 2 || strings.TrimSpace(fields[0]) != markerLabel {
		return "", false
	}
	return strings.TrimSpace(fields[1]), true
}

// parseBody reads a header line and data rows. Repeated header names get a
// numeric suffix. Rows shorter than the header are padded with missing cells;
// rows longer than the header are rejected unless the extra fields are empty.
func parseBody(body []string) (*domain.Table, error) {
	r := csv.NewReader(strings.NewReader(strings.Join(body, "\n")))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	header := trimTrailingEmpty(records[0])
	if len(header) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}

	table := domain.NewTable(dedupeColumns(header))
	for i, rec := range records[1:] {
		if len(rec) > len(header) {
			extra := trimTrailingEmpty(rec[len(header):])
			if len(extra) > 0 {
				return nil, fmt.Errorf("row %d has %d fields, header has %d", i+2, len(rec), len(header))
			}
			rec = rec[:len(header)]
		}
		cells := make([]null.String, len(rec))
		for j, v := range rec {
			cells[j] = domain.CellFromString(v)
		}
		table.AppendRow(cells)
	}
	return table, nil
}

// dedupeColumns renames repeated header names so every column can be
// addressed by name: Flu, Flu becomes Flu, Flu.1. A generated name that is
// already taken moves on to the next suffix.
func dedupeColumns(header []string) []string {
	taken := make(map[string]bool, len(header))
	for _, name := range header {
		taken[name] = true
	}

	seen := make(map[string]bool, len(header))
	next := make(map[string]int)
	out := make([]string, len(header))
	for i, name := range header {
		if seen[name] {
			base := name
			n := next[base] + 1
			for taken[fmt.Sprintf("%s.%d", base, n)] {
				n++
			}
			next[base] = n
			name = fmt.Sprintf("%s.%d", base, n)
			taken[name] = true
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

func trimTrailingEmpty(fields []string) []string {
	end := len(fields)
	for end > 0 && strings.TrimSpace(fields[end-1]) == "" {
		end--
	}
	return fields[:end]
}

// AnalyteColumns returns the columns strictly between the Sample and Total
// Events anchors, in source order. A missing anchor, or Total Events before
// Sample, is MALFORMED_SECTION.
func AnalyteColumns(t *domain.Table) ([]string, error) {
	start := t.ColumnIndex(domain.ColumnSample)
	end := t.ColumnIndex(domain.ColumnTotalEvents)

	var cause error
	switch {
	case start < 0:
		cause = apperrors.NewMissingColumnError(domain.ColumnSample)
	case end < 0:
		cause = apperrors.NewMissingColumnError(domain.ColumnTotalEvents)
	case end < start:
		cause = fmt.Errorf("%q precedes %q", domain.ColumnTotalEvents, domain.ColumnSample)
	}
	if cause != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeMalformedSection, "analyte range anchors are invalid", cause).
			WithContext("plate", t.Plate)
	}

	out := make([]string, end-start-1)
	copy(out, t.Columns[start+1:end])
	return out, nil
}
