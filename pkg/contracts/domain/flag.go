package domain

// Severity classifies a bead-count observation that fell below a QC threshold.
type Severity string

const (
	SeverityFail    Severity = "Failed"
	SeverityWarning Severity = "Warning"
)

// StudySamplePlaceholder stands in for the study-sample label when a plate
// has no key metadata.
const StudySamplePlaceholder = "N/A"

// BeadCount is an observed bead count, written without trailing zeros.
type BeadCount float64

// MarshalCSV implements gocsv.TypeMarshaller.
func (c BeadCount) MarshalCSV() (string, error) {
	return FormatFloat(float64(c)), nil
}

// Flag is one (well, analyte) observation below the warning threshold.
type Flag struct {
	Plate       string    `csv:"Plate" json:"plate"`
	Sample      string    `csv:"Sample" json:"sample"`
	StudySample string    `csv:"Study_sample" json:"study_sample"`
	Antigen     string    `csv:"Antigen" json:"antigen"`
	BeadCount   BeadCount `csv:"Bead Count" json:"bead_count"`
	Severity    Severity  `csv:"Flag" json:"flag"`
}

// FlagHeader is the column order of the flagged-wells file.
var FlagHeader = []string{"Plate", "Sample", "Study_sample", "Antigen", "Bead Count", "Flag"}

// BeadSummary describes the bead counts observed on one plate. Missing and
// non-numeric cells are not counted.
type BeadSummary struct {
	Observations int     `json:"observations"`
	Min          float64 `json:"min"`
	Median       float64 `json:"median"`
	Mean         float64 `json:"mean"`
}
