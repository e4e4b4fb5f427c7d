package domain

import "strings"

// KeyRow maps one plate well to its study metadata.
type KeyRow struct {
	Well        string `csv:"Well"`
	StudySample string `csv:"Study_sample"`
	Subclass    string `csv:"Subclass"`
}

// KeyTable is the plate-layout key for one plate.
type KeyTable struct {
	Plate string
	Rows  []KeyRow

	byWell map[string]int
}

// NewKeyTable builds a key table and indexes it by well. Wells that occur
// more than once are returned in first-seen order; the first occurrence is
// the one indexed.
func NewKeyTable(plate string, rows []KeyRow) (*KeyTable, []string) {
	kt := &KeyTable{Plate: plate, Rows: rows, byWell: make(map[string]int, len(rows))}
	seen := make(map[string]bool)
	var dups []string
	for i, r := range rows {
		well := strings.TrimSpace(r.Well)
		if well == "" {
			continue
		}
		if _, ok := kt.byWell[well]; ok {
			if !seen[well] {
				seen[well] = true
				dups = append(dups, well)
			}
			continue
		}
		kt.byWell[well] = i
	}
	return kt, dups
}

// Lookup returns the key row for a well.
func (k *KeyTable) Lookup(well string) (KeyRow, bool) {
	if k == nil {
		return KeyRow{}, false
	}
	i, ok := k.byWell[well]
	if !ok {
		return KeyRow{}, false
	}
	return k.Rows[i], true
}

// Len returns the number of indexed wells.
func (k *KeyTable) Len() int {
	return len(k.byWell)
}
