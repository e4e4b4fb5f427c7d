// Package exporter writes the pipeline's CSV outputs.
//
// CSVWriter encodes dynamic-column tables (extracted sections, processed
// plates, the merged study file) and the fixed-schema flagged-wells file.
// All writes go through files.Manager, so an output is either complete or
// absent. An optional UTF-8 BOM helps Excel open the files correctly.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(files.NewManager(logger), logger, exporter.WriteOptions{})
//	err := writer.WriteTable(paths.ProcessedPath(table.Plate), table)
//	err = writer.WriteFlags(paths.FlaggedWells, flags)
package exporter
