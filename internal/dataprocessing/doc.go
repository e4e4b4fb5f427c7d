// Package dataprocessing turns raw bead-assay instrument exports into
// analysis-ready tables.
//
// # Architecture
//
// The package is organized by pipeline step:
//
// 1. SectionExtractor: splits an export into its named sections (Count, Median)
// 2. ResolveWells: derives the plate well from the Location text
// 3. LoadKeyTable / MergeKeys: attaches study metadata from the plate key
// 4. CorrectBackground: subtracts the blank reference channel, clamped at zero
// 5. Aggregator: stacks processed plates into one dataset
//
// KeySheetConverter reads the Key sheet of plate layout workbooks so keys
// can be maintained in Excel.
//
// # Usage
//
//	lines, err := dataprocessing.ReadLines(f)
//	median, err := dataprocessing.NewSectionExtractor(logger).Extract(lines, dataprocessing.SectionMedian)
//	if err := dataprocessing.ResolveWells(median); err != nil {
//	    return err
//	}
//	key, err := dataprocessing.LoadKeyTable(paths.KeyPath(plate), plate)
//	switch {
//	case errors.Is(err, apperrors.ErrKeyNotFound):
//	    logger.Warn("No key table, proceeding unenriched", slog.String("plate", plate))
//	case err != nil:
//	    return err
//	default:
//	    if err := dataprocessing.MergeKeys(median, key); err != nil {
//	        return err
//	    }
//	}
//	if err := dataprocessing.CorrectBackground(median, dataprocessing.DefaultReferenceColumn); err != nil {
//	    return err
//	}
//
// # Error Handling
//
// Every function reports structural problems as *errors.AppError so callers
// can skip a single plate and continue the run.
package dataprocessing
