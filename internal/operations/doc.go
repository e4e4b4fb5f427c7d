// Package operations runs the bead-assay pipeline over a study folder.
//
// A Runner discovers the raw instrument exports under data/raw and processes
// each plate independently on a bounded worker pool:
//
//   - extract the Count and Median sections
//   - resolve wells and merge the plate key, when one exists
//   - write the extracted sections, flag low bead counts and draw the heatmap
//   - subtract the background reference and write the processed table
//
// Results are collected in export order, so the flagged-wells file and the
// merged dataset do not depend on scheduling. A plate that fails any step is
// skipped and reported in the RunSummary; only run-wide failures are returned
// as errors.
//
// Usage:
//
//	runner, err := operations.NewRunner(cfg, paths, logger, operations.Options{Providers: providers})
//	if err != nil {
//	    return err // invalid thresholds are rejected here
//	}
//	summary, err := runner.Run(ctx)
package operations
