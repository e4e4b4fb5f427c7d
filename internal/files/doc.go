// Package files provides file system operations and discovery utilities
// for the Luminex extraction pipeline.
//
// This package contains two main components:
//
// Discovery: Finds instrument exports and plate layout workbooks. Results are
// sorted by name so plates are processed and aggregated in a stable order.
// Editor lock files (~$*) are never returned.
//
// Manager: Writes outputs atomically through a temp file and rename, and
// reports missing inputs as NOT_FOUND errors.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.BaseDir)
//	exports, err := discovery.FindRawExports(paths.RawDir)
//
//	manager := files.NewManager(logger)
//	err = manager.WriteAtomic(paths.ProcessedPath("plate1"), func(w io.Writer) error {
//	    return writer.EncodeTable(w, table)
//	})
package files
