// Package shared holds helpers used by more than one package that have no
// pipeline logic of their own.
//
// The testutil subpackage captures slog records so tests can assert on what
// a component logged:
//
//	logger, handler := testutil.NewTestLogger(t)
//	runner, _ := operations.NewRunner(cfg, paths, logger, operations.Options{})
//	...
//	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Skipping plate")
package shared
