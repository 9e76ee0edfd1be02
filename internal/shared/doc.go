// Package shared holds helpers used across sharkclean packages that belong
// to no single layer.
//
// Subpackage testutil provides a capturing slog handler for asserting on
// structured logs and excelize-backed fixtures that write small GSAF-shaped
// workbooks into a test's temp directory.
package shared
