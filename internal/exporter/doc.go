// Package exporter writes cleaned incident tables and summaries out of the
// process.
//
// CSVWriter writes UTF-8 CSV with a BOM so spreadsheet tools detect the
// encoding. XLSXWriter streams a table into a workbook with excelize.
// SheetsWriter replaces the contents of a Google Sheets tab.
//
// Relative paths resolve against the configured data layout: tables go to
// the clean directory, summaries to the reports directory.
package exporter
