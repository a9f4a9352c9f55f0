// Package dataset loads the two data.gov.in source datasets into immutable
// in-memory tables.
//
// The rainfall dataset is long-format (state, year, rainfall in mm) while the
// crop production dataset arrives wide, with one column per crop and fiscal
// year; ParseCropCSV melts it into long (state, crop, year, production) rows.
//
// Datasets are cached on disk as CSV files and loaded at most once per
// process. A cache miss triggers a single download attempt from the
// configured resource URL; there is no retry policy. Once loaded the tables
// are read-only for the lifetime of the process.
package dataset
