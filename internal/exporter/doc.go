// Package exporter renders analysis results as downloadable CSV and XLSX
// documents.
package exporter
