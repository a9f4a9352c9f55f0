// Package query maps free-text questions ("compare rainfall in Maharashtra
// vs Kerala over the last 5 years") onto structured analysis requests using
// keyword and pattern matching against the states present in the loaded
// datasets.
package query
