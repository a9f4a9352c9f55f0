// Package analytics contains the aggregation queries behind the dashboard:
// windowed average rainfall per state, two-state rainfall comparison, and
// top-M crops by summed production. All functions are pure over immutable
// record slices; the "last N years" window always means the N most recent
// distinct years present in the filtered data.
package analytics
