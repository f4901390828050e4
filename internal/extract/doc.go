// Package extract reads a daily extract file and turns its rows into
// normalized TrackedItems.
//
// Supported formats, chosen by file extension:
//   - .yaml, .yml, .json: a document with report_date and items
//   - .csv: a header row naming the columns; report_date may appear as a column
//
// Acquisition of the file itself (portal login, download) happens upstream.
// Name and unit normalization is behind the Normalizer interface so callers
// can substitute site-specific heuristics.
package extract
