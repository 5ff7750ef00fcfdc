// Package sheet reconciles visit records into the master spreadsheet, an
// append-only XLSX workbook with one sheet named Actas.
//
// Row 1 of the sheet is a fixed header. Its column order is an external
// contract: columns may be appended in later schema versions but are never
// reordered or removed. Rows 2..N hold one record each, in arrival order,
// and are never rewritten.
//
// A Synchronizer persists in one of two ways:
//
//   - Path A (incremental): a writable Handle to the existing artifact is
//     held. Its bytes are read and parsed, rows for new records are
//     appended, and the result is written back through the same handle.
//   - Path B (regenerate): the workbook is built from scratch out of every
//     record passed in and handed back to the caller as bytes.
//
// Any Path A failure falls through to Path B. Failures are reported in
// Result.Fallback and never returned as errors, since the record store can
// always regenerate the artifact in full.
//
// Both paths skip records that duplicate a row already present or an
// earlier record in the same batch, using package dedup.
package sheet
