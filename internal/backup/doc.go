// Package backup snapshots the record store into a recovery slot and an
// exportable archive file, and restores the store from either.
//
// A snapshot is a versioned Envelope holding every record. The recovery
// slot keeps exactly one snapshot; each new snapshot overwrites it.
// Restore is a full overwrite, not a merge: the store is cleared and every
// record in the envelope is upserted in envelope order. A restore that
// fails part-way leaves the store partially populated and reports how far
// it got; running it again with the same envelope is safe because upsert
// is idempotent per id.
//
// The same slot mechanism holds the signature draft, the in-progress
// signature image recovered after an interrupted capture.
package backup
