// Package store provides SQLite-backed durable storage for visit records.
//
// The store holds:
//   - Actas: one row per record, keyed by id, with the record JSON in body
//   - Slots: named single-value payloads (backup snapshot, signature draft)
//   - Meta: durable key/value settings (scheduler last-run timestamps)
//   - Leases: expiring named locks shared by every process on the database
//
// # Record Semantics
//
// Upsert writes or replaces a record by id and is a no-op when the stored
// body is identical. Insert refuses to overwrite and reports an id
// collision. Every single write is atomic; GetAll is a snapshot read.
//
// Bodies are decoded through acta.Decode, so rows written in the legacy
// document shape are returned normalized rather than rejected.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Every failure is returned as *Error carrying the failed operation.
package store
