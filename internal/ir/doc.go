// Package ir provides the canonical value model used to fingerprint visit
// records.
//
// Records are projected into ir values before hashing so that the digest
// depends only on content, never on Go struct layout or encoder quirks.
// ir imports nothing internal.
//
// Key constraints:
//   - Object keys are ordered by UTF-16 code units (RFC 8785)
//   - Strings are NFC normalized at the serialization boundary
//   - Floats are carried as Decimal (shortest round-trip text), never as
//     binary floating point
package ir
