// Package seal computes the tamper-evidence bundle attached to a visit
// record.
//
// The content hash covers every record field except the seal itself and
// the attached artifacts. The signature image is replaced by a fixed
// sentinel before hashing, so re-encoding the image never changes the
// hash. Serialization goes through ir.MarshalCanonical and the digest is
// ir.Digest (SHA-256, standard Base64).
package seal
