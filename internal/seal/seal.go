package seal

import (
	"encoding/json"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/ir"
)

// Version identifies the projection and digest rules Seal and Verify
// apply. Change it whenever Project or the hash encoding changes.
const Version = ir.SealVersion

// Payload is the decoded verification payload.
type Payload struct {
	ID   string `json:"id"`
	Hash string `json:"hash"`
}

// Seal computes the seal for rec. clientEnv describes the capturing
// environment and is carried verbatim; it is not part of the hash.
//
// Any existing seal or attached artifact on rec is ignored, so sealing is
// idempotent.
func Seal(rec acta.Record, clientEnv string) (acta.Seal, error) {
	if !rec.Signed() {
		return acta.Seal{}, &Error{
			Code:    ErrCodeMissingSignature,
			ActaID:  rec.ID,
			Message: "cannot seal",
			Err:     ErrMissingSignature,
		}
	}

	hash, err := Hash(rec)
	if err != nil {
		return acta.Seal{}, err
	}
	payload, err := EncodePayload(rec.ID, hash)
	if err != nil {
		return acta.Seal{}, err
	}

	return acta.Seal{
		ClientEnvironment:   clientEnv,
		ContentHash:         hash,
		VerificationPayload: payload,
	}, nil
}

// Apply seals rec in place. rec is left untouched on error.
func Apply(rec *acta.Record, clientEnv string) error {
	s, err := Seal(*rec, clientEnv)
	if err != nil {
		return err
	}
	rec.Seal = s
	return nil
}

// Hash returns the content hash of rec without checking the signature.
func Hash(rec acta.Record) (string, error) {
	h, err := ir.ContentHash(Project(rec))
	if err != nil {
		return "", &Error{
			Code:    ErrCodeUnserializable,
			ActaID:  rec.ID,
			Message: "canonicalize projection",
			Err:     err,
		}
	}
	return h, nil
}

// EncodePayload renders the verification payload as canonical JSON.
func EncodePayload(id, hash string) (string, error) {
	data, err := ir.MarshalCanonical(ir.Object{
		"id":   ir.String(id),
		"hash": ir.String(hash),
	})
	if err != nil {
		return "", &Error{
			Code:    ErrCodeUnserializable,
			ActaID:  id,
			Message: "encode payload",
			Err:     err,
		}
	}
	return string(data), nil
}

// ParsePayload decodes a verification payload, such as one read back from
// a scanned code. Both fields must be present.
func ParsePayload(s string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Payload{}, &Error{Code: ErrCodeBadPayload, Message: "parse payload", Err: err}
	}
	if p.ID == "" || p.Hash == "" {
		return Payload{}, &Error{Code: ErrCodeBadPayload, Message: "payload requires id and hash"}
	}
	return p, nil
}

// Verify recomputes the content hash of a stored record and checks it and
// the verification payload against the stored seal.
func Verify(rec acta.Record) error {
	if !rec.Sealed() {
		return &Error{Code: ErrCodeMismatch, ActaID: rec.ID, Message: "record is not sealed"}
	}

	hash, err := Hash(rec)
	if err != nil {
		return err
	}
	if hash != rec.Seal.ContentHash {
		return &Error{
			Code:    ErrCodeMismatch,
			ActaID:  rec.ID,
			Message: "content hash " + rec.Seal.ContentHash + " does not match recomputed " + hash,
		}
	}

	p, err := ParsePayload(rec.Seal.VerificationPayload)
	if err != nil {
		return err
	}
	if p.ID != rec.ID || p.Hash != hash {
		return &Error{Code: ErrCodeMismatch, ActaID: rec.ID, Message: "verification payload does not match seal"}
	}
	return nil
}
