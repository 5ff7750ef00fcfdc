package acta

import (
	"encoding/json"
	"fmt"
)

// wireRecord mirrors every shape the store may hold. Pointer sections let
// Decode tell "absent" apart from "present but empty".
type wireRecord struct {
	ID           string     `json:"id"`
	Executive    Executive  `json:"ejecutivo"`
	Location     Location   `json:"ubicacion"`
	Client       wireClient `json:"cliente"`
	Contact      *Contact   `json:"contacto"`
	Topics       *Topics    `json:"temasTratados"`
	Incidents    Incidents  `json:"incidencias"`
	Observations string     `json:"observaciones"`
	Reconquest   bool       `json:"reconquista"`
	Visit        Visit      `json:"visita"`
	Consent      bool       `json:"consent"`
	Signature    Signature  `json:"firma"`
	Seal         Seal       `json:"sello"`
	Artifacts    Artifacts  `json:"archivos"`
}

// wireClient carries the legacy contact fields that older records stored
// under the client section.
type wireClient struct {
	Client
	LegacyContact string `json:"contacto"`
	LegacyEmail   string `json:"email"`
}

// Decode parses a stored document into a Record, normalizing legacy shapes
// instead of rejecting them. A document without an id is an error.
func Decode(data []byte) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return Record{}, fmt.Errorf("decode acta: %w", err)
	}
	if w.ID == "" {
		return Record{}, fmt.Errorf("decode acta: missing id")
	}

	rec := Record{
		ID:           w.ID,
		Executive:    w.Executive,
		Location:     w.Location,
		Client:       w.Client.Client,
		Incidents:    w.Incidents,
		Observations: w.Observations,
		Reconquest:   w.Reconquest,
		Visit:        w.Visit,
		Consent:      w.Consent,
		Signature:    w.Signature,
		Seal:         w.Seal,
		Artifacts:    w.Artifacts,
		Format:       FormatCurrent,
	}

	if w.Contact == nil || w.Topics == nil {
		rec.Format = FormatLegacy
		rec.Contact = Contact{
			Name:  w.Client.LegacyContact,
			Email: w.Client.LegacyEmail,
		}
		if w.Contact != nil {
			rec.Contact = *w.Contact
		}
		if w.Topics != nil {
			rec.Topics = *w.Topics
		}
		return rec, nil
	}

	rec.Contact = *w.Contact
	rec.Topics = *w.Topics
	return rec, nil
}

// Encode serializes a record in the current shape.
func Encode(rec Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode acta %s: %w", rec.ID, err)
	}
	return data, nil
}
