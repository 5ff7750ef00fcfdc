package store

import (
	"github.com/roach88/actas/internal/acta"
)

// row is the column projection of a record. The identity and timestamp
// columns duplicate body fields so they can be indexed.
type row struct {
	id       string
	contract string
	taxID    string
	local    string
	utc      string
	body     string
}

// marshalRecord converts a record to its stored row.
func marshalRecord(rec acta.Record) (row, error) {
	body, err := acta.Encode(rec)
	if err != nil {
		return row{}, err
	}
	return row{
		id:       rec.ID,
		contract: rec.Client.ContractNumber,
		taxID:    rec.Client.TaxID,
		local:    rec.Visit.LocalTime,
		utc:      rec.Visit.UTCTime,
		body:     string(body),
	}, nil
}

// unmarshalRecord decodes a stored body. Legacy bodies are normalized by
// acta.Decode.
func unmarshalRecord(body string) (acta.Record, error) {
	return acta.Decode([]byte(body))
}
