package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/ir"
)

// Envelope is the versioned snapshot format, shared by the recovery slot
// and archive files.
type Envelope struct {
	// Timestamp is the snapshot time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	Version    string        `json:"version"`
	TotalActas int           `json:"totalActas"`
	Actas      []acta.Record `json:"actas"`
}

// NewEnvelope wraps records taken at t.
func NewEnvelope(records []acta.Record, t time.Time) Envelope {
	if records == nil {
		records = []acta.Record{}
	}
	return Envelope{
		Timestamp:  t.UnixMilli(),
		Version:    ir.BackupVersion,
		TotalActas: len(records),
		Actas:      records,
	}
}

// Time returns Timestamp as a time.Time.
func (e Envelope) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// UnmarshalJSON decodes each record through acta.Decode so envelopes
// written by older versions restore with legacy records normalized.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w struct {
		Timestamp  int64             `json:"timestamp"`
		Version    string            `json:"version"`
		TotalActas int               `json:"totalActas"`
		Actas      []json.RawMessage `json:"actas"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	records := make([]acta.Record, 0, len(w.Actas))
	for i, raw := range w.Actas {
		rec, err := acta.Decode(raw)
		if err != nil {
			return fmt.Errorf("actas[%d]: %w", i, err)
		}
		records = append(records, rec)
	}

	*e = Envelope{
		Timestamp:  w.Timestamp,
		Version:    w.Version,
		TotalActas: w.TotalActas,
		Actas:      records,
	}
	return nil
}

// ArchiveName returns the archive file name for a snapshot taken at t,
// such as backup_actas_2024-01-01.json.
func ArchiveName(t time.Time) string {
	return "backup_actas_" + t.Format("2006-01-02") + ".json"
}

// WriteArchive writes env as indented JSON.
func WriteArchive(w io.Writer, env Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("write backup archive: %w", err)
	}
	return nil
}

// ReadArchive parses an archive written by WriteArchive or by older
// versions of the application.
func ReadArchive(r io.Reader) (Envelope, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("read backup archive: %w", err)
	}
	return env, nil
}
