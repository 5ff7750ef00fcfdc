// Package dedup decides whether a visit record duplicates one already in a
// target population.
//
// A record has two identities: its primary identity (the id) and its
// content identity (contract number, tax id and local timestamp). Matching
// either one makes a candidate a duplicate. Two submissions of the same
// physical visit under different ids therefore collapse to one.
package dedup

import (
	"strings"

	"github.com/roach88/actas/internal/acta"
)

// Separator joins the content identity fields. It is the ASCII unit
// separator, which never appears in form input.
const Separator = "\x1f"

// Identities are the two keys a record is matched on.
type Identities struct {
	Primary string
	Content string
}

// ContentKey builds a content identity from its three fields. Absent
// values are passed as empty strings.
func ContentKey(contract, taxID, localTime string) string {
	return strings.Join([]string{contract, taxID, localTime}, Separator)
}

// Identify computes the identities of rec.
func Identify(rec acta.Record) Identities {
	return Identities{
		Primary: rec.ID,
		Content: ContentKey(rec.Client.ContractNumber, rec.Client.TaxID, rec.Visit.LocalTime),
	}
}

// Index is a growing population of identities. The zero value is not
// usable; call NewIndex.
type Index struct {
	primary map[string]struct{}
	content map[string]struct{}
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		primary: make(map[string]struct{}),
		content: make(map[string]struct{}),
	}
}

// Add records ids as present.
func (ix *Index) Add(ids Identities) {
	ix.primary[ids.Primary] = struct{}{}
	ix.content[ids.Content] = struct{}{}
}

// IsDuplicate reports whether ids matches the index on either identity.
func (ix *Index) IsDuplicate(ids Identities) bool {
	if _, ok := ix.primary[ids.Primary]; ok {
		return true
	}
	_, ok := ix.content[ids.Content]
	return ok
}

// Admit adds ids unless it is a duplicate and reports whether it was added.
// Calling Admit in input order gives first-seen-wins semantics within a
// batch.
func (ix *Index) Admit(ids Identities) bool {
	if ix.IsDuplicate(ids) {
		return false
	}
	ix.Add(ids)
	return true
}

// Len returns the number of distinct primary identities.
func (ix *Index) Len() int {
	return len(ix.primary)
}

// IsDuplicate reports whether candidate duplicates any of existing.
func IsDuplicate(candidate acta.Record, existing []Identities) bool {
	ix := NewIndex()
	for _, ids := range existing {
		ix.Add(ids)
	}
	return ix.IsDuplicate(Identify(candidate))
}
