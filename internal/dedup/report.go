package dedup

import "github.com/roach88/actas/internal/acta"

// Group is a set of records sharing a content identity. Keep is the record
// that wins; Dropped are the rest, in input order.
type Group struct {
	Content string
	Keep    acta.Record
	Dropped []acta.Record
}

// Report summarizes duplicates found in a record population.
type Report struct {
	Total  int
	Unique int
	Groups []Group
}

// Duplicates returns the number of records that would be dropped.
func (r Report) Duplicates() int {
	return r.Total - r.Unique
}

// Unique returns records with duplicates removed, first-seen wins.
func Unique(records []acta.Record) []acta.Record {
	ix := NewIndex()
	out := make([]acta.Record, 0, len(records))
	for _, rec := range records {
		if ix.Admit(Identify(rec)) {
			out = append(out, rec)
		}
	}
	return out
}

// FindDuplicates groups every dropped record under the record it
// duplicates. Groups appear in the order their kept record was seen.
func FindDuplicates(records []acta.Record) Report {
	ix := NewIndex()
	byPrimary := make(map[string]int)
	byContent := make(map[string]int)
	var groups []Group
	unique := 0

	for _, rec := range records {
		ids := Identify(rec)
		if ix.Admit(ids) {
			unique++
			groups = append(groups, Group{Content: ids.Content, Keep: rec})
			byPrimary[ids.Primary] = len(groups) - 1
			byContent[ids.Content] = len(groups) - 1
			continue
		}
		g, ok := byPrimary[ids.Primary]
		if !ok {
			g = byContent[ids.Content]
		}
		groups[g].Dropped = append(groups[g].Dropped, rec)
	}

	report := Report{Total: len(records), Unique: unique}
	for _, g := range groups {
		if len(g.Dropped) > 0 {
			report.Groups = append(report.Groups, g)
		}
	}
	return report
}
