package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/app"
	"github.com/roach88/actas/internal/dedup"
)

// ExportView is the JSON form of an export. Artifact bytes are never
// printed; a regenerated master is reported by the path it was saved to.
type ExportView struct {
	RunID    string `json:"run_id"`
	Path     string `json:"path"`
	Appended int    `json:"appended"`
	Skipped  int    `json:"skipped"`
	Unsealed int    `json:"unsealed"`
	Rows     int    `json:"rows"`
	Written  bool   `json:"written"`
	SavedTo  string `json:"saved_to,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

func exportView(res app.ExportResult) ExportView {
	v := ExportView{
		RunID:    res.RunID,
		Path:     string(res.Path),
		Appended: res.Appended,
		Skipped:  res.Skipped,
		Unsealed: res.Unsealed,
		Rows:     res.Rows,
		Written:  res.Written,
		SavedTo:  res.SavedTo,
	}
	if res.Fallback != nil {
		v.Fallback = res.Fallback.Error()
	}
	return v
}

func printExport(f *OutputFormatter, v ExportView) {
	if v.SavedTo != "" {
		if v.Fallback != "" {
			f.Printf("%s Master not updated: %s", warnMark(), v.Fallback)
		}
		f.Printf("%s Master regenerated: %s (%d rows)", okMark(), v.SavedTo, v.Rows)
	} else {
		f.Printf("%s Master updated: %d appended, %d already present (%d rows)", okMark(), v.Appended, v.Skipped, v.Rows)
	}
	if v.Unsealed > 0 {
		f.Printf("%s %d unsealed acta(s) left out", warnMark(), v.Unsealed)
	}
}

// RecordSummary is one history line.
type RecordSummary struct {
	ID        string `json:"id"`
	LocalTime string `json:"fecha_local"`
	Contract  string `json:"numeroContrato"`
	TaxID     string `json:"nit"`
	Business  string `json:"nombreEmpresa"`
	Sealed    bool   `json:"sealed"`
	PDF       string `json:"pdf,omitempty"`
}

func summarize(rec acta.Record) RecordSummary {
	return RecordSummary{
		ID:        rec.ID,
		LocalTime: rec.Visit.LocalTime,
		Contract:  rec.Client.ContractNumber,
		TaxID:     rec.Client.TaxID,
		Business:  rec.Client.BusinessName,
		Sealed:    rec.Sealed(),
		PDF:       rec.Artifacts.PDFFilename,
	}
}

func printSummaries(f *OutputFormatter, rows []RecordSummary) {
	w := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLOCAL TIME\tCONTRACT\tNIT\tBUSINESS\tSEALED\tPDF")
	for _, r := range rows {
		sealed := "no"
		if r.Sealed {
			sealed = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.LocalTime, r.Contract, r.TaxID, r.Business, sealed, r.PDF)
	}
	w.Flush()
}

// DedupeView is the JSON form of a duplicate report.
type DedupeView struct {
	Total   int              `json:"total"`
	Unique  int              `json:"unique"`
	Removed int              `json:"removed"`
	DryRun  bool             `json:"dry_run"`
	Groups  []DedupeGroupRow `json:"groups,omitempty"`
}

// DedupeGroupRow lists the records dropped in favour of Keep.
type DedupeGroupRow struct {
	Keep    string   `json:"keep"`
	Dropped []string `json:"dropped"`
}

func dedupeView(r dedup.Report, dryRun bool) DedupeView {
	v := DedupeView{Total: r.Total, Unique: r.Unique, Removed: r.Duplicates(), DryRun: dryRun}
	for _, g := range r.Groups {
		row := DedupeGroupRow{Keep: g.Keep.ID}
		for _, d := range g.Dropped {
			row.Dropped = append(row.Dropped, d.ID)
		}
		v.Groups = append(v.Groups, row)
	}
	return v
}
