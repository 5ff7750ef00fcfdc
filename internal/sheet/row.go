package sheet

import (
	"strconv"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/dedup"
)

// Flag tokens for boolean columns.
const (
	Yes = "Sí"
	No  = "No"
)

func flag(b bool) string {
	if b {
		return Yes
	}
	return No
}

func coord(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// Row materializes rec in Header order. Missing values render as empty
// strings.
func Row(rec acta.Record) []string {
	c := rec.Client
	t := rec.Topics
	return []string{
		rec.ID,
		rec.Visit.LocalTime,
		rec.Visit.UTCTime,
		rec.Executive.Name,
		rec.Executive.Email,
		rec.Location.Zone,
		rec.Location.Neighborhood,
		rec.Location.Address,
		c.BusinessName,
		c.ContractNumber,
		c.TaxID,
		c.EconomicActivity,
		c.ConsumptionKWh,
		c.HasKVArConsumption,
		c.ConsumptionKVAr,
		c.ContributionExempt,
		c.UpdatedOn,
		rec.Contact.Name,
		rec.Contact.Position,
		rec.Contact.Email,
		rec.Contact.Mobile,
		flag(t.EfficientEnergy),
		t.EfficientEnergyDesc,
		flag(t.GridConnection),
		t.GridConnectionDesc,
		flag(t.RetiqLabel),
		t.RetiqLabelDesc,
		flag(t.EnergySaving),
		t.EnergySavingDesc,
		flag(t.EnergyUse),
		t.EnergyUseDesc,
		rec.Incidents.Variations,
		rec.Incidents.VariationsCount,
		rec.Incidents.Outages,
		rec.Incidents.OutagesCount,
		rec.Observations,
		flag(rec.Reconquest),
		rec.Signature.Name,
		coord(rec.Visit.Geo.Lat),
		coord(rec.Visit.Geo.Lng),
		rec.Seal.ContentHash,
		rec.Artifacts.PDFFilename,
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// rowIdentities rebuilds the identities of an existing data row. Cells
// past the end of a short row count as empty.
func rowIdentities(row []string) dedup.Identities {
	return dedup.Identities{
		Primary: cell(row, colID),
		Content: dedup.ContentKey(cell(row, colContract), cell(row, colTaxID), cell(row, colLocal)),
	}
}
