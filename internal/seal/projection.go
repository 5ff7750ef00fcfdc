package seal

import (
	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/ir"
)

// SignatureSentinel replaces the signature image in the hashed projection.
const SignatureSentinel = "[signed]"

// Project builds the hashed view of rec. Key names match the persisted
// document so a stored record can be re-hashed by any reader.
func Project(rec acta.Record) ir.Object {
	c := rec.Client
	t := rec.Topics
	return ir.Object{
		"id": ir.String(rec.ID),
		"ejecutivo": ir.Object{
			"nombre": ir.String(rec.Executive.Name),
			"correo": ir.String(rec.Executive.Email),
		},
		"ubicacion": ir.Object{
			"zona":      ir.String(rec.Location.Zone),
			"barrio":    ir.String(rec.Location.Neighborhood),
			"direccion": ir.String(rec.Location.Address),
		},
		"cliente": ir.Object{
			"nombreEmpresa":        ir.String(c.BusinessName),
			"numeroContrato":       ir.String(c.ContractNumber),
			"nit":                  ir.String(c.TaxID),
			"actividadEconomica":   ir.String(c.EconomicActivity),
			"exencionContribucion": ir.String(c.ContributionExempt),
			"fechaActualizacion":   ir.String(c.UpdatedOn),
			"consumoKwh":           ir.String(c.ConsumptionKWh),
			"tieneConsumoKvar":     ir.String(c.HasKVArConsumption),
			"consumoKvar":          ir.String(c.ConsumptionKVAr),
		},
		"contacto": ir.Object{
			"nombre":  ir.String(rec.Contact.Name),
			"cargo":   ir.String(rec.Contact.Position),
			"correo":  ir.String(rec.Contact.Email),
			"celular": ir.String(rec.Contact.Mobile),
		},
		"temasTratados": ir.Object{
			"energiaEficiente":     ir.Bool(t.EfficientEnergy),
			"descEnergiaEficiente": ir.String(t.EfficientEnergyDesc),
			"conexionEmcali":       ir.Bool(t.GridConnection),
			"descConexionEmcali":   ir.String(t.GridConnectionDesc),
			"etiquetaRetiq":        ir.Bool(t.RetiqLabel),
			"descEtiquetaRetiq":    ir.String(t.RetiqLabelDesc),
			"ahorroEnergia":        ir.Bool(t.EnergySaving),
			"descAhorroEnergia":    ir.String(t.EnergySavingDesc),
			"consumoEnergia":       ir.Bool(t.EnergyUse),
			"descConsumoEnergia":   ir.String(t.EnergyUseDesc),
		},
		"incidencias": ir.Object{
			"variaciones":     ir.String(rec.Incidents.Variations),
			"variacionesCant": ir.String(rec.Incidents.VariationsCount),
			"cortes":          ir.String(rec.Incidents.Outages),
			"cortesCant":      ir.String(rec.Incidents.OutagesCount),
		},
		"observaciones": ir.String(rec.Observations),
		"reconquista":   ir.Bool(rec.Reconquest),
		"consent":       ir.Bool(rec.Consent),
		"visita": ir.Object{
			"fecha_local": ir.String(rec.Visit.LocalTime),
			"fecha_utc":   ir.String(rec.Visit.UTCTime),
			"geo": ir.Object{
				"lat": ir.OptDecimal(rec.Visit.Geo.Lat),
				"lng": ir.OptDecimal(rec.Visit.Geo.Lng),
			},
		},
		"firma": ir.Object{
			"nombre":     ir.String(rec.Signature.Name),
			"pngDataUrl": ir.String(SignatureSentinel),
		},
	}
}
