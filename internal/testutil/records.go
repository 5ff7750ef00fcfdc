package testutil

import "github.com/roach88/actas/internal/acta"

// SignatureA and SignatureB are distinct, valid-looking signature images.
const (
	SignatureA = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="
	SignatureB = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="
)

// Record returns a signed, unsealed record with the given identity fields
// and a plausible set of other fields.
func Record(id, contract, taxID, localTime string) acta.Record {
	lat, lng := 3.4516, -76.532
	return acta.Record{
		ID:        id,
		Executive: acta.Executive{Name: "Ana Pérez", Email: "ana.perez@example.com"},
		Location:  acta.Location{Zone: "Norte", Neighborhood: "Granada", Address: "Av 6N # 15-20"},
		Client: acta.Client{
			BusinessName:     "Panadería La 14",
			ContractNumber:   contract,
			TaxID:            taxID,
			EconomicActivity: "Comercio",
			ConsumptionKWh:   "1200",
		},
		Contact: acta.Contact{Name: "Luis Gómez", Position: "Gerente", Email: "luis@example.com", Mobile: "3001234567"},
		Topics: acta.Topics{
			EfficientEnergy:     true,
			EfficientEnergyDesc: "Cambio a LED",
			EnergySaving:        true,
		},
		Incidents:    acta.Incidents{Variations: "Sí", VariationsCount: "2"},
		Observations: "Sin novedad",
		Consent:      true,
		Visit: acta.Visit{
			LocalTime: localTime,
			UTCTime:   "2024-01-01T15:00:00.000Z",
			Geo:       acta.Geo{Lat: &lat, Lng: &lng},
		},
		Signature: acta.Signature{Name: "Luis Gómez", PNGData: SignatureA},
		Format:    acta.FormatCurrent,
	}
}

// RecordA is the canonical first scenario record.
func RecordA() acta.Record {
	return Record("AX-001", "C1", "T1", "2024-01-01 10:00")
}

// RecordB shares RecordA's content identity under a different id.
func RecordB() acta.Record {
	return Record("AX-002", "C1", "T1", "2024-01-01 10:00")
}
