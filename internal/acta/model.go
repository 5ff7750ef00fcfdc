package acta

// Format tags which document shape a Record was decoded from.
type Format string

const (
	// FormatCurrent records carry the contact and topics sections.
	FormatCurrent Format = "current"
	// FormatLegacy records predate the contact and topics sections; their
	// contact details live under the client section.
	FormatLegacy Format = "legacy"
)

// Record is one signed site-visit submission.
//
// Everything except Seal and Artifacts is immutable after sealing. Artifacts
// is set once, after the PDF renderer has produced its output.
type Record struct {
	ID            string    `json:"id"`
	Executive     Executive `json:"ejecutivo"`
	Location      Location  `json:"ubicacion"`
	Client        Client    `json:"cliente"`
	Contact       Contact   `json:"contacto"`
	Topics        Topics    `json:"temasTratados"`
	Incidents     Incidents `json:"incidencias"`
	Observations  string    `json:"observaciones"`
	Reconquest    bool      `json:"reconquista"`
	Visit         Visit     `json:"visita"`
	Consent       bool      `json:"consent"`
	Signature     Signature `json:"firma"`
	Seal          Seal      `json:"sello"`
	Artifacts     Artifacts `json:"archivos"`

	// Format is derived on decode and never persisted.
	Format Format `json:"-"`
}

// Executive is the field agent who performed the visit.
type Executive struct {
	Name  string `json:"nombre"`
	Email string `json:"correo"`
}

// Location is where the visit took place.
type Location struct {
	Zone         string `json:"zona"`
	Neighborhood string `json:"barrio"`
	Address      string `json:"direccion"`
}

// Client is the business visited. Numeric values are kept as entered.
type Client struct {
	BusinessName       string `json:"nombreEmpresa"`
	ContractNumber     string `json:"numeroContrato"`
	TaxID              string `json:"nit"`
	EconomicActivity   string `json:"actividadEconomica"`
	ContributionExempt string `json:"exencionContribucion"`
	UpdatedOn          string `json:"fechaActualizacion"`
	ConsumptionKWh     string `json:"consumoKwh"`
	HasKVArConsumption string `json:"tieneConsumoKvar"`
	ConsumptionKVAr    string `json:"consumoKvar"`
}

// Contact is the person who received the visit.
type Contact struct {
	Name     string `json:"nombre"`
	Position string `json:"cargo"`
	Email    string `json:"correo"`
	Mobile   string `json:"celular"`
}

// Topics flags which subjects were covered, each with a free-text note.
type Topics struct {
	EfficientEnergy     bool   `json:"energiaEficiente"`
	EfficientEnergyDesc string `json:"descEnergiaEficiente"`
	GridConnection      bool   `json:"conexionEmcali"`
	GridConnectionDesc  string `json:"descConexionEmcali"`
	RetiqLabel          bool   `json:"etiquetaRetiq"`
	RetiqLabelDesc      string `json:"descEtiquetaRetiq"`
	EnergySaving        bool   `json:"ahorroEnergia"`
	EnergySavingDesc    string `json:"descAhorroEnergia"`
	EnergyUse           bool   `json:"consumoEnergia"`
	EnergyUseDesc       string `json:"descConsumoEnergia"`
}

// Incidents records supply variations and outages reported by the client.
type Incidents struct {
	Variations      string `json:"variaciones"`
	VariationsCount string `json:"variacionesCant"`
	Outages         string `json:"cortes"`
	OutagesCount    string `json:"cortesCant"`
}

// Visit holds the capture timestamps and optional position.
type Visit struct {
	LocalTime string `json:"fecha_local"`
	UTCTime   string `json:"fecha_utc"`
	Geo       Geo    `json:"geo"`
}

// Geo is a WGS84 position. Both fields are nil when geolocation was off.
type Geo struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Known reports whether both coordinates are present.
func (g Geo) Known() bool {
	return g.Lat != nil && g.Lng != nil
}

// Signature is the signer's name and the captured signature image.
type Signature struct {
	Name    string `json:"nombre"`
	PNGData string `json:"pngDataUrl"`
}

// Seal is the tamper-evidence bundle computed by package seal.
type Seal struct {
	ClientEnvironment   string `json:"userAgent"`
	ContentHash         string `json:"hash_sha256"`
	VerificationPayload string `json:"qr_payload"`
}

// Artifacts names the files produced for a record after sealing.
type Artifacts struct {
	PDFFilename string `json:"pdf_filename,omitempty"`
}

// Signed reports whether the record carries a non-empty signature image.
func (r *Record) Signed() bool {
	return r.Signature.PNGData != ""
}

// Sealed reports whether the record is signed and carries a content hash.
// Only sealed records are eligible for export.
func (r *Record) Sealed() bool {
	return r.Signed() && r.Seal.ContentHash != ""
}
