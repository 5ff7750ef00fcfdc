package sheet

import "github.com/roach88/actas/internal/ir"

// SheetName is the name of the primary sheet.
const SheetName = "Actas"

// SchemaVersion identifies the current Header. Bump it whenever columns
// are appended.
const SchemaVersion = ir.SheetSchemaVersion

// Header is the current column layout. Only ever append to it.
var Header = []string{
	"id_acta",
	"fecha_local",
	"fecha_utc",
	"ejecutivo_nombre",
	"ejecutivo_correo",
	"zona",
	"barrio",
	"direccion",
	"nombre_empresa",
	"numero_contrato",
	"nit",
	"actividad_economica",
	"consumo_kwh",
	"tiene_consumo_kvar",
	"consumo_kvar",
	"exencion_contribucion",
	"fecha_actualizacion",
	"contacto_nombre",
	"contacto_cargo",
	"contacto_correo",
	"contacto_celular",
	"tema_energia_eficiente",
	"desc_energia_eficiente",
	"tema_conexion_emcali",
	"desc_conexion_emcali",
	"tema_etiqueta_retiq",
	"desc_etiqueta_retiq",
	"tema_ahorro_energia",
	"desc_ahorro_energia",
	"tema_consumo_energia",
	"desc_consumo_energia",
	"incidencias_variaciones",
	"incidencias_variaciones_cant",
	"incidencias_cortes",
	"incidencias_cortes_cant",
	"observaciones",
	"reconquista",
	"firmante_nombre",
	"geo_lat",
	"geo_lng",
	"hash_sha256",
	"pdf_filename",
}

// Column positions used to rebuild identities from existing rows.
const (
	colID       = 0
	colLocal    = 1
	colContract = 9
	colTaxID    = 10
)

// checkHeader compares an existing header row with Header. A strict prefix
// of Header is valid and reports the columns still to be appended; any
// other difference means the artifact is not ours to write to.
func checkHeader(existing []string) (missing []string, ok bool) {
	if len(existing) > len(Header) {
		return nil, false
	}
	for i, name := range existing {
		if name != Header[i] {
			return nil, false
		}
	}
	return Header[len(existing):], true
}
