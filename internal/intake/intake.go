// Package intake loads visit submissions handed over by the capture form.
//
// A submission is a YAML (or JSON) document validated against an embedded
// CUE schema before it is decoded. The signature image is given as a PNG
// file path, relative to the submission, or as a data URL.
package intake

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/actas/internal/acta"
)

//go:embed schema.cue
var schemaCUE string

// PNGDataURLPrefix starts every accepted signature data URL.
const PNGDataURLPrefix = "data:image/png;base64,"

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// Submission is the decoded form payload.
type Submission struct {
	Executive    *Executive `yaml:"ejecutivo"`
	Location     Location   `yaml:"ubicacion"`
	Client       Client     `yaml:"cliente"`
	Contact      Contact    `yaml:"contacto"`
	Topics       Topics     `yaml:"temasTratados"`
	Incidents    Incidents  `yaml:"incidencias"`
	Observations string     `yaml:"observaciones"`
	Reconquest   bool       `yaml:"reconquista"`
	Consent      bool       `yaml:"consent"`
	Geo          *Geo       `yaml:"geo"`
	Signature    Signature  `yaml:"firma"`
}

// Executive mirrors acta.Executive with YAML names.
type Executive struct {
	Name  string `yaml:"nombre"`
	Email string `yaml:"correo"`
}

// Location mirrors acta.Location with YAML names.
type Location struct {
	Zone         string `yaml:"zona"`
	Neighborhood string `yaml:"barrio"`
	Address      string `yaml:"direccion"`
}

// Client mirrors acta.Client with YAML names.
type Client struct {
	BusinessName       string `yaml:"nombreEmpresa"`
	ContractNumber     string `yaml:"numeroContrato"`
	TaxID              string `yaml:"nit"`
	EconomicActivity   string `yaml:"actividadEconomica"`
	ContributionExempt string `yaml:"exencionContribucion"`
	UpdatedOn          string `yaml:"fechaActualizacion"`
	ConsumptionKWh     string `yaml:"consumoKwh"`
	HasKVArConsumption string `yaml:"tieneConsumoKvar"`
	ConsumptionKVAr    string `yaml:"consumoKvar"`
}

// Contact mirrors acta.Contact with YAML names.
type Contact struct {
	Name     string `yaml:"nombre"`
	Position string `yaml:"cargo"`
	Email    string `yaml:"correo"`
	Mobile   string `yaml:"celular"`
}

// Topics mirrors acta.Topics with YAML names.
type Topics struct {
	EfficientEnergy     bool   `yaml:"energiaEficiente"`
	EfficientEnergyDesc string `yaml:"descEnergiaEficiente"`
	GridConnection      bool   `yaml:"conexionEmcali"`
	GridConnectionDesc  string `yaml:"descConexionEmcali"`
	RetiqLabel          bool   `yaml:"etiquetaRetiq"`
	RetiqLabelDesc      string `yaml:"descEtiquetaRetiq"`
	EnergySaving        bool   `yaml:"ahorroEnergia"`
	EnergySavingDesc    string `yaml:"descAhorroEnergia"`
	EnergyUse           bool   `yaml:"consumoEnergia"`
	EnergyUseDesc       string `yaml:"descConsumoEnergia"`
}

// Incidents mirrors acta.Incidents with YAML names.
type Incidents struct {
	Variations      string `yaml:"variaciones"`
	VariationsCount string `yaml:"variacionesCant"`
	Outages         string `yaml:"cortes"`
	OutagesCount    string `yaml:"cortesCant"`
}

// Geo is an explicit position supplied with the submission.
type Geo struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// Signature names the signer and the signature image. After Load, Image
// is always a PNG data URL.
type Signature struct {
	Name  string `yaml:"nombre"`
	Image string `yaml:"imagen"`
}

// ValidationError is a submission that does not match the schema.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid submission: %s: %s", e.Path, e.Message)
	}
	return "invalid submission: " + e.Message
}

// Load reads, validates and decodes the submission at path, resolving a
// signature file path relative to it.
func Load(path string) (*Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read submission: %w", err)
	}
	sub, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := sub.resolveSignature(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return sub, nil
}

// Parse validates and decodes a submission document. A signature given as
// a file path is left unresolved.
func Parse(data []byte) (*Submission, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if raw == nil {
		return nil, &ValidationError{Message: "empty document"}
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var sub Submission
	if err := dec.Decode(&sub); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	return &sub, nil
}

func validate(raw any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile submission schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Submission"))

	v := def.Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError reports the first CUE error with its path.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	path := first.Path()
	if len(path) > 0 && path[0] == "#Submission" {
		path = path[1:]
	}
	return &ValidationError{
		Path:    strings.Join(path, "."),
		Message: fmt.Sprintf(format, args...),
	}
}

func (s *Submission) resolveSignature(dir string) error {
	img, err := ReadSignature(s.Signature.Image, dir)
	if err != nil {
		return err
	}
	s.Signature.Image = img
	return nil
}

// ReadSignature returns a PNG data URL for ref, which is either a data URL
// or a path to a PNG file. Relative paths are resolved against dir.
func ReadSignature(ref, dir string) (string, error) {
	if strings.HasPrefix(ref, PNGDataURLPrefix) {
		return ref, checkPNG(ref)
	}
	if strings.HasPrefix(ref, "data:") {
		return "", &ValidationError{Path: "firma.imagen", Message: "signature data URL must be image/png"}
	}

	if !filepath.IsAbs(ref) {
		ref = filepath.Join(dir, ref)
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("read signature image: %w", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return "", &ValidationError{Path: "firma.imagen", Message: ref + " is not a PNG file"}
	}
	return PNGDataURLPrefix + base64.StdEncoding.EncodeToString(data), nil
}

func checkPNG(dataURL string) error {
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, PNGDataURLPrefix))
	if err != nil {
		return &ValidationError{Path: "firma.imagen", Message: "signature data URL is not valid base64"}
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return &ValidationError{Path: "firma.imagen", Message: "signature data URL is not a PNG image"}
	}
	return nil
}

// ErrNoExecutive is returned by Record when neither the submission nor the
// caller names the executive.
var ErrNoExecutive = errors.New("submission names no executive")

// Record builds the unsealed record body. exec is used when the
// submission does not name the executive. ID, visit timestamps and the
// seal are left for the caller.
func (s *Submission) Record(exec acta.Executive) (acta.Record, error) {
	if s.Executive != nil {
		exec = acta.Executive(*s.Executive)
	}
	if exec.Name == "" {
		return acta.Record{}, ErrNoExecutive
	}

	rec := acta.Record{
		Executive: exec,
		Location:  acta.Location(s.Location),
		Client:    acta.Client(s.Client),
		Contact:   acta.Contact(s.Contact),
		Topics:    acta.Topics(s.Topics),
		Incidents: acta.Incidents(s.Incidents),

		Observations: s.Observations,
		Reconquest:   s.Reconquest,
		Consent:      s.Consent,
		Signature: acta.Signature{
			Name:    s.Signature.Name,
			PNGData: s.Signature.Image,
		},
		Format: acta.FormatCurrent,
	}
	if s.Geo != nil {
		lat, lng := s.Geo.Lat, s.Geo.Lng
		rec.Visit.Geo = acta.Geo{Lat: &lat, Lng: &lng}
	}
	return rec, nil
}
