package bootstrap

import (
	_ "embed"
	"encoding/json"
	"os"

	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager/validationerrors"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

var (
	ErrSeedError      apperrors.Error = apperrors.ErrInvalid.New("seed error")
	ErrUnreadableSeed apperrors.Error = ErrSeedError.New("unable to read seed file")
	ErrInvalidSeed    apperrors.Error = ErrSeedError.New("seed does not match the seed schema")
)

//go:embed seed.schema.json
var seedSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(seedSchema)

type Seed struct {
	Credentials       []api.CreateCredentialRequest       `json:"credentials,omitempty"`
	ExternalLocations []api.CreateExternalLocationRequest `json:"externalLocations,omitempty"`
	Catalogs          []CatalogSeed                       `json:"catalogs,omitempty"`
	Shares            []ShareSeed                         `json:"shares,omitempty"`
	Recipients        []RecipientSeed                     `json:"recipients,omitempty"`
}

type CatalogSeed struct {
	api.CreateCatalogRequest
	Schemas []SchemaSeed `json:"schemas,omitempty"`
}

// SchemaSeed takes its catalog from the enclosing CatalogSeed.
type SchemaSeed struct {
	api.CreateSchemaRequest
	Tables  []api.CreateTableRequest  `json:"tables,omitempty"`
	Volumes []api.CreateVolumeRequest `json:"volumes,omitempty"`
}

type ShareSeed struct {
	api.CreateShareRequest
	Objects []api.DataObject `json:"objects,omitempty"`
}

// RecipientSeed grants SELECT on each of Shares.
type RecipientSeed struct {
	api.CreateRecipientRequest
	Shares []string `json:"shares,omitempty"`
}

// ParseSeed converts a YAML (or JSON) seed document, validates it against the
// seed schema and decodes it.
func ParseSeed(data []byte) (*Seed, error) {
	doc, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, ErrInvalidSeed.Err(err)
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, ErrInvalidSeed.Err(err)
	}
	if !result.Valid() {
		var ves validationerrors.ValidationErrors
		for _, re := range result.Errors() {
			ves = append(ves, validationerrors.ValidationError{
				Field:  re.Field(),
				Value:  re.Value(),
				ErrStr: re.Description(),
			})
		}
		return nil, ErrInvalidSeed.Err(ves)
	}
	seed := &Seed{}
	if err := json.Unmarshal(doc, seed); err != nil {
		return nil, ErrInvalidSeed.Err(err)
	}
	seed.inherit()
	return seed, nil
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrUnreadableSeed.Err(err)
	}
	return ParseSeed(data)
}

// inherit fills the parent names of nested objects.
func (s *Seed) inherit() {
	for i := range s.Catalogs {
		c := &s.Catalogs[i]
		for j := range c.Schemas {
			sc := &c.Schemas[j]
			sc.CatalogName = c.Name
			for k := range sc.Tables {
				sc.Tables[k].CatalogName = c.Name
				sc.Tables[k].SchemaName = sc.Name
			}
			for k := range sc.Volumes {
				sc.Volumes[k].CatalogName = c.Name
				sc.Volumes[k].SchemaName = sc.Name
			}
		}
	}
	for i := range s.Recipients {
		if s.Recipients[i].AuthenticationType == "" {
			s.Recipients[i].AuthenticationType = api.AuthenticationTypeToken
		}
	}
}
