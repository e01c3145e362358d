package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	schemavalidator "github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/runtime"
	"github.com/wippyai/jsbind/wasmmod"
)

// Manifest declares the native modules a runtime should provide.
type Manifest struct {
	Modules          []ModuleSpec `yaml:"modules" json:"modules" validate:"required,min=1,unique=Name,dive" jsonschema:"minItems=1"`
	MemoryLimitPages uint32       `yaml:"memoryLimitPages,omitempty" json:"memoryLimitPages,omitempty" validate:"lte=65536" jsonschema:"maximum=65536"`
}

// ModuleSpec declares one wasm-backed module. Wasm is a path to a core wasm
// binary, relative to the manifest. Exports, when set, must all be function
// exports of the binary.
type ModuleSpec struct {
	Name    string   `yaml:"name" json:"name" validate:"required,modname" jsonschema:"minLength=1"`
	Wasm    string   `yaml:"wasm" json:"wasm" validate:"required" jsonschema:"minLength=1"`
	Exports []string `yaml:"exports,omitempty" json:"exports,omitempty" validate:"omitempty,dive,required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("modname", func(fl validator.FieldLevel) bool {
		return !strings.ContainsRune(fl.Field().String(), 0)
	})
	return v
}

// Parse decodes a YAML manifest and validates it. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "parse manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseManifest, errors.KindNotFound, err, "read manifest")
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	Logger().Debug("manifest loaded", zap.String("path", path), zap.Int("modules", len(m.Modules)))
	return m, nil
}

// Validate checks the manifest's field constraints.
func (m *Manifest) Validate() error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "validate manifest")
	}

	msgs := make([]string, 0, len(verrs))
	path := []string{}
	for i, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		if i == 0 {
			path = strings.Split(fe.Namespace(), ".")
		}
	}
	return errors.New(errors.PhaseManifest, errors.KindInvalidInput).
		Path(path...).
		Detail("%s", strings.Join(msgs, "; ")).
		Cause(err).
		Build()
}

// Options returns the runtime options the manifest implies.
func (m *Manifest) Options() []runtime.Option {
	var opts []runtime.Option
	if m.MemoryLimitPages > 0 {
		opts = append(opts, runtime.WithMemoryLimitPages(m.MemoryLimitPages))
	}
	return opts
}

// Install compiles every declared module and registers it with rt. Relative
// wasm paths resolve against baseDir.
func (m *Manifest) Install(ctx context.Context, rt *runtime.Runtime, baseDir string) ([]*wasmmod.Module, error) {
	mods := make([]*wasmmod.Module, 0, len(m.Modules))
	for _, spec := range m.Modules {
		path := spec.Wasm
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}

		wasm, err := os.ReadFile(path)
		if err != nil {
			return mods, errors.New(errors.PhaseManifest, errors.KindNotFound).
				Path(spec.Name).
				Detail("read wasm %s", path).
				Cause(err).
				Build()
		}

		wm, err := rt.LoadWASM(ctx, spec.Name, wasm)
		if err != nil {
			return mods, err
		}
		mods = append(mods, wm)

		for _, name := range spec.Exports {
			if _, ok := wm.Export(name); !ok {
				return mods, errors.New(errors.PhaseManifest, errors.KindNotFound).
					Path(spec.Name, name).
					Detail("module %q has no function export %q", spec.Name, name).
					Build()
			}
		}

		Logger().Debug("manifest module installed",
			zap.String("module", spec.Name),
			zap.String("wasm", path),
			zap.Int("exports", len(wm.Exports())))
	}
	return mods, nil
}

// Schema returns the JSON schema of the manifest format.
func Schema() ([]byte, error) {
	return json.MarshalIndent(reflectSchema(), "", "  ")
}

const schemaURL = "manifest.schema.json"

func reflectSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	return r.Reflect(&Manifest{})
}

// ValidateDocument checks a raw YAML or JSON document against Schema without
// decoding it into a Manifest.
func ValidateDocument(data []byte) error {
	s := reflectSchema()
	raw, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "generate schema")
	}

	url := schemaURL
	if s.ID != jsonschema.EmptyID {
		url = string(s.ID)
	}

	c := schemavalidator.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "add schema")
	}
	sch, err := c.Compile(url)
	if err != nil {
		return errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "compile schema")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "parse manifest")
	}

	// normalize YAML scalars into JSON types
	b, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "prepare manifest")
	}
	var obj any
	if err := json.Unmarshal(b, &obj); err != nil {
		return errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "prepare manifest")
	}

	if err := sch.Validate(obj); err != nil {
		return errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "manifest does not match schema")
	}
	return nil
}
