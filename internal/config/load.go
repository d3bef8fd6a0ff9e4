package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/slidevalve/internal/engine"
)

//go:embed schema.cue
var schemaSource string

// Error codes for configuration loading.
const (
	ErrCodeNotFound = "E301" // File missing or unreadable
	ErrCodeFormat   = "E302" // Unsupported file extension
	ErrCodeSyntax   = "E303" // CUE or YAML parse failure
	ErrCodeNoEngine = "E304" // No top-level engine object
	ErrCodeSchema   = "E305" // Value rejected by the schema
	ErrCodeDecode   = "E306" // Value could not be decoded into parameters
	ErrCodeFields   = "E307" // Unknown field or mistyped value (YAML)
)

// LoadError describes a configuration file that could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError reports whether err is, or wraps, a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Format identifies a configuration syntax.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported config extension %q (want .cue, .yaml or .yml)", filepath.Ext(path))}
	}
}

// LoadFile reads parameters from path. The format follows the extension.
func LoadFile(path string) (engine.Parameters, error) {
	format, err := FormatOf(path)
	if err != nil {
		return engine.Parameters{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Parameters{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading config: %v", err)}
	}
	return Load(path, format, data)
}

// Load decodes data in the given format on top of DefaultParameters. name is
// used for error positions.
func Load(name string, format Format, data []byte) (engine.Parameters, error) {
	return Overlay(engine.DefaultParameters(), name, format, data)
}

// Overlay decodes data on top of base: fields present in data replace those
// of base, the rest are kept.
func Overlay(base engine.Parameters, name string, format Format, data []byte) (engine.Parameters, error) {
	switch format {
	case FormatCUE:
		return loadCUE(base, name, data)
	case FormatYAML:
		return loadYAML(base, data)
	default:
		return engine.Parameters{}, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported format %q", format)}
	}
}

func loadCUE(base engine.Parameters, name string, data []byte) (engine.Parameters, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The embedded schema is part of the binary.
		panic(fmt.Sprintf("config: invalid embedded schema: %v", err))
	}

	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return engine.Parameters{}, cueLoadError(ErrCodeSyntax, err)
	}

	engineVal := value.LookupPath(cue.ParsePath("engine"))
	if !engineVal.Exists() {
		return engine.Parameters{}, &LoadError{Code: ErrCodeNoEngine, Message: "missing top-level engine field", Pos: value.Pos()}
	}

	unified := schema.LookupPath(cue.ParsePath("#Engine")).Unify(engineVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return engine.Parameters{}, cueLoadError(ErrCodeSchema, err)
	}

	p := base
	if err := unified.Decode(&p); err != nil {
		return engine.Parameters{}, cueLoadError(ErrCodeDecode, err)
	}
	return p, nil
}

// cueLoadError keeps the first CUE error and its position.
func cueLoadError(code string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

type yamlProbe struct {
	Engine *yaml.Node `yaml:"engine"`
}

type yamlDocument struct {
	Engine *engine.Parameters `yaml:"engine"`
}

func loadYAML(base engine.Parameters, data []byte) (engine.Parameters, error) {
	var probe yamlProbe
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return engine.Parameters{}, &LoadError{Code: ErrCodeSyntax, Message: err.Error()}
	}
	if probe.Engine == nil {
		return engine.Parameters{}, &LoadError{Code: ErrCodeNoEngine, Message: "missing top-level engine field"}
	}

	p := base
	doc := yamlDocument{Engine: &p}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return engine.Parameters{}, &LoadError{Code: ErrCodeFields, Message: strings.Join(typeErr.Errors, "; ")}
		}
		return engine.Parameters{}, &LoadError{Code: ErrCodeDecode, Message: err.Error()}
	}
	return p, nil
}
