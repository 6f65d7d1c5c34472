package field

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a definition file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatOf picks the format from a file extension. Unknown extensions are JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".cue":
		return FormatCUE
	}
	return FormatJSON
}

// LoadFile reads a definition from path, choosing the decoder by extension.
func LoadFile(path string) (Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definition{}, fmt.Errorf("opening definition: %w", err)
	}
	defer f.Close()
	def, err := Decode(f, FormatOf(path))
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Decode reads a definition in the given format. YAML and CUE are converted
// to JSON first so every format goes through the same field decoding. Fields
// without an id get a fresh one.
func Decode(r io.Reader, format Format) (Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Definition{}, fmt.Errorf("reading definition: %w", err)
	}

	switch format {
	case FormatYAML:
		data, err = yamlToJSON(data)
	case FormatCUE:
		data, err = cueToJSON(data)
	case FormatJSON, "":
	default:
		return Definition{}, fmt.Errorf("unsupported definition format %q", format)
	}
	if err != nil {
		return Definition{}, err
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("decoding definition: %w", err)
	}
	for i := range def.Fields {
		if def.Fields[i].ID == "" {
			def.Fields[i].ID = uuid.NewString()
		}
	}
	return def, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("converting yaml: %w", err)
	}
	return out, nil
}

func cueToJSON(data []byte) ([]byte, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename("definition.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compiling cue: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("evaluating cue: %w", err)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("exporting cue: %w", err)
	}
	return out, nil
}
