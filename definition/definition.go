package definition

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/lazylists/errors"
)

// Definition is a YAML-declared pipeline.
type Definition struct {
	// Name is the pipeline identifier and the name used by include.
	Name string `yaml:"name" validate:"required,identifier"`
	// Description is free text.
	Description string `yaml:"description,omitempty"`
	// Stages lists the operators in order. A stage with op "barrier"
	// closes a phase.
	Stages []Stage `yaml:"stages,omitempty" validate:"required_without=Phases,excluded_with=Phases,dive"`
	// Phases is the explicit form of Stages split at barriers.
	Phases [][]Stage `yaml:"phases,omitempty" validate:"omitempty,dive,min=1,dive"`
}

// Stage declares one operator and its parameters. Which parameters an
// operator accepts depends on the operator.
type Stage struct {
	Op    string         `yaml:"op" validate:"required,identifier"`
	Fn    string         `yaml:"fn,omitempty" validate:"omitempty,identifier"`
	Key   string         `yaml:"key,omitempty"`
	Keys  []string       `yaml:"keys,omitempty"`
	N     *int           `yaml:"n,omitempty" validate:"omitempty,gte=0"`
	Value any            `yaml:"value,omitempty"`
	Seed  any            `yaml:"seed,omitempty"`
	Match map[string]any `yaml:"match,omitempty"`
	Desc  bool           `yaml:"desc,omitempty"`
	Ref   string         `yaml:"ref,omitempty" validate:"omitempty,identifier"`
}

// OpBarrier and OpInclude are structural ops handled by the compiler.
const (
	OpBarrier = "barrier"
	OpInclude = "include"
)

// Parse decodes a YAML definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.InvalidDefinition("", fmt.Sprintf("parsing yaml: %v", err)).WithCause(err)
	}
	return &def, nil
}

// Load reads and decodes the definition at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidDefinition("", fmt.Sprintf("reading %s", path)).WithCause(err)
	}
	def, err := Parse(data)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			appErr.WithDetail("path", path)
		}
		return nil, err
	}
	return def, nil
}

// flat returns the stages with phases joined by barrier stages.
func (d *Definition) flat() []Stage {
	if len(d.Phases) == 0 {
		return d.Stages
	}
	var out []Stage
	for i, ph := range d.Phases {
		if i > 0 {
			out = append(out, Stage{Op: OpBarrier})
		}
		out = append(out, ph...)
	}
	return out
}
