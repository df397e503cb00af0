package definition

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/kbukum/lazylists/errors"
	"github.com/kbukum/lazylists/pipeline"
	"github.com/kbukum/lazylists/validation"
)

// located is a stage with the path reported in errors.
type located struct {
	Stage
	path string
}

// Compile validates def and builds its pipeline. Include stages are
// expanded in place through the registry's Loader.
func (r *Registry) Compile(def *Definition, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	if def == nil {
		return nil, errors.InvalidDefinition("", "definition is nil")
	}
	if err := validation.Validate(def); err != nil {
		return nil, invalid(def.Name, err)
	}

	stages, err := r.expand(def, map[string]bool{}, "")
	if err != nil {
		return nil, err
	}
	if err := checkBarriers(def.Name, stages); err != nil {
		return nil, err
	}

	p := pipeline.New(def.Name, opts...)
	v := validation.New()
	for _, s := range stages {
		if s.Op == OpBarrier {
			p = p.Barrier()
			continue
		}
		o, ok := r.operator(s.Op)
		if !ok {
			return nil, errors.UnknownOperator(s.Op).WithDetail("stage", s.path)
		}
		at := v.At(s.path)
		checkParams(at, o.spec, s.Stage)
		if at.HasErrors() {
			continue
		}
		if p, err = o.build(p, s.Stage, r); err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				return nil, appErr.WithDetail("stage", s.path)
			}
			return nil, errors.InvalidDefinition(def.Name, fmt.Sprintf("%s: %v", s.path, err)).WithCause(err)
		}
	}
	if err := v.Err(); err != nil {
		return nil, invalid(def.Name, err)
	}
	return p, nil
}

// expand inlines include stages, detecting cycles through stack.
func (r *Registry) expand(def *Definition, stack map[string]bool, prefix string) ([]located, error) {
	if stack[def.Name] {
		return nil, errors.InvalidDefinition(def.Name, "circular include")
	}
	stack[def.Name] = true
	defer delete(stack, def.Name)

	var out []located
	for i, s := range def.flat() {
		path := fmt.Sprintf("%sstages[%d]", prefix, i)
		if s.Op != OpInclude {
			out = append(out, located{Stage: s, path: path})
			continue
		}

		v := validation.New().At(path)
		v.Required("ref", s.Ref)
		v.Custom(s.set() == 0, path, "include only accepts ref")
		if err := v.Err(); err != nil {
			return nil, invalid(def.Name, err)
		}
		if r.loader == nil {
			return nil, errors.InvalidDefinition(def.Name, fmt.Sprintf("%s: no loader configured for include %q", path, s.Ref))
		}
		sub, err := r.loader.Load(s.Ref)
		if err != nil {
			return nil, err
		}
		if err := validation.Validate(sub); err != nil {
			return nil, invalid(sub.Name, err)
		}
		inner, err := r.expand(sub, stack, path+"."+s.Ref+".")
		if err != nil {
			return nil, err
		}
		out = append(out, inner...)
	}
	return out, nil
}

// checkBarriers rejects definitions that would declare an empty phase.
func checkBarriers(name string, stages []located) error {
	v := validation.New()
	for i, s := range stages {
		if s.Op != OpBarrier {
			continue
		}
		empty := i == 0 || i == len(stages)-1 || stages[i-1].Op == OpBarrier
		v.Custom(!empty, s.path, "barrier must separate two non-empty phases")
		v.At(s.path).Custom(s.set() == 0 && s.Ref == "", "", "barrier takes no parameters")
	}
	if err := v.Err(); err != nil {
		return invalid(name, err)
	}
	return nil
}

func checkParams(v *validation.Validator, sp paramSpec, s Stage) {
	set := s.set()
	for _, pn := range paramNames {
		switch {
		case sp.requires&pn.p != 0:
			v.Custom(set&pn.p != 0, pn.name, "is required")
		case sp.allowed()&pn.p == 0:
			v.Absent(pn.name, set&pn.p != 0)
		}
	}
	if sp.either != 0 {
		n := bits.OnesCount16(uint16(set & sp.either))
		v.Custom(n <= 1, names(sp.either), "only one may be set")
		if sp.needOne {
			v.Custom(n == 1, names(sp.either), "one is required")
		}
	}
	v.Absent("ref", s.Ref != "")
}

func names(p params) string {
	var out []string
	for _, pn := range paramNames {
		if p&pn.p != 0 {
			out = append(out, pn.name)
		}
	}
	return strings.Join(out, "|")
}

// invalid converts a validation failure into INVALID_DEFINITION, keeping
// the field details.
func invalid(name string, err error) *errors.AppError {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return errors.InvalidDefinition(name, err.Error()).WithCause(err)
	}
	return errors.InvalidDefinition(name, appErr.Message).WithDetails(appErr.Details).WithCause(err)
}
