// Package definition compiles YAML pipeline definitions into pipelines.
//
// A definition names its operators in order; named functions are
// resolved from a Registry:
//
//	name: adults
//	stages:
//	  - op: resolve
//	  - op: filter
//	    fn: isAdult
//	  - op: pick
//	    keys: [name, age]
//	  - op: take
//	    n: 3
//	  - op: toArray
//
// An op "barrier" closes a phase, and an op "include" with a ref splices
// in the stages of another definition served by the registry's Loader.
//
//	reg := definition.NewRegistry(definition.WithLoader(definition.NewFileLoader("defs")))
//	reg.RegisterPredicate("isAdult", isAdult)
//	def, err := definition.Load("defs/adults.yaml")
//	p, err := reg.Compile(def)
//
// Failures are *errors.AppError values with code INVALID_DEFINITION,
// UNKNOWN_OPERATOR or UNKNOWN_FUNCTION.
package definition
