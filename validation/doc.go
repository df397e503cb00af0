// Package validation checks configuration and pipeline definitions.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Failures are reported as
// an *errors.AppError with code INVALID_INPUT and a "fields" detail.
//
// # Struct Tag Validation
//
//	type EngineConfig struct {
//	    MaxParallel int `mapstructure:"max_parallel" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New().At("stages[2]")
//	v.Min("n", n, 0)
//	err := v.Err()
package validation
