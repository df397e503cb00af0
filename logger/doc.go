// Package logger provides structured logging using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Pipeline runs log through a logger tagged with
// the "pipeline" component and a per-run id.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline").WithRun(runID)
//	log.Debug("batch finalized", logger.Fields(logger.FieldOutputs, 3))
package logger
