// Command lazyrun compiles a YAML pipeline definition and runs it over
// JSON values, printing the result as JSON.
//
//	lazyrun -def adults.yaml '{"name":"ada","age":36}' '{"name":"kid","age":9}'
//	cat people.jsonl | lazyrun -def adults.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kbukum/lazylists/config"
	"github.com/kbukum/lazylists/definition"
	"github.com/kbukum/lazylists/logger"
	"github.com/kbukum/lazylists/observability"
	"github.com/kbukum/lazylists/pipeline"
	"github.com/kbukum/lazylists/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

type options struct {
	def         string
	configFile  string
	envFile     string
	pretty      bool
	showVersion bool
	values      []string
}

func parseFlags(args []string, out io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("lazyrun", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&o.def, "def", "", "pipeline definition file (relative paths also resolve against engine.definitions_dir)")
	fs.StringVar(&o.configFile, "config", "", "config file (default: search lazyrun.yml, config.yml)")
	fs.StringVar(&o.envFile, "env", "", ".env file (default: search .env)")
	fs.BoolVar(&o.pretty, "pretty", false, "indent the JSON result")
	fs.BoolVar(&o.showVersion, "version", false, "print the version and exit")
	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: lazyrun -def <file.yaml> [flags] [json-value ...]")
		fmt.Fprintln(out, "Without json values, one JSON value is read per stdin line.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.values = fs.Args()
	if o.def == "" && !o.showVersion {
		fs.Usage()
		return nil, fmt.Errorf("lazyrun: -def is required")
	}
	return &o, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	o, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}
	if o.showVersion {
		fmt.Fprintln(stdout, version.Get())
		return nil
	}

	var loadOpts []config.LoaderOption
	if o.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(o.envFile))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Version
	}
	logger.Init(&cfg.Logging)
	log := logger.Get("lazyrun")

	pipeOpts, shutdown, err := setupObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("observability shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}()
	pipeOpts = append(pipeOpts, pipeline.WithMaxParallel(cfg.Engine.MaxParallel))

	path := resolveDefinition(o.def, cfg.Engine.DefinitionsDir)
	def, err := definition.Load(path)
	if err != nil {
		return err
	}

	dirs := []string{filepath.Dir(path)}
	if cfg.Engine.DefinitionsDir != "" {
		dirs = append(dirs, cfg.Engine.DefinitionsDir)
	}
	reg := definition.NewRegistry(definition.WithLoader(definition.NewFileLoader(dirs...)))
	registerBuiltins(reg)

	p, err := reg.Compile(def, pipeOpts...)
	if err != nil {
		return err
	}
	log.Debug("definition compiled", logger.Fields("pipeline", p.Name(), "path", path, "operators", p.Operators()))

	start := time.Now()
	var result any
	if len(o.values) > 0 {
		inputs, err := decodeArgs(o.values)
		if err != nil {
			return err
		}
		result, err = p.Invoke(ctx, inputs...)
		if err != nil {
			return err
		}
	} else {
		result, err = p.InvokeIter(ctx, lineSource(stdin))
		if err != nil {
			return err
		}
	}

	log.Debug("pipeline invoked", logger.DurationFields(p.Name(), time.Since(start)))

	return writeResult(stdout, result, o.pretty)
}

// resolveDefinition prefers path as given, then relative to dir.
func resolveDefinition(path, dir string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(dir, path)
}

// setupObservability starts the OTLP exporters enabled in cfg and returns
// the pipeline options that use them.
func setupObservability(ctx context.Context, cfg *config.Config) ([]pipeline.Option, func(context.Context) error, error) {
	var (
		opts      []pipeline.Option
		shutdowns []func(context.Context) error
	)
	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: cfg.Version,
			Environment:    cfg.Environment,
			Endpoint:       cfg.Tracing.Endpoint,
			Insecure:       cfg.Tracing.Insecure,
			SampleRate:     cfg.Tracing.SampleRate,
		})
		if err != nil {
			return nil, nil, err
		}
		shutdowns = append(shutdowns, tp.Shutdown)
		opts = append(opts, pipeline.WithTracer(tp.Tracer(observability.DefaultTracerName)))
	}

	if cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, observability.MeterConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: cfg.Version,
			Environment:    cfg.Environment,
			Endpoint:       cfg.Metrics.Endpoint,
			Insecure:       cfg.Metrics.Insecure,
			Interval:       cfg.Metrics.Interval,
		})
		if err != nil {
			return nil, nil, errors.Join(err, shutdown(ctx))
		}
		shutdowns = append(shutdowns, mp.Shutdown)
		m, err := observability.NewMetrics(mp.Meter(observability.DefaultTracerName))
		if err != nil {
			return nil, nil, errors.Join(err, shutdown(ctx))
		}
		opts = append(opts, pipeline.WithMetrics(m))
	}

	return opts, shutdown, nil
}
