package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	gxolog "github.com/gxo-labs/gxotel/pkg/gxotel/v1/log"

	"github.com/gxo-labs/gxotel/internal/config"
	"github.com/gxo-labs/gxotel/internal/events"
	"github.com/gxo-labs/gxotel/internal/facade"
	"github.com/gxo-labs/gxotel/internal/loader"
	"github.com/gxo-labs/gxotel/internal/logger"
	"github.com/gxo-labs/gxotel/internal/metrics"
	"github.com/gxo-labs/gxotel/internal/noop"
	"github.com/gxo-labs/gxotel/internal/registry"
	"github.com/gxo-labs/gxotel/internal/secrets"
	"github.com/gxo-labs/gxotel/providers/otelprovider"
)

const (
	ExitSuccess         = 0
	ExitFailure         = 1
	ExitUsageError      = 2
	ExitTimeout         = 124
	ExitSigIntBase      = 128
	ExitSigInt          = ExitSigIntBase + int(syscall.SIGINT)
	ExitSigTerm         = ExitSigIntBase + int(syscall.SIGTERM)
	DefaultLogLevel     = "info"
	DefaultLogFmt       = "text"
	DefaultName         = "gxotel"
	DefaultWait         = 10 * time.Second
	DefaultEventBusSize = 256
	ShutdownTimeout     = 5 * time.Second
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "validate" {
		os.Exit(runValidateCommand(os.Args[2:]))
	}
	if len(os.Args) == 2 && (os.Args[1] == "--version" || os.Args[1] == "-version") {
		printVersion()
		os.Exit(ExitSuccess)
	}
	os.Exit(runCommand(os.Args[1:]))
}

func printVersion() {
	fmt.Printf("gxotel version %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("built: %s\n", buildDate)
	fmt.Printf("go version: %s\n", runtime.Version())
	fmt.Printf("os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func runValidateCommand(args []string) int {
	validateFlags := flag.NewFlagSet("validate", flag.ContinueOnError)
	configPath := validateFlags.String("config", "", "Path to the telemetry configuration YAML file to validate (required)")
	logLevel := validateFlags.String("log-level", DefaultLogLevel, "Log level for validation output (debug, info, warn, error)")

	validateFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s validate -config <path> [flags...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Validates the structure and schema compatibility of a gxotel configuration.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		validateFlags.PrintDefaults()
	}

	if err := validateFlags.Parse(args); err != nil {
		return ExitUsageError
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config flag is required for validation")
		validateFlags.Usage()
		return ExitUsageError
	}

	log := logger.NewLogger(*logLevel, "text", os.Stderr)
	log.Infof("Validating configuration: %s", *configPath)

	if _, err := config.LoadFromFile(*configPath); err != nil {
		logConfigError(log, err)
		return ExitFailure
	}

	log.Infof("Configuration validation successful: %s", *configPath)
	return ExitSuccess
}

func logConfigError(log gxolog.Logger, err error) {
	var validationErr *gxoerrors.ValidationError
	var configErr *gxoerrors.ConfigError
	switch {
	case errors.As(err, &validationErr):
		log.Errorf("Configuration validation failed:\n%s", validationErr.Error())
	case errors.As(err, &configErr):
		log.Errorf("Configuration error:\n%s", configErr.Error())
	default:
		log.Errorf("Failed to load or validate configuration: %v", err)
	}
}

type runOptions struct {
	configPath  string
	name        string
	logLevel    string
	logFormat   string
	wait        time.Duration
	metricsAddr string
	console     bool
}

func runCommand(args []string) int {
	runFlags := flag.NewFlagSet("gxotel", flag.ContinueOnError)
	var opts runOptions
	runFlags.StringVar(&opts.configPath, "config", "", "Path to the telemetry configuration YAML file (optional; OTEL_* variables apply either way)")
	runFlags.StringVar(&opts.name, "name", DefaultName, "Telemetry name, used as service name when none is configured")
	runFlags.StringVar(&opts.logLevel, "log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	runFlags.StringVar(&opts.logFormat, "log-format", DefaultLogFmt, "Log format (text, json)")
	runFlags.DurationVar(&opts.wait, "wait", DefaultWait, "How long to wait for the tracing backend to initialize")
	runFlags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address and run until interrupted (e.g. :9464)")
	runFlags.BoolVar(&opts.console, "console", false, "Enable tracing with the console exporter")
	versionFlag := runFlags.Bool("version", false, "Print version information and exit")

	runFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Initializes telemetry, runs a traced self-check and reports whether tracing is active.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		runFlags.PrintDefaults()
	}

	if err := runFlags.Parse(args); err != nil {
		return ExitUsageError
	}
	if *versionFlag {
		printVersion()
		return ExitSuccess
	}
	if opts.logFormat != "text" && opts.logFormat != "json" {
		fmt.Fprintln(os.Stderr, "Error: -log-format must be 'text' or 'json'")
		return ExitUsageError
	}
	if opts.wait <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: -wait must be positive, defaulting to %s\n", DefaultWait)
		opts.wait = DefaultWait
	}

	return run(opts)
}

func run(opts runOptions) int {
	tracker := secrets.NewSecretTracker()
	log := logger.NewLogger(opts.logLevel, opts.logFormat, os.Stderr, logger.WithSecretTracker(tracker))
	log = log.With("gxotel_version", version)
	log.Infof("gxotel v%s starting...", version)

	ctx := context.Background()

	cfg, err := buildConfig(ctx, opts, tracker)
	if err != nil {
		logConfigError(log, err)
		return ExitFailure
	}
	log.Debugf("Telemetry config: enabled=%t provider=%s protocol=%s endpoint=%q headers=%d",
		cfg.Enabled, cfg.ProviderName(), cfg.Protocol, cfg.Endpoint, len(cfg.Headers))

	eventBus := events.NewChannelEventBus(DefaultEventBusSize, log)
	defer eventBus.Close()

	metricsProvider := metrics.NewProcessRegistryProvider()
	collectors, err := metrics.NewCollectors(metricsProvider.Registry())
	if err != nil {
		log.Errorf("Failed to register metrics: %v", err)
		return ExitFailure
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	listener := events.NewMetricsEventListener(eventBus, collectors, log)
	go listener.Start(runCtx)

	reg := registry.NewStaticRegistry()
	if err := reg.Register(noop.Name, func() (gxotel.Provider, error) { return noop.DefaultProvider, nil }); err != nil {
		log.Errorf("Failed to register provider: %v", err)
		return ExitFailure
	}
	if err := reg.Register(otelprovider.Name, func() (gxotel.Provider, error) {
		return otelprovider.NewProvider(
			otelprovider.WithLogger(log),
			otelprovider.WithSecretTracker(tracker),
		), nil
	}); err != nil {
		log.Errorf("Failed to register provider: %v", err)
		return ExitFailure
	}

	l := loader.New(loader.WithRegistry(reg), loader.WithLogger(log), loader.WithEventBus(eventBus))
	manager := facade.NewManager(l, facade.WithLogger(log), facade.WithEventBus(eventBus))

	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancelShutdown()
		if shutdownErr := manager.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Warnf("Error shutting down telemetry: %v", shutdownErr)
		}
	}()

	manager.Init(runCtx, opts.name, cfg)

	waitCtx, cancelWait := context.WithTimeout(runCtx, opts.wait)
	tel, err := manager.WaitForInit(waitCtx)
	cancelWait()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Errorf("Telemetry initialization did not finish within %s", opts.wait)
			return ExitTimeout
		}
		log.Errorf("Telemetry initialization failed: %v", err)
		return ExitFailure
	}

	if err := selfCheck(runCtx, tel, log); err != nil {
		log.Errorf("Traced self-check failed: %v", err)
		return ExitFailure
	}

	if manager.IsActive() {
		log.Infof("Tracing is active for '%s'", tel.Name())
	} else {
		log.Infof("Tracing is not active for '%s'; using no-op telemetry", tel.Name())
	}

	if opts.metricsAddr == "" {
		return ExitSuccess
	}
	return serveMetrics(runCtx, cancelRun, opts.metricsAddr, metricsProvider, log)
}

// buildConfig loads the file (if any), applies defaults and the environment
// overlay, resolves header secrets and validates the result.
func buildConfig(ctx context.Context, opts runOptions, tracker *secrets.SecretTracker) (gxotel.Config, error) {
	var cfg gxotel.Config
	if opts.configPath != "" {
		loaded, err := config.LoadFromFile(opts.configPath)
		if err != nil {
			return gxotel.Config{}, err
		}
		cfg = *loaded
	}
	if opts.console {
		cfg.Enabled = true
		cfg.ConsoleExporter = true
	}
	if err := config.ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return gxotel.Config{}, err
	}
	cfg = config.WithDefaults(cfg)
	if err := config.ResolveSecrets(ctx, &cfg, secrets.NewEnvProvider(), tracker); err != nil {
		return gxotel.Config{}, err
	}
	if err := config.Validate(&cfg); err != nil {
		return gxotel.Config{}, err
	}
	return cfg, nil
}

type selfCheckResult struct {
	TraceID string
	Steps   int
}

// selfCheck runs a small traced operation: a wrapped function containing one
// child span, with baggage propagated through the active context.
func selfCheck(ctx context.Context, tel *facade.Facade, log gxolog.Logger) error {
	check := gxotel.Trace(tel, func(ctx context.Context) (selfCheckResult, error) {
		span := tel.ActiveSpan(ctx)
		span.SetAttribute("gxotel.version", version)

		bag := tel.EmptyBaggage().SetEntry("gxotel.check", gxotel.BaggageEntry{Value: "self"})
		active := tel.ContextWithBaggage(tel.ActiveContext(ctx), bag)

		steps := 0
		err := tel.With(ctx, active, func(ctx context.Context) error {
			return tel.Tracer().StartActiveSpan(ctx, "gxotel.selfcheck.step", func(ctx context.Context, child gxotel.Span) error {
				defer child.End()
				if _, ok := tel.BaggageFromContext(tel.ActiveContext(ctx)).Entry("gxotel.check"); !ok {
					return errors.New("baggage was not propagated to the child span")
				}
				child.AddEvent("step", gxotel.Attributes{"index": 1})
				steps++
				return nil
			})
		})
		return selfCheckResult{TraceID: span.SpanContext().TraceID, Steps: steps}, err
	}, gxotel.WithSpanName("gxotel.selfcheck"), gxotel.WithTraceKind(gxotel.SpanKindInternal))

	result, err := check(ctx)
	if err != nil {
		return err
	}
	log.Infof("Self-check finished: steps=%d trace_id=%s", result.Steps, result.TraceID)
	return nil
}

func serveMetrics(ctx context.Context, cancel context.CancelFunc, addr string, provider *metrics.PrometheusRegistryProvider, log gxolog.Logger) int {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(provider.Registry(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var receivedSignal os.Signal
	var sigMu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
			sigMu.Lock()
			receivedSignal = sig
			sigMu.Unlock()
			cancel()
		case <-ctx.Done():
		}
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warnf("Error shutting down metrics server: %v", err)
		}
	}()

	log.Infof("Serving metrics on %s/metrics", addr)
	serveErr := server.ListenAndServe()
	if !errors.Is(serveErr, http.ErrServerClosed) {
		log.Errorf("Metrics server failed: %v", serveErr)
		cancel()
		wg.Wait()
		return ExitFailure
	}
	wg.Wait()

	sigMu.Lock()
	defer sigMu.Unlock()
	switch receivedSignal {
	case syscall.SIGINT:
		return ExitSigInt
	case syscall.SIGTERM:
		return ExitSigTerm
	}
	return ExitSuccess
}
