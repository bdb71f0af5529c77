// Command ls-sky is a terminal planetarium: the sky above a site on Earth
// and a top-down view of the solar system.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/litescript/ls-sky/internal/config"
	"github.com/litescript/ls-sky/internal/engine"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/metrics"
	"github.com/litescript/ls-sky/internal/passes"
	"github.com/litescript/ls-sky/internal/projector"
	"github.com/litescript/ls-sky/internal/report"
	"github.com/litescript/ls-sky/internal/ui"
	"github.com/litescript/ls-sky/internal/version"
)

// CLI flags for headless mode
var (
	summaryMode  bool
	snapshotPath string
	passesMode   bool
)

// Headless reports are computed for a viewport of this size.
var headlessViewport = projector.Viewport{Width: 80, Height: 48}

func main() {
	configPath := flag.String("config", "", "TOML config file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Write logs to this file (the TUI discards them otherwise)")
	loc := flag.String("location", "", `Observer site, "lat,lon" or "name lat,lon"`)
	jd := flag.Float64("jd", 0, "Start at this Julian Day (UT) instead of now")
	rate := flag.Float64("rate", 1, "Simulated seconds per wall-clock second")
	fov := flag.Float64("fov", 0, "Field of view in degrees")
	proj := flag.String("projection", "", "Projection (perspective, stereographic, fisheye, orthographic)")
	source := flag.String("ephemeris", "", "Ephemeris source (analytic, vsop87, horizons)")
	bortle := flag.Int("bortle", 0, "Bortle dark-sky class, 1 to 9")
	noAtmosphere := flag.Bool("no-atmosphere", false, "Hide the atmosphere: no refraction, extinction or daylight")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9090)")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.BoolVar(&summaryMode, "summary", false, "Print text summary instead of TUI")
	flag.StringVar(&snapshotPath, "snapshot-path", "", "Export JSON snapshot to file (use - for stdout)")
	flag.BoolVar(&passesMode, "passes", false, "Add rise, transit and set times to the headless report")
	flag.Parse()

	if *showVersion {
		fmt.Println("ls-sky", version.Version)
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fatal(err)
		}
	}

	// Flags override the file only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = *logLevel
		case "location":
			cfg.Location = *loc
		case "jd":
			cfg.Time.JD = *jd
		case "rate":
			cfg.Time.Rate = *rate
		case "fov":
			cfg.View.Fov = *fov
		case "projection":
			cfg.View.Projection = *proj
		case "ephemeris":
			cfg.Ephemeris.Source = *source
		case "bortle":
			cfg.Atmosphere.Bortle = *bortle
		case "no-atmosphere":
			cfg.Atmosphere.Show = !*noAtmosphere
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	// Set up logging
	logger := logging.New(cfg.Level())
	headless := summaryMode || snapshotPath != "" || passesMode || !term.IsTerminal(int(os.Stdout.Fd()))
	switch {
	case *logFile != "":
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fatal(fmt.Errorf("open log file: %w", err))
		}
		defer f.Close()
		logger.SetOutput(f)
	case !headless:
		// Stderr shares the terminal with the TUI.
		logger.SetOutput(io.Discard)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		fatal(fmt.Errorf("metrics: %w", err))
	}
	if cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, cfg.Metrics.Addr, collector, logger.Named("metrics"))
	}

	provider, err := engine.NewProvider(ctx, logger.Named("ephem"), cfg, time.Now())
	if err != nil {
		fatal(err)
	}
	eng, err := engine.New(logger.Named("engine"), cfg, provider, engine.Options{
		Recorder:  collector,
		Ephemeris: collector,
	})
	if err != nil {
		fatal(err)
	}
	if err := eng.Init(headlessViewport); err != nil {
		fatal(err)
	}
	defer eng.Deinit()

	// Headless mode: no TUI
	if headless {
		if err := runHeadless(eng); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	p := tea.NewProgram(ui.New(eng, collector), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// runHeadless prints one frame's report. Unless only a JSON snapshot was
// asked for it prints the summary table.
func runHeadless(eng *engine.Engine) error {
	eng.Update(0)
	snap := report.BuildSnapshot(eng)
	if passesMode {
		if err := snap.AddPasses(eng, passes.DefaultOptions()); err != nil {
			return fmt.Errorf("plan passes: %w", err)
		}
	}

	if snapshotPath != "" {
		if snapshotPath == "-" {
			if err := snap.WriteJSON(os.Stdout); err != nil {
				return fmt.Errorf("write JSON to stdout: %w", err)
			}
		} else {
			f, err := os.Create(snapshotPath)
			if err != nil {
				return fmt.Errorf("create snapshot file: %w", err)
			}
			defer f.Close()
			if err := snap.WriteJSON(f); err != nil {
				return fmt.Errorf("write JSON to file: %w", err)
			}
		}
	}

	if summaryMode || snapshotPath == "" {
		report.WriteSummaryTable(os.Stdout, snap)
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string, c *metrics.Collector, log *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server: %v", err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
