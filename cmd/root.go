// Package cmd parses flags, assembles the engine, and dispatches into one of
// the run modes: interactive dashboard, watch, single JSON snapshot, or
// daemon.
package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsgrid/diskwatch/collector"
	"github.com/opsgrid/diskwatch/config"
	"github.com/opsgrid/diskwatch/engine"
	"github.com/opsgrid/diskwatch/history"
	"github.com/opsgrid/diskwatch/httpapi"
	"github.com/opsgrid/diskwatch/metrics"
	"github.com/opsgrid/diskwatch/ui"
)

// Version is set at build time via ldflags.
var Version = "1.2.0"

// Options holds the resolved CLI configuration.
type Options struct {
	Interval   time.Duration
	DataDir    string
	DBPath     string
	Mock       bool
	ShowHidden bool
	LogLevel   string

	JSONMode   bool
	WatchMode  bool
	WatchCount int
	DaemonMode bool

	HTTPEnabled bool
	HTTPAddr    string
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `diskwatch v%s — SMART disk health monitor with trend analysis

Usage:
  diskwatch [OPTIONS] [INTERVAL]

Modes:
  (default)         Interactive TUI dashboard (fullscreen)
  -watch            CLI output mode — prints device table with auto-refresh
  -json             Single JSON snapshot to stdout, then exit
  -daemon           Headless poller (no TUI; pairs with -serve for the API)
  -version          Print version and exit

Options:
  -interval N       Poll interval in seconds (default: 30)
  -datadir PATH     Data directory (default: ~/.diskwatch/)
  -db PATH          History database path (default: <datadir>/diskwatch.db)
  -serve            Enable the HTTP API and /metrics endpoint
  -addr ADDR        HTTP listen address (default: 127.0.0.1:9815)
  -mock             Use fabricated devices instead of smartctl
  -hidden           Show devices that identify nothing about themselves
  -count N          Iterations for -watch mode (0 = infinite, default: 0)
  -loglevel LEVEL   trace, debug, info, warn, error (default: info)

Positional:
  INTERVAL          First positional arg sets interval: diskwatch 10

Examples:
  sudo diskwatch                     Interactive dashboard, 30s refresh
  sudo diskwatch 10                  Interactive dashboard, 10s refresh
  sudo diskwatch -watch -count 1     Print the device table once
  sudo diskwatch -json | jq '.overall'
  sudo diskwatch -daemon -serve      Headless with HTTP API on 127.0.0.1:9815
  diskwatch -mock                    Demo mode, no smartctl required
  diskwatch -version
`, Version)
}

// Run parses flags and starts the application.
func Run() error {
	fileCfg := config.Load()

	var opts Options
	var intervalSec int
	var showVersion bool

	flag.IntVar(&intervalSec, "interval", fileCfg.IntervalSec, "Poll interval in seconds")
	flag.StringVar(&opts.DataDir, "datadir", fileCfg.DataDir, "Data directory")
	flag.StringVar(&opts.DBPath, "db", "", "History database path (default: <datadir>/diskwatch.db)")
	flag.BoolVar(&opts.Mock, "mock", false, "Use fabricated devices instead of smartctl")
	flag.BoolVar(&opts.ShowHidden, "hidden", fileCfg.ShowHidden, "Show unidentifiable devices")
	flag.StringVar(&opts.LogLevel, "loglevel", fileCfg.LogLevel, "Log level")
	flag.BoolVar(&opts.JSONMode, "json", false, "Output a single JSON snapshot and exit")
	flag.BoolVar(&opts.WatchMode, "watch", false, "CLI output mode (no TUI)")
	flag.IntVar(&opts.WatchCount, "count", 0, "Iterations for -watch (0=infinite)")
	flag.BoolVar(&opts.DaemonMode, "daemon", false, "Run headless (no TUI)")
	flag.BoolVar(&opts.HTTPEnabled, "serve", fileCfg.HTTP.Enabled, "Enable the HTTP API")
	flag.StringVar(&opts.HTTPAddr, "addr", fileCfg.HTTP.Addr, "HTTP listen address")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = printUsage
	flag.Parse()

	if showVersion {
		fmt.Printf("diskwatch v%s\n", Version)
		return nil
	}

	// Positional interval: `diskwatch 10` = `diskwatch -interval 10`
	if args := flag.Args(); len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			intervalSec = n
		}
	}
	if intervalSec < 1 {
		intervalSec = 1
	}
	opts.Interval = time.Duration(intervalSec) * time.Second

	if opts.DataDir != "" {
		if err := os.MkdirAll(opts.DataDir, 0700); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	if opts.DBPath == "" && opts.DataDir != "" {
		opts.DBPath = filepath.Join(opts.DataDir, "diskwatch.db")
	}

	log := newLogger(opts)
	return dispatch(opts, log)
}

// newLogger builds the process logger. The dashboard owns the terminal, so
// TUI runs log to a file under the data dir instead of stderr.
func newLogger(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	tui := !opts.JSONMode && !opts.WatchMode && !opts.DaemonMode
	var out io.Writer
	if tui {
		out = io.Discard
		if opts.DataDir != "" {
			if f, err := os.OpenFile(filepath.Join(opts.DataDir, "diskwatch.log"),
				os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
				out = f
			}
		}
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

// assemble builds the engine with its collaborators. The store is nil when
// no usable data dir exists; the engine then scores without history.
func assemble(opts Options, log zerolog.Logger) (*engine.Engine, *history.Store, *metrics.Metrics, error) {
	var source collector.Source
	var loads engine.LoadSource

	if opts.Mock {
		mock := collector.NewMockSource()
		source = mock
		loads = mock
	} else {
		smart, err := collector.NewSmartctlSource(log)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w (try -mock for a demo without smartctl)", err)
		}
		source = smart
		loads = collector.NewLoadSampler()
	}

	var store *history.Store
	if opts.DBPath != "" {
		s, err := history.Open(opts.DBPath)
		if err != nil {
			log.Warn().Err(err).Msg("history disabled: database unavailable")
		} else {
			store = s
		}
	}

	var cache *engine.Cache
	if opts.DataDir != "" {
		cache = engine.NewCache(opts.DataDir)
	}

	meter := metrics.New()
	eng := engine.New(source, loads, store, meter, cache, log)
	return eng, store, meter, nil
}

func dispatch(opts Options, log zerolog.Logger) error {
	eng, store, meter, err := assemble(opts, log)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	switch {
	case opts.JSONMode:
		return runJSON(eng)
	case opts.WatchMode:
		return runWatch(eng, opts)
	case opts.DaemonMode:
		return runDaemon(eng, store, meter, opts, log)
	default:
		if opts.HTTPEnabled {
			api := httpapi.NewServer(eng, store, meter, log)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				if err := api.Serve(ctx, opts.HTTPAddr); err != nil && err != context.Canceled {
					log.Error().Err(err).Msg("http api stopped")
				}
			}()
		}
		return ui.Run(eng, store, opts.Interval, opts.ShowHidden)
	}
}

// runJSON performs one cycle and prints the full result document.
func runJSON(eng *engine.Engine) error {
	if err := eng.Cycle(context.Background()); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(eng.Results())
}
