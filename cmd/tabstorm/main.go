// Package main is the entry point for the tabstorm daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/tabstorm/internal/bridge"
	"github.com/dshills/tabstorm/internal/config"
	"github.com/dshills/tabstorm/internal/dispatch"
	"github.com/dshills/tabstorm/internal/input"
	"github.com/dshills/tabstorm/internal/search"
	"github.com/dshills/tabstorm/internal/slot"
	"github.com/dshills/tabstorm/internal/store"
	"github.com/dshills/tabstorm/internal/workspace"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// executeTimeout bounds one action round trip through the extension.
const executeTimeout = 10 * time.Second

type options struct {
	ConfigPath string
	DataDir    string
	ListenAddr string
	Stdio      bool
	LogLevel   string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	logger, err := newLogger(opts.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	if opts.DataDir != "" {
		cfg.General.DataDir = opts.DataDir
	}
	if opts.ListenAddr != "" {
		cfg.General.ListenAddr = opts.ListenAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := os.MkdirAll(cfg.General.DataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create data dir: %v\n", err)
		return 1
	}
	st, err := store.Open(filepath.Join(cfg.General.DataDir, "tabstorm.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open store: %v\n", err)
		return 1
	}
	defer st.Close()

	table, err := cfg.Table()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	matcher := input.NewMatcher(input.Config{SequenceTimeout: cfg.SequenceTimeout()}, table)
	defer matcher.Close()

	br := bridge.New(logger.Named("bridge"), matcher)

	slots, err := slot.New(ctx, slot.Config{
		MaxSlots: cfg.General.MaxSlots,
		Recreate: cfg.General.RecreateMissing,
	}, br, st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load slots: %v\n", err)
		return 1
	}

	spaces, err := workspace.New(ctx, br, st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load workspaces: %v\n", err)
		return 1
	}
	spaces.KeepPinned(slots)

	engine := search.New(search.Config{HistoryLimit: cfg.General.HistoryLimit}, br, st, slots)
	br.Bind(engine, slots, spaces, st)

	disp := dispatch.New(slots, spaces, br, br)

	// Hot reload: a valid config swaps the binding table in place.
	watcher, err := config.Watch(opts.ConfigPath, func(next config.Config, err error) {
		if err != nil {
			logger.Warn("config reload failed", zap.Error(err))
			return
		}
		table, err := next.Table()
		if err != nil {
			logger.Warn("config reload failed", zap.Error(err))
			return
		}
		matcher.SwapTable(table)
		logger.Info("binding table reloaded")
	})
	if err != nil {
		logger.Warn("config watch unavailable", zap.Error(err))
	} else {
		defer watcher.Close()
	}

	go pump(ctx, logger, matcher, disp, br)

	// Graceful shutdown on SIGINT/SIGTERM.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	if opts.Stdio {
		// Launched by the browser as a native-messaging host. The
		// stdio connection is the session; exit when it closes.
		logger.Info("serving native messaging on stdio", zap.String("version", version))
		err := br.Serve(ctx, bridge.NewNativeConn(os.Stdin, os.Stdout, nil))
		if err != nil && ctx.Err() == nil {
			logger.Warn("stdio session ended", zap.Error(err))
		}
		return 0
	}

	server := bridge.NewServer(cfg.General.ListenAddr, br, logger.Named("ws"))
	go func() {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		server.Shutdown(shutCtx)
	}()

	logger.Info("listening",
		zap.String("addr", cfg.General.ListenAddr),
		zap.String("version", version))
	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// pump drains matched actions and executes them. Slot state is pushed
// to the extension after every action so its overlay stays current.
func pump(ctx context.Context, logger *zap.Logger, matcher *input.Matcher, disp *dispatch.Dispatcher, br *bridge.Bridge) {
	for {
		select {
		case <-ctx.Done():
			return
		case act, ok := <-matcher.Actions():
			if !ok {
				return
			}
			execCtx, cancel := context.WithTimeout(ctx, executeTimeout)
			err := disp.Execute(execCtx, act)
			cancel()
			if err != nil {
				logger.Warn("action failed",
					zap.String("action", act.Name()),
					zap.Error(err))
				br.Notice("error", fmt.Sprintf("%s: %v", act.Name(), err))
				continue
			}
			br.PushSlots()
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", level)
	}

	// Logs must stay off stdout: in stdio mode stdout carries the
	// native-messaging stream.
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.DataDir, "data", "", "Data directory (overrides config)")
	flag.StringVar(&opts.ListenAddr, "ws", "", "Websocket listen address (overrides config)")
	flag.BoolVar(&opts.Stdio, "stdio", false, "Serve native messaging on stdio instead of websocket")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Tabstorm - browser tab companion daemon\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tabstorm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tabstorm                    Listen for the extension on the default port\n")
		fmt.Fprintf(os.Stderr, "  tabstorm -stdio             Run as a native-messaging host\n")
		fmt.Fprintf(os.Stderr, "  tabstorm -c my.toml         Use a custom configuration file\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Tabstorm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.ConfigPath == "" {
		opts.ConfigPath = defaultConfigPath()
	}
	return opts
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tabstorm.toml"
	}
	return filepath.Join(dir, "tabstorm", "config.toml")
}
