// Package main provides the Surf terminal browser. Each tab is backed by a
// Chromium page driven through Playwright; the terminal shows the tab strip,
// address bar, load progress and history. With -script the same session is
// driven from a YAML file instead of the keyboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/entrhq/surf/pkg/browsing"
	appconfig "github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/engine/browser"
	"github.com/entrhq/surf/pkg/executor/tui"
	"github.com/entrhq/surf/pkg/kvstore"
	"github.com/entrhq/surf/pkg/logging"
)

const version = "0.1.0" // Version of Surf

// Store backends selectable with -store.
const (
	storeSQLite = "sqlite"
	storeFile   = "file"
	storeMemory = "memory"
)

// Config holds the application configuration
type Config struct {
	ConfigPath  string
	Store       string
	StorePath   string
	StartURL    string
	Script      string
	Headed      bool
	ShowVersion bool
}

func main() {
	// .env is optional; SURF_* variables feed flag defaults below.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("Surf v%s\n", version)
		return
	}

	if err := config.validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if runErr := run(ctx, config); runErr != nil {
		cancel()
		log.Fatalf("Application error: %v", runErr)
	}
	cancel()
}

// parseFlags parses command line flags and environment variables
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.ConfigPath, "config", os.Getenv("SURF_CONFIG"), "Path to the settings file (default: ~/.surf/config.json)")
	flag.StringVar(&config.Store, "store", envOr("SURF_STORE", storeSQLite), "Persistence backend: sqlite, file or memory")
	flag.StringVar(&config.StorePath, "store-path", os.Getenv("SURF_STORE_PATH"), "Path of the persistence file (default: ~/.surf/surf.db or ~/.surf/state.json)")
	flag.StringVar(&config.StartURL, "url", os.Getenv("SURF_URL"), "Address to open in the first tab")
	flag.StringVar(&config.Script, "script", os.Getenv("SURF_SCRIPT"), "Run a headless YAML script instead of the TUI")
	flag.BoolVar(&config.Headed, "headed", envBool("SURF_HEADED"), "Show the Chromium window")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Surf - a multi-tab terminal browser\n\n")
		fmt.Fprintf(os.Stderr, "Usage: surf [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (also read from .env):\n")
		fmt.Fprintf(os.Stderr, "  SURF_CONFIG        Settings file\n")
		fmt.Fprintf(os.Stderr, "  SURF_STORE         Persistence backend\n")
		fmt.Fprintf(os.Stderr, "  SURF_STORE_PATH    Persistence file\n")
		fmt.Fprintf(os.Stderr, "  SURF_URL           First address\n")
		fmt.Fprintf(os.Stderr, "  SURF_SCRIPT        Headless script\n")
		fmt.Fprintf(os.Stderr, "  SURF_HEADED        Show the Chromium window (true/false)\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  surf                                # Start the TUI\n")
		fmt.Fprintf(os.Stderr, "  surf -url go.dev -headed\n")
		fmt.Fprintf(os.Stderr, "  surf -store memory\n")
		fmt.Fprintf(os.Stderr, "  surf -script smoke.yaml            # Headless run\n")
	}

	flag.Parse()
	return config
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// validate checks that the configuration is valid
func (c *Config) validate() error {
	switch c.Store {
	case storeSQLite, storeFile, storeMemory:
	default:
		return fmt.Errorf("unknown store %q (use sqlite, file or memory)", c.Store)
	}
	if c.Script != "" {
		if _, err := os.Stat(c.Script); err != nil {
			return fmt.Errorf("script error: %w", err)
		}
	}
	return nil
}

// run executes the main application logic
func run(ctx context.Context, config *Config) error {
	if err := appconfig.Initialize(config.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	logger, err := logging.NewLogger("surf")
	if err != nil {
		log.Printf("Warning: logging to stderr: %v", err)
	}
	defer logger.Close()

	kv, err := openStore(config)
	if err != nil {
		return err
	}
	defer kv.Close()

	engineSection := appconfig.GetEngine()
	if config.Headed {
		engineSection.SetHeadless(false)
	}
	opts := browser.OptionsFromConfig(engineSection.Settings())
	opts.Logger = logger.With("engine")

	manager := browser.NewManager(opts)
	if err := manager.Initialize(); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := manager.Shutdown(); err != nil {
			logger.Warnf("browser shutdown: %v", err)
		}
	}()

	sessionOpts, err := appconfig.GetBrowsing().SessionOptions()
	if err != nil {
		return fmt.Errorf("invalid browsing settings: %w", err)
	}
	sessionOpts = append(sessionOpts, browsing.WithLogger(logger.With("session")))

	if config.Script != "" {
		return runHeadless(ctx, config, kv, manager, sessionOpts)
	}
	return runTUI(ctx, config, kv, manager, sessionOpts, logger)
}

// runTUI executes the TUI mode
func runTUI(ctx context.Context, config *Config, kv kvstore.Store, manager *browser.Manager, sessionOpts []browsing.Option, logger *logging.Logger) error {
	dispatcher := tui.NewDispatcher()
	session, err := browsing.New(kv, manager.Factory(dispatcher), sessionOpts...)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if config.StartURL != "" {
		u, err := browsing.ResolveInput(config.StartURL)
		if err != nil {
			return fmt.Errorf("invalid -url: %w", err)
		}
		if _, err := session.AddTab(u); err != nil {
			return fmt.Errorf("failed to open %s: %w", u, err)
		}
	}

	executor, err := tui.NewExecutor(session, dispatcher,
		tui.WithSettings(tui.SettingsFromConfig(appconfig.GetUI())),
		tui.WithLogger(logger.With("tui")),
	)
	if err != nil {
		return err
	}

	if err := executor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("executor error: %w", err)
	}
	return nil
}

// openStore opens the persistence backend selected by config.
func openStore(config *Config) (kvstore.Store, error) {
	path := config.StorePath
	if path == "" && config.Store != storeMemory {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		name := "surf.db"
		if config.Store == storeFile {
			name = "state.json"
		}
		path = filepath.Join(home, ".surf", name)
	}

	switch config.Store {
	case storeFile:
		store, err := kvstore.NewFileStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open state file: %w", err)
		}
		return store, nil
	case storeMemory:
		return kvstore.NewMemoryStore(), nil
	default:
		store, err := kvstore.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open state database: %w", err)
		}
		return store, nil
	}
}
