package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iafnetworkspa/sysmon-mcp/internal/config"
	"github.com/iafnetworkspa/sysmon-mcp/internal/mcp"
	"github.com/iafnetworkspa/sysmon-mcp/internal/sysinfo"
)

func main() {
	// Parse command line flags
	logLevel := flag.String("log-level", "", "Log level override (trace, debug, info, warn, error); defaults to SYSMON_LOG_LEVEL")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol, so logs must go to stderr
	setupLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create and run MCP server
	server := newServer(cfg)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("MCP server stopped with error")
		fmt.Fprintf(os.Stderr, "Error running server: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration from environment variables and applies
// command line overrides.
func loadConfig(logLevel string) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.LogLevel = strings.ToLower(logLevel)
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func setupLogger(cfg config.Config, out io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(cfg.Level())

	if cfg.LogFormat == config.LogFormatConsole {
		out = zerolog.ConsoleWriter{Out: out}
	}
	log.Logger = zerolog.New(out).With().
		Timestamp().
		Str("instance", uuid.NewString()).
		Logger()
}

func newServer(cfg config.Config) *mcp.Server {
	tools := mcp.NewToolRegistry()
	resources := mcp.NewResourceRegistry()
	sysinfo.NewMonitor(cfg.MonitorOptions()).Register(tools, resources)

	return mcp.NewServer(cfg.ServerName, tools, resources)
}
