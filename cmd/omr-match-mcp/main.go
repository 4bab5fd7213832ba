package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/ironsheep/omr-match-mcp/internal/config"
	"github.com/ironsheep/omr-match-mcp/internal/logging"
	"github.com/ironsheep/omr-match-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("omr-match-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("omr-match-mcp - MCP server for music symbol template matching")
			fmt.Println()
			fmt.Println("Usage: omr-match-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from ./.env):")
			fmt.Println("  OMR_MCP_LOG_LEVEL=info              debug, info, warn or error")
			fmt.Println("  OMR_MCP_LOG_FORMAT=console          console or json")
			fmt.Println("  OMR_MCP_KERNEL=chamfer3             chessboard, chamfer3, chamfer5, chamfer7, chamfer13")
			fmt.Println("  OMR_MCP_THRESHOLD=140               page binarization threshold")
			fmt.Println("  OMR_MCP_TEMPLATE_THRESHOLD=175      template glyph threshold")
			fmt.Println("  OMR_MCP_SMALL_RATIO=0.67            size of cue heads relative to standard heads")
			fmt.Println("  OMR_MCP_STEM_DX=0.05                stem anchor inset, ratio of symbol width")
			fmt.Println("  OMR_MCP_STEM_DY=0                   stem anchor inset, ratio of symbol height")
			fmt.Println("  OMR_MCP_KEEP_TEMPLATES_DIR=         save a decorated PNG of every built template")
			fmt.Println("  OMR_MCP_WATERSHED_STEP=1            gray levels flooded together")
			fmt.Println("  OMR_MCP_MAX_CANDIDATES=200          cap on returned match candidates")
			fmt.Println("  OMR_MCP_MAX_TABLES=16               distance tables kept in memory")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	envErr := loadDotEnv()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "omr-match-mcp: %v\n", err)
		os.Exit(1)
	}

	// Log to stderr (stdout is for MCP protocol)
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "omr-match-mcp: %v\n", err)
		os.Exit(1)
	}
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("ignoring unreadable .env file")
	}
	logger.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Msg("OMR match MCP server starting")

	server.Version = Version
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}
	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// loadDotEnv reads .env files into the environment. A missing file is fine;
// the environment alone is enough.
func loadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
