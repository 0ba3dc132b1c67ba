package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/a3tai/payreq-extractor/internal/batch"
	"github.com/a3tai/payreq-extractor/internal/config"
	"github.com/a3tai/payreq-extractor/internal/export"
	"github.com/a3tai/payreq-extractor/internal/extract"
	"github.com/a3tai/payreq-extractor/internal/mcp"
	"github.com/a3tai/payreq-extractor/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging returns a logger writing to w at the configured level. In
// stdio mode stdout carries the protocol, so only warnings and errors are
// logged unless debug is enabled.
func setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if cfg.IsStdioMode() && !cfg.IsDebug() && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newProcessor wires acquisition and extraction from the configuration
func newProcessor(cfg *config.Config, runner pdf.Runner, logger *slog.Logger) *batch.Processor {
	acquirer := pdf.NewAcquirer(cfg.AcquirerConfig(runner, logger))
	extractor := extract.New(cfg.ExtractorOptions(logger)...)
	return batch.NewProcessor(acquirer, extractor, logger)
}

// runBatch processes the input directory once and writes the exports
func runBatch(ctx context.Context, cfg *config.Config, processor *batch.Processor, out io.Writer,
	logger *slog.Logger, now time.Time,
) error {
	rs, summary, err := processor.ProcessDirectory(ctx, cfg.InputDir)
	if err != nil {
		return err
	}

	if rs.Len() == 0 {
		fmt.Fprintln(out, batch.NoMatchesMessage)
		fmt.Fprintln(out, summary.String())
		return nil
	}

	xlsxPath, csvPath, err := export.WriteFiles(cfg.OutputDirectory(), rs.Records(), now)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.Info("exported payment requests", "records", rs.Len(), "xlsx", xlsxPath, "csv", csvPath)

	fmt.Fprintf(out, "extracted %d payment request(s)\n", rs.Len())
	fmt.Fprintf(out, "XLSX: %s\n", xlsxPath)
	fmt.Fprintf(out, "CSV:  %s\n", csvPath)
	fmt.Fprintln(out, summary.String())
	return nil
}

// runStdio serves MCP until stdin closes or the context is cancelled
func runStdio(ctx context.Context, cfg *config.Config, processor *batch.Processor, logger *slog.Logger) error {
	server, err := mcp.NewServer(cfg, processor, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func main() {
	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg, os.Stderr)
	slog.SetDefault(logger)
	logger.Debug("starting", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	processor := newProcessor(cfg, pdf.ExecRunner{}, logger)

	if cfg.IsStdioMode() {
		err = runStdio(ctx, cfg, processor, logger)
	} else {
		err = runBatch(ctx, cfg, processor, os.Stdout, logger, time.Now())
	}
	if err != nil {
		logger.Error("run failed", "mode", cfg.Mode, "error", err)
		stop()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Payment Request Extractor\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
