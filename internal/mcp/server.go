package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/payreq-extractor/internal/batch"
	"github.com/a3tai/payreq-extractor/internal/config"
	"github.com/a3tai/payreq-extractor/internal/descriptions"
	"github.com/a3tai/payreq-extractor/internal/export"
	"github.com/a3tai/payreq-extractor/internal/extract"
	"github.com/a3tai/payreq-extractor/internal/pdf"
	"github.com/a3tai/payreq-extractor/internal/pdf/security"
)

// maxListedFiles bounds the file listing in server info
const maxListedFiles = 10

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	processor *batch.Processor
	paths     *security.PathValidator
	mcpServer *server.MCPServer
	logger    *slog.Logger
	now       func() time.Time
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, processor *batch.Processor, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := security.NewPathValidator(cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("invalid document directory: %w", err)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		processor: processor,
		paths:     paths,
		mcpServer: mcpServer,
		logger:    logger,
		now:       time.Now,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExtractFile,
		mcp.WithDescription(descriptions.ExtractFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the payment request PDF, absolute or relative to the document directory"),
		),
	), s.handleExtractFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExtractDirectory,
		mcp.WithDescription(descriptions.ExtractDirectoryDescription),
		mcp.WithString("directory",
			mcp.Description("Directory to process (uses the document directory if empty)"),
		),
	), s.handleExtractDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExport,
		mcp.WithDescription(descriptions.ExportDescription),
		mcp.WithString("directory",
			mcp.Description("Directory to process (uses the document directory if empty)"),
		),
		mcp.WithString("output",
			mcp.Description("Directory for the XLSX and CSV files, inside the document directory "+
				"(uses the configured export directory if empty)"),
		),
	), s.handleExport)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	), s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, err := s.paths.ResolveFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := pdf.NewValidator(s.config.MaxFileSize).ValidateFileInfo(resolved, info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := os.ReadFile(resolved) //nolint:gosec // path is confined to the document directory
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read file: %v", err)), nil
	}

	name := s.displayName(resolved)
	rec, result := s.processor.ProcessOne(ctx, batch.Document{Name: name, Data: data})
	switch result.Outcome {
	case batch.OutcomeFailed:
		return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %s", name, result.Error)), nil
	case batch.OutcomeRejected:
		return mcp.NewToolResultText(fmt.Sprintf("%s in %s (text read via %s)",
			batch.NoMatchesMessage, name, result.Method)), nil
	}

	text := formatRecord(rec)
	if payload, err := json.MarshalIndent(rec, "", "  "); err == nil {
		text += "\nJSON:\n" + string(payload)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleExtractDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	rs, summary, dir, errResult := s.processDirectory(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	if rs.Len() == 0 {
		return mcp.NewToolResultText(batch.NoMatchesMessage + " in " + dir + "\n\n" + formatSummary(summary)), nil
	}

	text := fmt.Sprintf("Found %d payment request(s) in %s\n\n", rs.Len(), dir)
	for i, rec := range rs.Records() {
		text += fmt.Sprintf("%d. %s\n", i+1, formatRecordLine(rec))
	}
	text += "\n" + formatSummary(summary)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	outDir := s.config.OutputDirectory()
	if out := request.GetString("output", ""); out != "" {
		resolved, err := s.paths.Resolve(out)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		outDir = resolved
	}

	rs, summary, dir, errResult := s.processDirectory(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	if rs.Len() == 0 {
		return mcp.NewToolResultText(batch.NoMatchesMessage + " in " + dir + "; nothing was exported\n\n" +
			formatSummary(summary)), nil
	}

	xlsxPath, csvPath, err := export.WriteFiles(outDir, rs.Records(), s.now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	s.logger.Info("exported payment requests", "records", rs.Len(), "xlsx", xlsxPath, "csv", csvPath)

	text := fmt.Sprintf("Exported %d payment request(s) from %s\n", rs.Len(), dir)
	text += fmt.Sprintf("XLSX: %s\n", xlsxPath)
	text += fmt.Sprintf("CSV: %s\n\n", csvPath)
	text += formatSummary(summary)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := pdf.Discover(s.paths.Root())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}

// processDirectory runs the batch over the directory argument. A non-nil
// result means the request failed and should be returned as is.
func (s *Server) processDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*batch.ResultSet, batch.Summary, string, *mcp.CallToolResult,
) {
	dir, err := s.paths.ResolveDirectory(request.GetString("directory", ""))
	if err != nil {
		return nil, batch.Summary{}, "", mcp.NewToolResultError(err.Error())
	}

	rs, summary, err := s.processor.ProcessDirectory(ctx, dir)
	if err != nil {
		return nil, batch.Summary{}, "", mcp.NewToolResultError(err.Error())
	}
	return rs, summary, dir, nil
}

// displayName is path relative to the document directory when possible
func (s *Server) displayName(path string) string {
	if rel, err := filepath.Rel(s.paths.Root(), path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.Base(path)
}

// Formatting functions
func formatRecord(rec extract.Record) string {
	text := fmt.Sprintf("Payment request: %s\n", rec.FileName)
	for i, field := range extract.Fields {
		value := rec.Get(field)
		if value == "" {
			value = "-"
		}
		text += fmt.Sprintf("%s: %s\n", export.Columns[i+1], value)
	}
	if rec.Source != "" {
		text += fmt.Sprintf("Source: %s\n", rec.Source)
	}
	return text
}

func formatRecordLine(rec extract.Record) string {
	parts := []string{rec.FileName}
	for i, field := range extract.Fields {
		if value := rec.Get(field); value != "" {
			parts = append(parts, export.Columns[i+1]+"="+value)
		}
	}
	return strings.Join(parts, " | ")
}

func formatSummary(summary batch.Summary) string {
	text := fmt.Sprintf("Run %s: %d file(s), %d accepted, %d rejected, %d failed",
		summary.RunID, summary.Files, summary.Accepted, summary.Rejected, summary.Failed)
	if summary.Cancelled {
		text += " (cancelled)"
	}
	text += "\n"

	for _, r := range summary.Results {
		if r.Outcome == batch.OutcomeAccepted {
			continue
		}
		text += fmt.Sprintf("  %s: %s", r.Name, r.Outcome)
		if r.Error != "" {
			text += " - " + r.Error
		}
		text += "\n"
	}
	return text
}

func (s *Server) formatServerInfo(files []pdf.FileInfo) string {
	cfg := s.config
	text := fmt.Sprintf("%s v%s - Server Information\n", cfg.ServerName, cfg.Version)
	text += fmt.Sprintf("Document directory: %s\n", s.paths.Root())
	text += fmt.Sprintf("Export directory: %s\n", cfg.OutputDirectory())
	text += fmt.Sprintf("Max file size: %d MB\n", cfg.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Acceptance policy: %s\n", cfg.Acceptance)
	text += fmt.Sprintf("Amount policy: %s\n", cfg.Amount)
	text += fmt.Sprintf("Layout rules: %t\n", cfg.Layout)
	if cfg.OCR.Enabled {
		text += fmt.Sprintf("OCR fallback: enabled (%s, dpi %d)\n\n", cfg.OCR.Language, cfg.OCR.DPI)
	} else {
		text += "OCR fallback: disabled\n\n"
	}

	if len(files) > 0 {
		text += fmt.Sprintf("Documents (%d PDF files found):\n", len(files))
		for i, file := range files {
			if i >= maxListedFiles {
				text += fmt.Sprintf("   ... and %d more files\n", len(files)-maxListedFiles)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, s.displayName(file.Path), file.Size)
		}
	} else {
		text += "Documents: no PDF files found in the document directory\n"
	}

	text += "\nAvailable tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		desc := descriptions.GetToolDescription(name)
		if first, _, ok := strings.Cut(desc, "\n"); ok {
			desc = first
		}
		text += fmt.Sprintf("  • %s: %s\n", name, desc)
	}
	return text
}

// Run serves MCP over the process's standard input and output until ctx is
// done or stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting MCP server", "transport", "stdio", "dir", s.paths.Root())

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(&slogWriter{logger: s.logger}, "", 0))

	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// slogWriter adapts the transport's log.Logger output to slog
type slogWriter struct {
	logger *slog.Logger
}

func (w *slogWriter) Write(p []byte) (int, error) {
	w.logger.Error("mcp transport", "message", strings.TrimSpace(string(p)))
	return len(p), nil
}
