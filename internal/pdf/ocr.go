package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	pdferrors "github.com/a3tai/payreq-extractor/internal/pdf/errors"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// maxDiagnostic caps how much of a tool's stderr is kept on an OCR error
const maxDiagnostic = 512

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run executes name with args and captures both output streams
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// diagnostic trims stderr to maxDiagnostic bytes without splitting a rune
func diagnostic(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if len(s) <= maxDiagnostic {
		return s
	}
	cut := maxDiagnostic
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}

// OCRConfig holds the external tools and settings used for OCR
type OCRConfig struct {
	Pdftoppm    string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Language    string // tesseract languages, default "ara+eng"
	DPI         int    // rasterization DPI, default 300
	PSM         int    // tesseract page segmentation mode, default 6
	TessdataDir string
}

// DefaultOCRConfig returns the settings used for payment request scans
func DefaultOCRConfig() OCRConfig {
	return OCRConfig{
		Pdftoppm:  "pdftoppm",
		Tesseract: "tesseract",
		Language:  "ara+eng",
		DPI:       300,
		PSM:       6,
	}
}

// OCR rasterizes the first page of a PDF and recognizes its text
type OCR struct {
	cfg    OCRConfig
	runner Runner
	logger *slog.Logger
}

// NewOCR creates an OCR engine. A nil runner executes real commands.
func NewOCR(cfg OCRConfig, runner Runner, logger *slog.Logger) *OCR {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultOCRConfig()
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = defaults.Pdftoppm
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = defaults.Tesseract
	}
	if cfg.Language == "" {
		cfg.Language = defaults.Language
	}
	if cfg.DPI <= 0 {
		cfg.DPI = defaults.DPI
	}
	if cfg.PSM <= 0 {
		cfg.PSM = defaults.PSM
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &OCR{cfg: cfg, runner: runner, logger: logger}
}

// FirstPage returns the recognized text of page one of data
func (o *OCR) FirstPage(ctx context.Context, data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "payreq-ocr-*")
	if err != nil {
		return "", pdferrors.WrapError(pdferrors.ErrorTypeOCRFailure, "failed to create temp dir", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			o.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	in := filepath.Join(tmpDir, "document.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return "", pdferrors.WrapError(pdferrors.ErrorTypeOCRFailure, "failed to stage document", err)
	}

	// pdftoppm -f 1 -l 1 -singlefile -r <dpi> -png <in.pdf> <tmp/page>
	prefix := filepath.Join(tmpDir, "page")
	if _, err := o.run(ctx, "pdftoppm", o.cfg.Pdftoppm,
		"-f", "1", "-l", "1", "-singlefile", "-r", strconv.Itoa(o.cfg.DPI), "-png", in, prefix); err != nil {
		return "", err
	}

	img := prefix + ".png"
	if _, err := os.Stat(img); err != nil {
		return "", pdferrors.WrapError(pdferrors.ErrorTypeOCRFailure, "pdftoppm produced no image", err)
	}

	// tesseract <img> stdout -l <lang> --psm <psm>
	args := []string{img, "stdout", "-l", o.cfg.Language, "--psm", strconv.Itoa(o.cfg.PSM)}
	if o.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", o.cfg.TessdataDir)
	}
	out, err := o.run(ctx, "tesseract", o.cfg.Tesseract, args...)
	if err != nil {
		return "", err
	}

	return NormalizeOCR(string(out)), nil
}

// run executes one step of the OCR pipeline. A failed step comes back as an
// OCR error carrying the tool's stderr.
func (o *OCR) run(ctx context.Context, step, name string, args ...string) ([]byte, error) {
	start := time.Now()
	stdout, stderr, err := o.runner.Run(ctx, name, args...)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		diag := diagnostic(stderr)
		o.logger.Warn("ocr step failed", "step", step, "cmd", name, "duration_ms", elapsed,
			"error", err, "stderr", diag)
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeOCRFailure, step+" failed", err).WithContext(diag)
	}
	o.logger.Debug("ocr step done", "step", step, "cmd", name, "duration_ms", elapsed,
		"stdout_bytes", len(stdout))
	return stdout, nil
}

// String describes the OCR pipeline for diagnostics
func (o *OCR) String() string {
	return fmt.Sprintf("%s -r %d | %s -l %s --psm %d", o.cfg.Pdftoppm, o.cfg.DPI, o.cfg.Tesseract, o.cfg.Language, o.cfg.PSM)
}
