package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/payreq-extractor/internal/extract"
	"github.com/a3tai/payreq-extractor/internal/pdf"
)

const (
	// Mode constants
	ModeBatch = "batch"
	ModeStdio = "stdio"

	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 50 * 1024 * 1024 // 50MB

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "PAYREQ"
)

// ErrVersionRequested is returned by LoadFromFlags when --version was passed
var ErrVersionRequested = errors.New("version requested")

// OCRConfig holds the OCR fallback settings
type OCRConfig struct {
	Enabled     bool
	Pdftoppm    string
	Tesseract   string
	Language    string
	DPI         int
	PSM         int
	TessdataDir string
}

// Config holds all configuration for the extractor
type Config struct {
	Mode string // "batch" or "stdio"

	// Input and output locations
	InputDir  string
	OutputDir string // empty means InputDir

	// Extraction settings
	Acceptance string // see extract.ParsePolicy
	Amount     string // see extract.ParseAmountPolicy
	Layout     bool   // bound identifier and date to the top band of the page

	OCR OCRConfig

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	ocr := pdf.DefaultOCRConfig()
	return &Config{
		Mode:       ModeBatch,
		InputDir:   currentDir,
		Acceptance: extract.PolicyRequestNumber.String(),
		Amount:     extract.AmountMaxOnPage.String(),
		OCR: OCRConfig{
			Enabled:     true,
			Pdftoppm:    ocr.Pdftoppm,
			Tesseract:   ocr.Tesseract,
			Language:    ocr.Language,
			DPI:         ocr.DPI,
			PSM:         ocr.PSM,
			TessdataDir: ocr.TessdataDir,
		},
		Version:     "1.0.0",
		ServerName:  "payreq-extractor",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	cfg.InputDir = absPath(cfg.InputDir)
	cfg.OutputDir = absPath(cfg.OutputDir)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func absPath(p string) string {
	if p == "" {
		return p
	}
	if expanded, err := filepath.Abs(p); err == nil {
		return expanded
	}
	return p
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("dir", cfg.InputDir)
	viper.SetDefault("out", cfg.OutputDir)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("acceptance", cfg.Acceptance)
	viper.SetDefault("amount", cfg.Amount)
	viper.SetDefault("layout", cfg.Layout)
	viper.SetDefault("ocr", cfg.OCR.Enabled)
	viper.SetDefault("pdftoppm", cfg.OCR.Pdftoppm)
	viper.SetDefault("tesseract", cfg.OCR.Tesseract)
	viper.SetDefault("ocrlang", cfg.OCR.Language)
	viper.SetDefault("dpi", cfg.OCR.DPI)
	viper.SetDefault("psm", cfg.OCR.PSM)
	viper.SetDefault("tessdata", cfg.OCR.TessdataDir)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch' to process a directory once, 'stdio' for an MCP server")
	pflag.String("dir", cfg.InputDir, "Directory containing payment request PDFs")
	pflag.String("out", cfg.OutputDir, "Directory for the XLSX and CSV exports (default: --dir)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("acceptance", cfg.Acceptance,
		"Which records to keep: 'request', 'request-or-amount' or 'request-and-amount'")
	pflag.String("amount", cfg.Amount, "Amount rule: 'max' (largest amount on the page) or 'marker' (after an amount label)")
	pflag.Bool("layout", cfg.Layout, "Read the request number and date from the top of the page only")
	pflag.Bool("ocr", cfg.OCR.Enabled, "Fall back to OCR when the text layer is sparse")
	pflag.String("pdftoppm", cfg.OCR.Pdftoppm, "pdftoppm binary used to rasterize page one")
	pflag.String("tesseract", cfg.OCR.Tesseract, "tesseract binary used for OCR")
	pflag.String("ocrlang", cfg.OCR.Language, "Tesseract language(s)")
	pflag.Int("dpi", cfg.OCR.DPI, "Rasterization resolution for OCR")
	pflag.Int("psm", cfg.OCR.PSM, "Tesseract page segmentation mode")
	pflag.String("tessdata", cfg.OCR.TessdataDir, "Tesseract tessdata directory")
}

var flagNames = []string{
	"mode", "dir", "out", "loglevel", "maxfilesize", "acceptance", "amount", "layout",
	"ocr", "pdftoppm", "tesseract", "ocrlang", "dpi", "psm", "tessdata",
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range flagNames {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPayment request extractor - reads payment request PDFs and exports their fields\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs                  # export to /path/to/pdfs\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs --out=/tmp/out   # export elsewhere\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs --ocr=false      # text layer only\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/path/to/pdfs     # MCP server over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  Every option can be set as %s_<OPTION>, e.g. %s_DIR or %s_OCRLANG\n",
			envPrefix, envPrefix, envPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.InputDir = viper.GetString("dir")
	cfg.OutputDir = viper.GetString("out")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Acceptance = viper.GetString("acceptance")
	cfg.Amount = viper.GetString("amount")
	cfg.Layout = viper.GetBool("layout")
	cfg.OCR.Enabled = viper.GetBool("ocr")
	cfg.OCR.Pdftoppm = viper.GetString("pdftoppm")
	cfg.OCR.Tesseract = viper.GetString("tesseract")
	cfg.OCR.Language = viper.GetString("ocrlang")
	cfg.OCR.DPI = viper.GetInt("dpi")
	cfg.OCR.PSM = viper.GetInt("psm")
	cfg.OCR.TessdataDir = viper.GetString("tessdata")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeStdio {
		return errors.New("mode must be either 'batch' or 'stdio'")
	}

	if c.InputDir == "" {
		return errors.New("input directory cannot be empty")
	}

	info, err := os.Stat(c.InputDir)
	switch {
	case os.IsNotExist(err) && c.Mode == ModeStdio:
		// The MCP server may be started before any document arrives
		if err := os.MkdirAll(c.InputDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create input directory %s: %w", c.InputDir, err)
		}
	case os.IsNotExist(err):
		return fmt.Errorf("input directory does not exist: %s", c.InputDir)
	case err != nil:
		return fmt.Errorf("cannot access input directory %s: %w", c.InputDir, err)
	case !info.IsDir():
		return fmt.Errorf("input path is not a directory: %s", c.InputDir)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if _, err := extract.ParsePolicy(c.Acceptance); err != nil {
		return err
	}
	if _, err := extract.ParseAmountPolicy(c.Amount); err != nil {
		return err
	}

	if c.OCR.Enabled {
		if c.OCR.DPI < 72 || c.OCR.DPI > 1200 {
			return errors.New("OCR dpi must be between 72 and 1200")
		}
		if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
			return errors.New("OCR page segmentation mode must be between 0 and 13")
		}
		if c.OCR.Language == "" {
			return errors.New("OCR language cannot be empty")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// OutputDirectory returns where exports are written
func (c *Config) OutputDirectory() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return c.InputDir
}

// ExtractorOptions returns the extract options selected by the configuration.
// Call Validate first; unparseable policies fall back to the defaults.
func (c *Config) ExtractorOptions(logger *slog.Logger) []extract.Option {
	policy, _ := extract.ParsePolicy(c.Acceptance)
	amount, _ := extract.ParseAmountPolicy(c.Amount)

	opts := []extract.Option{
		extract.WithPolicy(policy),
		extract.WithAmountPolicy(amount),
		extract.WithLogger(logger),
	}
	if c.Layout {
		opts = append(opts, extract.WithRules(extract.LayoutRules(amount)))
	}
	return opts
}

// AcquirerConfig returns the acquisition settings, with OCR wired through
// runner when enabled.
func (c *Config) AcquirerConfig(runner pdf.Runner, logger *slog.Logger) pdf.AcquirerConfig {
	cfg := pdf.AcquirerConfig{MaxFileSize: c.MaxFileSize, Logger: logger}
	if c.OCR.Enabled {
		cfg.OCR = pdf.NewOCR(pdf.OCRConfig{
			Pdftoppm:    c.OCR.Pdftoppm,
			Tesseract:   c.OCR.Tesseract,
			Language:    c.OCR.Language,
			DPI:         c.OCR.DPI,
			PSM:         c.OCR.PSM,
			TessdataDir: c.OCR.TessdataDir,
		}, runner, logger)
	}
	return cfg
}

// SlogLevel returns the configured log level
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, InputDir: %s, OutputDir: %s, Acceptance: %s, Amount: %s, "+
		"Layout: %t, OCR: %t, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.InputDir, c.OutputDirectory(), c.Acceptance, c.Amount,
		c.Layout, c.OCR.Enabled, c.LogLevel, c.MaxFileSize)
}

// IsBatchMode returns true if the extractor processes a directory and exits
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}

// IsStdioMode returns true if the extractor runs as an MCP server over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
