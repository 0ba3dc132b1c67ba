package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to set os.Args for testing
func setArgs(args []string) {
	os.Args = args
}

// Helper function to clear environment variables
func clearEnvVars() {
	for _, name := range flagNames {
		os.Unsetenv(envPrefix + "_" + strings.ToUpper(name))
	}
}

// prepare resets global flag state and restores it when the test ends
func prepare(t *testing.T, args ...string) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	})

	setArgs(append([]string{"payreq-extractor"}, args...))
	resetFlags()
	clearEnvVars()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	prepare(t)

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "batch" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "batch")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "info")
	}
	if cfg.MaxFileSize != 50*1024*1024 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 50*1024*1024)
	}
	if !cfg.OCR.Enabled {
		t.Error("LoadFromFlags() OCR should be enabled by default")
	}
	if cfg.InputDir == "" || !filepath.IsAbs(cfg.InputDir) {
		t.Errorf("LoadFromFlags() InputDir = %q, want an absolute path", cfg.InputDir)
	}
	if cfg.OutputDir != "" {
		t.Errorf("LoadFromFlags() OutputDir = %q, want empty", cfg.OutputDir)
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "stdio mode",
			args: []string{"--mode=stdio"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.IsStdioMode() {
					t.Errorf("Mode = %v, want stdio", cfg.Mode)
				}
			},
		},
		{
			name: "debug logging",
			args: []string{"--loglevel=debug"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.IsDebug() {
					t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name: "custom max file size",
			args: []string{"--maxfilesize=5000000"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.MaxFileSize != 5000000 {
					t.Errorf("MaxFileSize = %v, want 5000000", cfg.MaxFileSize)
				}
			},
		},
		{
			name: "extraction policies",
			args: []string{"--acceptance=request-or-amount", "--amount=marker", "--layout"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Acceptance != "request-or-amount" || cfg.Amount != "marker" || !cfg.Layout {
					t.Errorf("unexpected extraction settings: %s", cfg)
				}
			},
		},
		{
			name: "OCR settings",
			args: []string{"--ocrlang=ara", "--dpi=400", "--psm=4", "--tesseract=/opt/bin/tesseract", "--tessdata=/opt/tessdata"},
			check: func(t *testing.T, cfg *Config) {
				want := OCRConfig{
					Enabled:     true,
					Pdftoppm:    "pdftoppm",
					Tesseract:   "/opt/bin/tesseract",
					Language:    "ara",
					DPI:         400,
					PSM:         4,
					TessdataDir: "/opt/tessdata",
				}
				if cfg.OCR != want {
					t.Errorf("OCR = %+v, want %+v", cfg.OCR, want)
				}
			},
		},
		{
			name: "OCR disabled",
			args: []string{"--ocr=false"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.OCR.Enabled {
					t.Error("OCR should be disabled")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			prepare(t, append(tt.args, "--dir="+tempDir)...)

			cfg, err := LoadFromFlags()
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}
			if cfg.InputDir != tempDir {
				t.Errorf("InputDir = %v, want %v", cfg.InputDir, tempDir)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFlags_OutputDirectory(t *testing.T) {
	in := t.TempDir()
	prepare(t, "--dir="+in, "--out=exports")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}
	if !filepath.IsAbs(cfg.OutputDir) || filepath.Base(cfg.OutputDir) != "exports" {
		t.Errorf("OutputDir = %v, want an absolute path ending in exports", cfg.OutputDir)
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	prepare(t)
	tempDir := t.TempDir()

	t.Setenv("PAYREQ_MODE", "stdio")
	t.Setenv("PAYREQ_DIR", tempDir)
	t.Setenv("PAYREQ_LOGLEVEL", "warn")
	t.Setenv("PAYREQ_MAXFILESIZE", "2000000")
	t.Setenv("PAYREQ_ACCEPTANCE", "request-and-amount")
	t.Setenv("PAYREQ_OCRLANG", "eng")
	t.Setenv("PAYREQ_OCR", "false")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.InputDir != tempDir {
		t.Errorf("LoadFromFlags() InputDir = %v, want %v", cfg.InputDir, tempDir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "warn")
	}
	if cfg.MaxFileSize != 2000000 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 2000000)
	}
	if cfg.Acceptance != "request-and-amount" {
		t.Errorf("LoadFromFlags() Acceptance = %v, want request-and-amount", cfg.Acceptance)
	}
	if cfg.OCR.Language != "eng" || cfg.OCR.Enabled {
		t.Errorf("LoadFromFlags() OCR = %+v, want eng and disabled", cfg.OCR)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	tempDir := t.TempDir()
	prepare(t, "--dir="+tempDir, "--loglevel=error")
	t.Setenv("PAYREQ_LOGLEVEL", "debug")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want error (flag should override env)", cfg.LogLevel)
	}
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid mode", []string{"--mode=server"}},
		{"invalid log level", []string{"--loglevel=trace"}},
		{"invalid acceptance policy", []string{"--acceptance=all"}},
		{"invalid amount policy", []string{"--amount=first"}},
		{"invalid dpi", []string{"--dpi=20"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepare(t, append(tt.args, "--dir="+t.TempDir())...)

			if _, err := LoadFromFlags(); err == nil {
				t.Error("LoadFromFlags() expected error")
			}
		})
	}
}

func TestLoadFromFlags_MissingDirectory(t *testing.T) {
	prepare(t, "--dir="+filepath.Join(t.TempDir(), "missing"))

	if _, err := LoadFromFlags(); err == nil {
		t.Error("LoadFromFlags() expected error for a missing input directory")
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	prepare(t, "--version")

	_, err := LoadFromFlags()
	if !errors.Is(err, ErrVersionRequested) {
		t.Errorf("LoadFromFlags() error = %v, want %v", err, ErrVersionRequested)
	}
}
