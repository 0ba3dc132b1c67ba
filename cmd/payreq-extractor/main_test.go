package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/payreq-extractor/internal/batch"
	"github.com/a3tai/payreq-extractor/internal/config"
	"github.com/a3tai/payreq-extractor/internal/export"
	"github.com/a3tai/payreq-extractor/internal/pdftest"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	version = testVersion
	buildTime = "2025-04-12_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()

	expectedStrings := []string{
		"Payment Request Extractor",
		"Version: " + testVersion,
		"Build Time: 2025-04-12_10:30:00",
		"Git Commit: abc123",
		"Built with: go",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"batch info", config.ModeBatch, "info", false, true},
		{"batch debug", config.ModeBatch, "debug", true, true},
		{"stdio info is quiet", config.ModeStdio, "info", false, false},
		{"stdio debug", config.ModeStdio, "debug", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Mode: tt.mode, LogLevel: tt.level}
			var buf bytes.Buffer
			logger := setupLogging(cfg, &buf)

			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), slog.LevelDebug))
			assert.Equal(t, tt.wantInfo, logger.Enabled(context.Background(), slog.LevelInfo))
			assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
		})
	}
}

func batchConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.InputDir = t.TempDir()
	cfg.OutputDir = filepath.Join(t.TempDir(), "exports")
	cfg.OCR.Enabled = false
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunBatch(t *testing.T) {
	cfg := batchConfig(t)
	files := map[string][]byte{
		"request.pdf": pdftest.Build(pdftest.RequestLines...),
		"second.pdf":  pdftest.Build("SU-150110 PayTO-0020001", "Date 01/05/2025", "Total 7,500.50"),
		"report.pdf":  pdftest.Build("Quarterly budget report"),
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, name), data, 0o600))
	}

	logger := slog.New(slog.DiscardHandler)
	now := time.Date(2025, time.April, 12, 9, 5, 0, 0, time.UTC)

	var out bytes.Buffer
	err := runBatch(context.Background(), cfg, newProcessor(cfg, nil, logger), &out, logger, now)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "extracted 2 payment request(s)")
	assert.Contains(t, out.String(), "3 files, 2 accepted, 1 rejected, 0 failed")

	xlsxName, csvName := export.FileNames(now)

	f, err := excelize.OpenFile(filepath.Join(cfg.OutputDir, xlsxName))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(export.SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"request.pdf", "SU0150109", "0019990", "12/04/2025"}, rows[1][:4])
	assert.Equal(t, "Ahmed Ali", rows[1][4])
	assert.Equal(t, "15230", rows[1][5])
	assert.Equal(t, "Electricity invoices settlement", rows[1][6])
	assert.Equal(t, []string{"second.pdf", "SU0150110", "0020001", "01/05/2025"}, rows[2][:4])

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, csvName))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "7500.50", records[2][5])
}

func TestRunBatchNoMatches(t *testing.T) {
	cfg := batchConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "report.pdf"),
		pdftest.Build("Quarterly budget report"), 0o600))

	logger := slog.New(slog.DiscardHandler)
	var out bytes.Buffer
	err := runBatch(context.Background(), cfg, newProcessor(cfg, nil, logger), &out, logger, time.Now())
	require.NoError(t, err, "zero records is not a failure")

	assert.True(t, strings.HasPrefix(out.String(), batch.NoMatchesMessage))
	_, statErr := os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(statErr), "no export directory should be created")
}

func TestRunBatchMissingDirectory(t *testing.T) {
	cfg := batchConfig(t)
	cfg.InputDir = filepath.Join(cfg.InputDir, "missing")

	logger := slog.New(slog.DiscardHandler)
	err := runBatch(context.Background(), cfg, newProcessor(cfg, nil, logger), &bytes.Buffer{}, logger, time.Now())
	assert.Error(t, err)
}
