package pdf

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	pdferrors "github.com/a3tai/payreq-extractor/internal/pdf/errors"
)

// AcquirerConfig configures an Acquirer
type AcquirerConfig struct {
	MaxFileSize int64
	// MinTextChars overrides the sparse text threshold. Zero means MinTextChars.
	MinTextChars int
	// OCR is the fallback used for sparse text layers. Nil disables the fallback.
	OCR    *OCR
	Logger *slog.Logger
}

// Acquirer turns PDF bytes into page-one text, using the text layer when it
// is rich enough and OCR otherwise.
type Acquirer struct {
	validator    *Validator
	reader       *Reader
	ocr          *OCR
	minTextChars int
	logger       *slog.Logger
}

// NewAcquirer creates a new Acquirer
func NewAcquirer(cfg AcquirerConfig) *Acquirer {
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = MinTextChars
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Acquirer{
		validator:    NewValidator(cfg.MaxFileSize),
		reader:       NewReader(),
		ocr:          cfg.OCR,
		minTextChars: cfg.MinTextChars,
		logger:       cfg.Logger,
	}
}

// Acquire returns the text of page one of data.
//
// Buffers that are empty, oversized, not PDFs or have no pages fail
// immediately. Otherwise the text layer is used when it holds at least
// MinTextChars characters; below that OCR is tried, and if OCR fails
// a sparse but non-empty text layer is still returned.
func (a *Acquirer) Acquire(ctx context.Context, data []byte) (*Acquisition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := a.validator.ValidateBytes(data)
	if err != nil {
		if !pdferrors.IsRecoverable(err) {
			return nil, err
		}
		a.logger.Debug("structure check failed, trying text layer", "error", err)
	}

	page, readErr := a.reader.FirstPage(data)
	if pdferrors.IsType(readErr, pdferrors.ErrorTypeEmptyDocument) {
		return nil, readErr
	}
	if readErr == nil && pages == 0 {
		pages = page.Pages
	}

	var text string
	if readErr == nil {
		text = strings.TrimSpace(NormalizeText(page.Text))
	} else {
		a.logger.Debug("text layer unreadable", "error", readErr)
	}

	if readErr == nil && utf8.RuneCountInString(text) >= a.minTextChars {
		return &Acquisition{Text: text, Method: MethodText, Pages: pages, Words: page.Words}, nil
	}

	var ocrErr error
	if a.ocr != nil {
		a.logger.Debug("text layer sparse, running OCR", "chars", utf8.RuneCountInString(text), "threshold", a.minTextChars)
		ocrText, err := a.ocr.FirstPage(ctx, data)
		if err == nil {
			ocrText = strings.TrimSpace(NormalizeText(ocrText))
			if ocrText != "" {
				return &Acquisition{Text: ocrText, Method: MethodOCR, Pages: pages}, nil
			}
			err = pdferrors.NewPDFError(pdferrors.ErrorTypeOCRFailure, "OCR produced no text")
		}
		ocrErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}

	if text != "" {
		if ocrErr != nil {
			a.logger.Warn("OCR failed, using sparse text layer", "error", ocrErr)
		}
		return &Acquisition{Text: text, Method: MethodText, Pages: pages, Words: page.Words}, nil
	}

	return nil, pdferrors.WrapError(pdferrors.ErrorTypeNoText, "no text could be acquired",
		errors.Join(readErr, ocrErr))
}
