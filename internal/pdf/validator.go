package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	pdferrors "github.com/a3tai/payreq-extractor/internal/pdf/errors"
)

// headerWindow is how far into the buffer the %PDF- marker may appear
const headerWindow = 1024

var pdfHeader = []byte("%PDF-")

// Validator checks that a byte buffer is a PDF worth reading
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateBytes checks the header and size of data and reads its page tree
// with pdfcpu in relaxed mode. It returns the page count.
//
// Structural failures are reported as recoverable ErrorTypeCorruptedData so
// callers may still try other readers.
func (v *Validator) ValidateBytes(data []byte) (pages int, err error) {
	if len(data) == 0 {
		return 0, pdferrors.NewPDFError(pdferrors.ErrorTypeEmptyDocument, "document is empty")
	}

	if v.maxFileSize > 0 && int64(len(data)) > v.maxFileSize {
		return 0, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeFileTooLarge, "document too large",
			fmt.Sprintf("%d bytes (max: %d bytes)", len(data), v.maxFileSize))
	}

	head := data
	if len(head) > headerWindow {
		head = head[:headerWindow]
	}
	if !bytes.Contains(head, pdfHeader) {
		return 0, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidHeader, "missing PDF header",
			fmt.Sprintf("first bytes: %q", firstBytes(data, 8)))
	}

	defer func() {
		if r := recover(); r != nil {
			pages = 0
			err = pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeCorruptedData,
				"structure check panicked", fmt.Sprint(r))
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, pdferrors.WrapError(pdferrors.ErrorTypeCorruptedData, "failed to read PDF structure", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return 0, pdferrors.WrapError(pdferrors.ErrorTypeCorruptedData, "failed to count pages", err)
	}

	if ctx.PageCount == 0 {
		return 0, pdferrors.NewPDFError(pdferrors.ErrorTypeEmptyDocument, "document has no pages")
	}

	return ctx.PageCount, nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !isPDFName(fileInfo.Name()) {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

func isPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

func firstBytes(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}
