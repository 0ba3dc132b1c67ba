package pdf

import "github.com/a3tai/payreq-extractor/internal/layout"

// Acquisition methods
const (
	MethodText = "text"
	MethodOCR  = "ocr"
)

// MinTextChars is the length, in characters, below which a trimmed text layer
// is considered too sparse to hold a payment request.
const MinTextChars = 100

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// PageText is the text layer of the first page of a document
type PageText struct {
	Text  string        `json:"text"`
	Words []layout.Word `json:"words,omitempty"`
	Pages int           `json:"pages"`
}

// Acquisition is the text of one document together with how it was obtained
type Acquisition struct {
	Text   string        `json:"text"`
	Method string        `json:"method"`
	Pages  int           `json:"pages"`
	Words  []layout.Word `json:"words,omitempty"`
}
