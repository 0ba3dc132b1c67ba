package pdf

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/payreq-extractor/internal/layout"
	pdferrors "github.com/a3tai/payreq-extractor/internal/pdf/errors"
)

const (
	// defaultPageWidth and defaultPageHeight are A4 in points, used when a
	// page carries no MediaBox of its own
	defaultPageWidth  = 595.0
	defaultPageHeight = 842.0
	// defaultFontSize is assumed when the text layer reports none
	defaultFontSize = 10.0
	// avgGlyphWidth estimates a glyph advance, as a fraction of font size, for
	// fonts without a widths table
	avgGlyphWidth = 0.5
	// rowTolerance is the baseline distance, in font sizes, under which two
	// glyphs sit on the same row
	rowTolerance = 0.3
	// wordGap is the horizontal gap, in font sizes, that separates two words
	wordGap = 0.2
)

// Reader extracts the text layer of the first page of a PDF
type Reader struct{}

// NewReader creates a new text layer reader
func NewReader() *Reader {
	return &Reader{}
}

// FirstPage reads page one of data. Glyph rows are rendered top to bottom, one
// line per row, and every word is also returned with its position.
func (r *Reader) FirstPage(data []byte) (page PageText, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			page = PageText{}
			err = pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeCorruptedData,
				"text layer parser panicked", fmt.Sprint(rec))
		}
	}()

	pdfReader, openErr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if openErr != nil {
		return PageText{}, pdferrors.WrapError(pdferrors.ErrorTypeCorruptedData, "failed to open PDF", openErr)
	}

	numPages := pdfReader.NumPage()
	if numPages == 0 {
		return PageText{}, pdferrors.NewPDFError(pdferrors.ErrorTypeEmptyDocument, "document has no pages")
	}

	p := pdfReader.Page(1)
	if p.V.IsNull() {
		return PageText{}, pdferrors.NewPDFError(pdferrors.ErrorTypeCorruptedData, "first page is missing")
	}

	width, height := pageSize(p)
	text, words := renderGlyphs(p.Content().Text, width, height)

	return PageText{Text: text, Words: words, Pages: numPages}, nil
}

// pageSize returns the MediaBox dimensions of p
func pageSize(p pdf.Page) (float64, float64) {
	box := p.V.Key("MediaBox")
	if box.Len() != 4 {
		return defaultPageWidth, defaultPageHeight
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return defaultPageWidth, defaultPageHeight
	}
	return w, h
}

// glyphRow is a run of glyphs sharing a baseline
type glyphRow struct {
	y      float64
	size   float64
	glyphs []pdf.Text
}

// groupRows buckets glyphs by baseline, top of the page first
func groupRows(glyphs []pdf.Text) []glyphRow {
	sorted := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			sorted = append(sorted, g)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows []glyphRow
	for _, g := range sorted {
		size := fontSize(g)
		if n := len(rows); n > 0 {
			last := &rows[n-1]
			if math.Abs(last.y-g.Y) <= rowTolerance*math.Max(size, last.size) {
				last.glyphs = append(last.glyphs, g)
				last.size = math.Max(last.size, size)
				continue
			}
		}
		rows = append(rows, glyphRow{y: g.Y, size: size, glyphs: []pdf.Text{g}})
	}
	for i := range rows {
		g := rows[i].glyphs
		sort.SliceStable(g, func(a, b int) bool { return g[a].X < g[b].X })
	}
	return rows
}

// renderGlyphs turns page glyphs into lines and normalized words. Words break
// on blank glyphs and on horizontal gaps wider than wordGap.
func renderGlyphs(glyphs []pdf.Text, width, height float64) (string, []layout.Word) {
	var lines []string
	var words []layout.Word

	for _, row := range groupRows(glyphs) {
		var parts []string
		var cur strings.Builder
		var x0, x1 float64

		flush := func() {
			if cur.Len() == 0 {
				return
			}
			parts = append(parts, cur.String())
			words = append(words, layout.Word{
				Text: cur.String(),
				X0:   clamp(x0 / width),
				X1:   clamp(x1 / width),
				Y0:   clamp(1 - (row.y+row.size)/height),
				Y1:   clamp(1 - row.y/height),
			})
			cur.Reset()
		}

		for _, g := range row.glyphs {
			if strings.TrimSpace(g.S) == "" {
				flush()
				continue
			}
			size := fontSize(g)
			if cur.Len() > 0 && g.X-x1 > size*wordGap {
				flush()
			}
			if cur.Len() == 0 {
				x0, x1 = g.X, g.X
			}
			cur.WriteString(g.S)
			x1 = math.Max(x1, g.X+glyphWidth(g))
		}
		flush()

		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return strings.Join(lines, "\n"), words
}

func fontSize(g pdf.Text) float64 {
	if g.FontSize > 0 {
		return g.FontSize
	}
	return defaultFontSize
}

func glyphWidth(g pdf.Text) float64 {
	if g.W > 0 {
		return g.W
	}
	return float64(utf8.RuneCountInString(g.S)) * fontSize(g) * avgGlyphWidth
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
