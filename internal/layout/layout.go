// Package layout models positioned words on a page so field rules can be
// bounded to a region of interest instead of the whole page.
package layout

import (
	"sort"
	"strings"
)

// Word is a run of text with a bounding box in page-relative coordinates.
// Coordinates are normalized to [0,1] with the origin at the top-left corner.
type Word struct {
	Text string  `json:"text"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

// CenterX returns the horizontal center of the word
func (w Word) CenterX() float64 { return (w.X0 + w.X1) / 2 }

// CenterY returns the vertical center of the word
func (w Word) CenterY() float64 { return (w.Y0 + w.Y1) / 2 }

// Region is a rectangle in the same normalized coordinate space as Word
type Region struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// TopBand is the header area of a payment request page, where the request
// number, payee code and date are printed
var TopBand = Region{X0: 0, Y0: 0, X1: 1, Y1: 0.25}

// Contains reports whether the center of w falls inside r
func (r Region) Contains(w Word) bool {
	cx, cy := w.CenterX(), w.CenterY()
	return cx >= r.X0 && cx <= r.X1 && cy >= r.Y0 && cy <= r.Y1
}

// WordsInRegion returns the words whose centers fall inside r, in input order
func WordsInRegion(words []Word, r Region) []Word {
	var out []Word
	for _, w := range words {
		if r.Contains(w) {
			out = append(out, w)
		}
	}
	return out
}

// lineTolerance is the vertical distance under which two word centers are
// considered to sit on the same line.
const lineTolerance = 0.008

// Lines groups words into reading lines: top to bottom, then left to right.
func Lines(words []Word) []string {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CenterY() < sorted[j].CenterY()
	})

	var groups [][]Word
	for _, w := range sorted {
		n := len(groups)
		if n > 0 && w.CenterY()-groups[n-1][0].CenterY() <= lineTolerance {
			groups[n-1] = append(groups[n-1], w)
			continue
		}
		groups = append(groups, []Word{w})
	}

	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].X0 < g[j].X0 })
		parts := make([]string, 0, len(g))
		for _, w := range g {
			if t := strings.TrimSpace(w.Text); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return lines
}

// RegionText renders the words inside r as newline-separated lines
func RegionText(words []Word, r Region) string {
	return strings.Join(Lines(WordsInRegion(words, r)), "\n")
}
