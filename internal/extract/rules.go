package extract

import (
	"regexp"
	"strings"

	"github.com/a3tai/payreq-extractor/internal/layout"
)

// Page is the shared representation every rule reads from
type Page struct {
	Text  string
	Words []layout.Word
}

// Lines returns the trimmed, non-empty lines of the page text
func (p Page) Lines() []string {
	raw := strings.Split(p.Text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Scope selects the candidate lines a rule looks at.
// A zero Scope selects every line of the page.
type Scope struct {
	// FirstN restricts the search to the first N lines. Zero means all lines.
	FirstN int
	// Markers keeps lines containing any of the substrings.
	Markers []string
	// Pattern also keeps lines it matches.
	Pattern *regexp.Regexp
	// Limit stops after this many qualifying lines. Zero means no limit.
	Limit int
	// Next selects the line following each qualifying line instead of the line itself.
	Next bool
	// Region bounds the lines to an area of the page when word positions are known.
	Region *layout.Region
}

func (s Scope) qualifies(line string) bool {
	if len(s.Markers) == 0 && s.Pattern == nil {
		return true
	}
	for _, m := range s.Markers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return s.Pattern != nil && s.Pattern.MatchString(line)
}

// Select returns the candidate lines of page in reading order
func (s Scope) Select(page Page) []string {
	lines := page.Lines()
	if s.Region != nil && len(page.Words) > 0 {
		lines = layout.Lines(layout.WordsInRegion(page.Words, *s.Region))
	}
	if s.FirstN > 0 && len(lines) > s.FirstN {
		lines = lines[:s.FirstN]
	}

	var out []string
	for i, line := range lines {
		if !s.qualifies(line) {
			continue
		}
		if s.Next {
			if i+1 >= len(lines) {
				continue
			}
			line = lines[i+1]
		}
		out = append(out, line)
		if s.Limit > 0 && len(out) >= s.Limit {
			break
		}
	}
	return out
}

// Strategy is one way of finding a rule's values in its candidate lines.
// A nil Scope inherits the rule's scope.
type Strategy struct {
	Name  string
	Scope *Scope
	Match func(lines []string) (Values, bool)
}

// Rule populates one or more fields. Strategies are tried in order and the
// first one that matches wins.
type Rule struct {
	Name       string
	Fields     []Field
	Scope      Scope
	Strategies []Strategy
}

// Apply runs the rule against page and reports the winning strategy
func (r Rule) Apply(page Page) (Values, string, bool) {
	var ruleLines []string
	selected := false
	for _, s := range r.Strategies {
		var lines []string
		if s.Scope != nil {
			lines = s.Scope.Select(page)
		} else {
			if !selected {
				ruleLines = r.Scope.Select(page)
				selected = true
			}
			lines = ruleLines
		}
		if len(lines) == 0 {
			continue
		}
		if values, ok := s.Match(lines); ok {
			return values, s.Name, true
		}
	}
	return nil, "", false
}

// LineMatcher extracts a single field value from one line
type LineMatcher struct {
	Field Field
	// After keeps only the text following the last match of After, when present.
	After *regexp.Regexp
	// Pattern locates the value: its first group, or the whole match when it has none.
	// A nil Pattern keeps the whole text.
	Pattern *regexp.Regexp
	// Clean post-processes the raw value.
	Clean func(string) string
	// Accept rejects cleaned values that do not look like the field.
	Accept func(string) bool
}

// Match applies the matcher to line
func (m LineMatcher) Match(line string) (string, bool) {
	text := line
	if m.After != nil {
		if locs := m.After.FindAllStringIndex(text, -1); len(locs) > 0 {
			text = text[locs[len(locs)-1][1]:]
		}
	}

	value := text
	if m.Pattern != nil {
		sub := m.Pattern.FindStringSubmatch(text)
		if sub == nil {
			return "", false
		}
		value = sub[0]
		if len(sub) > 1 {
			value = sub[1]
		}
	}

	if m.Clean != nil {
		value = m.Clean(value)
	}
	if value == "" {
		return "", false
	}
	if m.Accept != nil && !m.Accept(value) {
		return "", false
	}
	return value, true
}

// EachLine builds a strategy that returns the values found on the first line
// where at least one matcher succeeds.
func EachLine(name string, matchers ...LineMatcher) Strategy {
	return Strategy{
		Name: name,
		Match: func(lines []string) (Values, bool) {
			for _, line := range lines {
				values := Values{}
				for _, m := range matchers {
					if v, ok := m.Match(line); ok {
						values[m.Field] = v
					}
				}
				if len(values) > 0 {
					return values, true
				}
			}
			return nil, false
		},
	}
}
