package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/payreq-extractor/internal/layout"
)

const (
	// identifierLines is how far down the page the request number is looked for
	identifierLines = 10
	// requestNumberWidth is the zero-padded width of the request code
	requestNumberWidth = 7
	// minAmountDigits is the number of digits an amount candidate needs
	minAmountDigits = 4
	// beneficiary length bounds, in runes, exclusive
	minBeneficiaryLen = 4
	maxBeneficiaryLen = 120
	// minDescriptionLen is the exclusive lower bound on description length, in runes
	minDescriptionLen = 10
)

var (
	identifierLineRe = regexp.MustCompile(`SU\d`)
	requestNumberRe  = regexp.MustCompile(`(?i)SU[-\s]?(\d{5,8})`)
	payeeCodeRe      = regexp.MustCompile(`(?i)PayTO[-\s]?(\d+)`)

	dateRe     = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{4}`)
	dateMaskRe = regexp.MustCompile(`\d{1,2}[/.-]\d{1,2}[/.-]\d{4}`)

	beneficiaryAfterRe   = regexp.MustCompile(`\bTo\b`)
	beneficiaryNoiseRe   = regexp.MustCompile(`:|لصالح|اسم المستفيد`)
	beneficiaryResidueRe = regexp.MustCompile(`(?i)(\bTransfer\s+Amount\b|المبلغ).*$`)

	descriptionAfterRe = regexp.MustCompile(`Description|البيان`)
	descriptionNoiseRe = regexp.MustCompile(`:|PO\d+.*`)

	amountMarkerRe = regexp.MustCompile(`(?i)Transfer\s+Amount|Total|Amount|المبلغ|الإجمالي`)
	numberTokenRe  = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	currencyRe     = regexp.MustCompile(`^(?:\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+\.\d{1,2})$`)
	identifierRe   = regexp.MustCompile(`(?i)\b(?:SU|PayTO|PO)[-\s]?\d+|[A-Za-z]+-?\d+`)

	spaceRe = regexp.MustCompile(`\s+`)
)

var (
	dateMarkers        = []string{"Date", "التاريخ"}
	beneficiaryMarkers = []string{"Transfer payable To", "لصالح"}
	descriptionMarkers = []string{"Description", "البيان"}
	amountMarkers      = []string{"Amount", "Total", "المبلغ", "الإجمالي"}
)

// DefaultRules returns the rule set for the standard payment request layout
func DefaultRules() []Rule {
	return RuleSet(AmountMaxOnPage)
}

// RuleSet returns the standard rules with the given amount policy
func RuleSet(amount AmountPolicy) []Rule {
	return []Rule{
		identifierRule(nil),
		dateRule(nil),
		beneficiaryRule(),
		amountRule(amount),
		descriptionRule(),
	}
}

// LayoutRules is RuleSet with the identifier pair and the date bounded to the
// top band of the page. Pages without word positions fall back to plain lines.
func LayoutRules(amount AmountPolicy) []Rule {
	top := layout.TopBand
	rules := RuleSet(amount)
	rules[0] = identifierRule(&top)
	rules[1] = dateRule(&top)
	return rules
}

func identifierRule(region *layout.Region) Rule {
	return Rule{
		Name:   "identifier-pair",
		Fields: []Field{FieldRequestNumber, FieldPayeeCode},
		Scope: Scope{
			FirstN:  identifierLines,
			Markers: []string{"SU-", "PayTO"},
			Pattern: identifierLineRe,
			Limit:   1,
			Region:  region,
		},
		Strategies: []Strategy{
			EachLine("su-payto",
				LineMatcher{Field: FieldRequestNumber, Pattern: requestNumberRe, Clean: canonicalRequestNumber},
				LineMatcher{Field: FieldPayeeCode, Pattern: payeeCodeRe},
			),
		},
	}
}

func dateRule(region *layout.Region) Rule {
	return Rule{
		Name:   "date",
		Fields: []Field{FieldDate},
		Scope:  Scope{Markers: dateMarkers, Region: region},
		Strategies: []Strategy{
			EachLine("labelled-date", LineMatcher{Field: FieldDate, Pattern: dateRe}),
		},
	}
}

func beneficiaryRule() Rule {
	return Rule{
		Name:   "beneficiary",
		Fields: []Field{FieldBeneficiary},
		Scope:  Scope{Markers: beneficiaryMarkers},
		Strategies: []Strategy{
			EachLine("payable-to", LineMatcher{
				Field: FieldBeneficiary,
				After: beneficiaryAfterRe,
				Clean: func(s string) string {
					s = beneficiaryNoiseRe.ReplaceAllString(s, "")
					s = beneficiaryResidueRe.ReplaceAllString(s, "")
					return collapseSpace(s)
				},
				Accept: func(s string) bool {
					n := utf8.RuneCountInString(s)
					return n > minBeneficiaryLen && n < maxBeneficiaryLen
				},
			}),
		},
	}
}

func descriptionRule() Rule {
	matcher := LineMatcher{
		Field: FieldDescription,
		After: descriptionAfterRe,
		Clean: func(s string) string {
			return collapseSpace(descriptionNoiseRe.ReplaceAllString(s, ""))
		},
		Accept: func(s string) bool {
			return utf8.RuneCountInString(s) > minDescriptionLen
		},
	}
	return Rule{
		Name:   "description",
		Fields: []Field{FieldDescription},
		Scope:  Scope{Markers: descriptionMarkers},
		Strategies: []Strategy{
			EachLine("labelled-description", matcher),
			{
				Name:  "line-after-label",
				Scope: &Scope{Markers: descriptionMarkers, Next: true},
				Match: EachLine("", matcher).Match,
			},
		},
	}
}

func amountRule(policy AmountPolicy) Rule {
	if policy == AmountAfterMarker {
		return Rule{
			Name:   "amount",
			Fields: []Field{FieldAmount},
			Scope:  Scope{Markers: amountMarkers},
			Strategies: []Strategy{
				EachLine("after-marker", LineMatcher{
					Field:   FieldAmount,
					After:   amountMarkerRe,
					Pattern: numberTokenRe,
					Clean:   func(s string) string { return strings.ReplaceAll(s, ",", "") },
					Accept: func(s string) bool {
						v, ok := parseAmount(s)
						return ok && v > 0
					},
				}),
			},
		}
	}
	return Rule{
		Name:   "amount",
		Fields: []Field{FieldAmount},
		Strategies: []Strategy{
			{Name: "max-currency", Match: maxAmount(currencyCandidates)},
			{Name: "max-number", Match: maxAmount(bareCandidates)},
		},
	}
}

// maxAmount returns a strategy body that picks the largest candidate across lines
func maxAmount(candidates func(line string) []string) func([]string) (Values, bool) {
	return func(lines []string) (Values, bool) {
		best, found := 0.0, false
		for _, line := range lines {
			for _, c := range candidates(line) {
				v, ok := parseAmount(c)
				if !ok {
					continue
				}
				if !found || v > best {
					best, found = v, true
				}
			}
		}
		if !found {
			return nil, false
		}
		return Values{FieldAmount: strconv.FormatFloat(best, 'f', -1, 64)}, true
	}
}

// currencyCandidates returns grouped or decimal numbers such as 15,230.00 or 1234.5
func currencyCandidates(line string) []string {
	line = dateMaskRe.ReplaceAllString(line, " ")
	var out []string
	for _, tok := range numberTokens(line) {
		if currencyRe.MatchString(tok) && digitCount(tok) >= minAmountDigits {
			out = append(out, tok)
		}
	}
	return out
}

// bareCandidates returns any number with enough digits once identifiers glued
// to letters have been masked out
func bareCandidates(line string) []string {
	line = dateMaskRe.ReplaceAllString(line, " ")
	line = identifierRe.ReplaceAllString(line, " ")
	var out []string
	for _, tok := range numberTokens(line) {
		if digitCount(tok) >= minAmountDigits {
			out = append(out, tok)
		}
	}
	return out
}

func numberTokens(line string) []string {
	toks := numberTokenRe.FindAllString(line, -1)
	for i, tok := range toks {
		toks[i] = strings.TrimRight(tok, ",")
	}
	return toks
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func canonicalRequestNumber(code string) string {
	if len(code) < requestNumberWidth {
		code = strings.Repeat("0", requestNumberWidth-len(code)) + code
	}
	return "SU" + code
}

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
