// Package extract turns the text of a payment request page into a Record.
//
// Extraction is rule driven: each Rule selects candidate lines through a
// Scope and tries its Strategies in order until one produces values. New
// document layouts are supported by adding rules, not by changing the
// Extractor.
package extract

import (
	"log/slog"

	"github.com/a3tai/payreq-extractor/internal/layout"
)

// Extractor applies a rule set and an acceptance policy to page text.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	rules        []Rule
	policy       Policy
	amountPolicy AmountPolicy
	logger       *slog.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithPolicy sets the acceptance policy
func WithPolicy(p Policy) Option {
	return func(e *Extractor) { e.policy = p }
}

// WithAmountPolicy sets the amount policy used by the default rules
func WithAmountPolicy(p AmountPolicy) Option {
	return func(e *Extractor) { e.amountPolicy = p }
}

// WithRules replaces the default rule set
func WithRules(rules []Rule) Option {
	return func(e *Extractor) { e.rules = rules }
}

// WithLogger sets the logger used for per-rule debug output
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Extractor. Without options it uses DefaultRules and
// PolicyRequestNumber.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		policy:       PolicyRequestNumber,
		amountPolicy: AmountMaxOnPage,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rules == nil {
		e.rules = RuleSet(e.amountPolicy)
	}
	return e
}

// Policy returns the acceptance policy in use
func (e *Extractor) Policy() Policy {
	return e.policy
}

// Extract runs the rules over plain text. The record is returned only when it
// passes the acceptance policy.
func (e *Extractor) Extract(fileName, text string) (Record, bool) {
	return e.ExtractPage(fileName, Page{Text: text})
}

// ExtractWords runs the rules over text with known word positions
func (e *Extractor) ExtractWords(fileName, text string, words []layout.Word) (Record, bool) {
	return e.ExtractPage(fileName, Page{Text: text, Words: words})
}

// ExtractPage runs the rules over page. Fields a rule cannot find stay empty;
// a field already set by an earlier rule is never overwritten.
func (e *Extractor) ExtractPage(fileName string, page Page) (Record, bool) {
	rec := Record{FileName: fileName}

	for _, rule := range e.rules {
		values, strategy, ok := rule.Apply(page)
		if !ok {
			e.logger.Debug("rule found nothing", "file", fileName, "rule", rule.Name)
			continue
		}
		for _, f := range rule.Fields {
			v, found := values[f]
			if !found || rec.has(f) {
				continue
			}
			rec.set(f, v)
		}
		e.logger.Debug("rule matched", "file", fileName, "rule", rule.Name, "strategy", strategy)
	}

	if !e.policy.Accept(rec) {
		e.logger.Debug("record rejected", "file", fileName, "policy", e.policy.String())
		return Record{}, false
	}
	return rec, true
}
