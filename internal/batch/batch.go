// Package batch runs acquisition and extraction over a set of documents and
// collects the accepted records.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/payreq-extractor/internal/extract"
	"github.com/a3tai/payreq-extractor/internal/pdf"
)

// NoMatchesMessage is reported when a run yields no accepted records
const NoMatchesMessage = "no matching payment requests found"

// Outcome is what happened to one document
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Document is one uploaded file
type Document struct {
	Name string
	Data []byte
}

// FileResult is the per-document outcome of a run
type FileResult struct {
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
	Method  string  `json:"method,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Summary describes a finished run
type Summary struct {
	RunID     string        `json:"run_id"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
	Files     int           `json:"files"`
	Accepted  int           `json:"accepted"`
	Rejected  int           `json:"rejected"`
	Failed    int           `json:"failed"`
	Cancelled bool          `json:"cancelled,omitempty"` // context ended before every document was seen
	Results   []FileResult  `json:"results"`
}

func (s Summary) String() string {
	str := fmt.Sprintf("run %s: %d files, %d accepted, %d rejected, %d failed",
		s.RunID, s.Files, s.Accepted, s.Rejected, s.Failed)
	if s.Cancelled {
		str += " (cancelled)"
	}
	return str
}

func (s *Summary) add(r FileResult) {
	s.Files++
	switch r.Outcome {
	case OutcomeAccepted:
		s.Accepted++
	case OutcomeRejected:
		s.Rejected++
	case OutcomeFailed:
		s.Failed++
	}
	s.Results = append(s.Results, r)
}

// ResultSet holds the accepted records of a run in input order
type ResultSet struct {
	records []extract.Record
}

// Records returns a copy of the accepted records
func (rs *ResultSet) Records() []extract.Record {
	out := make([]extract.Record, len(rs.records))
	copy(out, rs.records)
	return out
}

// Len returns the number of accepted records
func (rs *ResultSet) Len() int {
	return len(rs.records)
}

// Acquirer returns the page-one text of a PDF buffer
type Acquirer interface {
	Acquire(ctx context.Context, data []byte) (*pdf.Acquisition, error)
}

// Processor runs documents through acquisition and extraction, one at a time
type Processor struct {
	acquirer  Acquirer
	extractor *extract.Extractor
	logger    *slog.Logger
}

// NewProcessor creates a new Processor
func NewProcessor(acquirer Acquirer, extractor *extract.Extractor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = extract.New()
	}
	return &Processor{acquirer: acquirer, extractor: extractor, logger: logger}
}

// ProcessOne acquires and extracts a single document. The record is only
// meaningful when the outcome is OutcomeAccepted.
func (p *Processor) ProcessOne(ctx context.Context, doc Document) (extract.Record, FileResult) {
	result := FileResult{Name: doc.Name}

	acq, err := p.acquirer.Acquire(ctx, doc.Data)
	if err != nil {
		p.logger.Warn("text acquisition failed", "file", doc.Name, "error", err)
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return extract.Record{}, result
	}
	result.Method = acq.Method

	rec, ok := p.extractor.ExtractWords(doc.Name, acq.Text, acq.Words)
	if !ok {
		p.logger.Info("no payment request found", "file", doc.Name, "method", acq.Method,
			"policy", p.extractor.Policy().String())
		result.Outcome = OutcomeRejected
		return extract.Record{}, result
	}

	rec.Source = acq.Method
	result.Outcome = OutcomeAccepted
	p.logger.Debug("payment request extracted", "file", doc.Name, "request_number", rec.RequestNumber,
		"method", acq.Method)
	return rec, result
}

// Process runs every document in order. Failures are contained per document;
// a cancelled context stops the run before the next document.
func (p *Processor) Process(ctx context.Context, docs []Document) (*ResultSet, Summary) {
	run := p.start()
	rs := &ResultSet{}

	for _, doc := range docs {
		if ctx.Err() != nil {
			run.Cancelled = true
			break
		}
		rec, result := p.ProcessOne(ctx, doc)
		if result.Outcome == OutcomeAccepted {
			rs.records = append(rs.records, rec)
		}
		run.add(result)
	}

	return rs, p.finish(run)
}

// ProcessDirectory discovers every PDF under dir and processes it. Files are
// named by their path relative to dir.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) (*ResultSet, Summary, error) {
	files, err := pdf.Discover(dir)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("discover documents: %w", err)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("resolve directory: %w", err)
	}

	p.logger.Info("processing directory", "dir", root, "files", len(files))

	run := p.start()
	rs := &ResultSet{}

	for _, f := range files {
		if ctx.Err() != nil {
			run.Cancelled = true
			break
		}

		name := f.Name
		if rel, err := filepath.Rel(root, f.Path); err == nil {
			name = filepath.ToSlash(rel)
		}

		data, err := os.ReadFile(f.Path)
		if err != nil {
			p.logger.Warn("failed to read file", "file", name, "error", err)
			run.add(FileResult{Name: name, Outcome: OutcomeFailed, Error: err.Error()})
			continue
		}

		rec, result := p.ProcessOne(ctx, Document{Name: name, Data: data})
		if result.Outcome == OutcomeAccepted {
			rs.records = append(rs.records, rec)
		}
		run.add(result)
	}

	return rs, p.finish(run), nil
}

func (p *Processor) start() Summary {
	return Summary{RunID: uuid.NewString(), Started: time.Now(), Results: []FileResult{}}
}

func (p *Processor) finish(s Summary) Summary {
	s.Duration = time.Since(s.Started)
	p.logger.Info("batch complete",
		"run_id", s.RunID,
		"files", s.Files,
		"accepted", s.Accepted,
		"rejected", s.Rejected,
		"failed", s.Failed,
		"cancelled", s.Cancelled,
		"duration", s.Duration)
	return s
}
