package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
)

var (
	errEmptyIntent   = errors.New("candidate has empty intent")
	errBadConfidence = errors.New("candidate confidence is not a finite number")
)

// Resolution is the result of one arbitration pass.
type Resolution struct {
	// Candidate is the winning candidate, or nil if no source matched.
	Candidate *domain.Candidate

	// Source is the name of the winning source.
	Source string

	// Text is the normalized text the sources saw.
	Text string

	// Errors holds one *domain.ClassificationError per failing source.
	Errors []error
}

// Arbitrator runs rule sources in priority order. It is immutable and safe for concurrent use.
type Arbitrator struct {
	sources   []Source
	logger    *slog.Logger
	normalize bool
}

// Option configures the Arbitrator.
type Option func(*Arbitrator)

// WithLogger configures a logger for isolated source failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Arbitrator) {
		a.logger = logger
	}
}

// WithoutNormalization passes the raw utterance text to sources.
func WithoutNormalization() Option {
	return func(a *Arbitrator) {
		a.normalize = false
	}
}

// NewArbitrator creates an arbitrator over sources, in the given order.
func NewArbitrator(sources []Source, opts ...Option) (*Arbitrator, error) {
	seen := make(map[string]struct{}, len(sources))
	for i, src := range sources {
		if src.Name == "" {
			return nil, fmt.Errorf("rule source at position %d has no name", i)
		}
		if src.Match == nil {
			return nil, fmt.Errorf("rule source %q has no match function", src.Name)
		}
		if _, dup := seen[src.Name]; dup {
			return nil, fmt.Errorf("rule source %q registered twice", src.Name)
		}
		seen[src.Name] = struct{}{}
	}

	a := &Arbitrator{
		sources:   append([]Source(nil), sources...),
		logger:    logging.NewNop(),
		normalize: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Sources returns the source names in priority order.
func (a *Arbitrator) Sources() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name
	}
	return names
}

// Resolve returns the first candidate produced by a source, in priority order.
// Sources after the winner are not invoked. The returned error is only ever
// the context's error.
func (a *Arbitrator) Resolve(ctx context.Context, utt domain.Utterance) (*Resolution, error) {
	text := utt.Text
	if a.normalize {
		text = Normalize(text)
	}
	res := &Resolution{Text: text}

	for _, src := range a.sources {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		cand, err := try(src, text, utt.NLU)
		if err == nil && cand != nil {
			switch {
			case cand.Intent == "":
				err = errEmptyIntent
			case math.IsNaN(cand.Confidence) || math.IsInf(cand.Confidence, 0):
				err = errBadConfidence
			}
		}
		if err != nil {
			cerr := &domain.ClassificationError{Source: src.Name, Err: err}
			res.Errors = append(res.Errors, cerr)
			a.logger.Warn("rule source failed, treating as no match",
				"source", src.Name,
				"err", err,
			)
			continue
		}
		if cand == nil {
			continue
		}

		winner := *cand
		winner.Entities = domain.CopyEntities(cand.Entities)
		winner.Clamp()
		res.Candidate = &winner
		res.Source = src.Name
		a.logger.Debug("rule source matched",
			"source", src.Name,
			"intent", winner.Intent,
			"confidence", winner.Confidence,
		)
		return res, nil
	}
	return res, nil
}

func try(src Source, text string, nlu domain.NLUContext) (cand *domain.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cand = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return src.Match(text, nlu)
}
