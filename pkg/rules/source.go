package rules

import (
	"regexp"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Func attempts to classify text. It must be pure, side-effect free and fast.
// Returning (nil, nil) means "no match".
type Func func(text string, nlu domain.NLUContext) (*domain.Candidate, error)

// Source is a named rule source.
type Source struct {
	Name  string
	Match Func
}

// New creates a named Source.
func New(name string, fn Func) Source {
	return Source{Name: name, Match: fn}
}

// Extractor builds entities from regexp submatches (index 0 is the full match).
type Extractor func(groups []string) map[string]any

// Regexp creates a Source that emits intent when pattern matches.
func Regexp(name, pattern, intent string, confidence float64, extract Extractor) Source {
	re := regexp.MustCompile(pattern)
	return New(name, func(text string, _ domain.NLUContext) (*domain.Candidate, error) {
		groups := re.FindStringSubmatch(text)
		if groups == nil {
			return nil, nil
		}
		var entities map[string]any
		if extract != nil {
			entities = extract(groups)
		}
		return &domain.Candidate{Intent: intent, Confidence: confidence, Entities: entities}, nil
	})
}

// Exact creates a Source that matches whole phrases only (after trimming trailing punctuation).
func Exact(name string, phrases []string, intent string, confidence float64) Source {
	set := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		set[trimPunct(p)] = struct{}{}
	}
	return New(name, func(text string, _ domain.NLUContext) (*domain.Candidate, error) {
		if _, ok := set[trimPunct(text)]; !ok {
			return nil, nil
		}
		return &domain.Candidate{Intent: intent, Confidence: confidence}, nil
	})
}

func trimPunct(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".!?,;")
}
