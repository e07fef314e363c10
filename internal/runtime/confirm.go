package runtime

import (
	"strings"

	"github.com/aretw0/parley/pkg/rules"
)

// Reply is the classification of an answer to a confirmation prompt.
type Reply int

const (
	ReplyAmbiguous Reply = iota
	ReplyAffirmative
	ReplyNegative
)

func (r Reply) String() string {
	switch r {
	case ReplyAffirmative:
		return "affirmative"
	case ReplyNegative:
		return "negative"
	default:
		return "ambiguous"
	}
}

// Vocabulary lists the replies accepted as yes and no.
type Vocabulary struct {
	Affirmative []string `yaml:"affirmative" mapstructure:"affirmative"`
	Negative    []string `yaml:"negative" mapstructure:"negative"`
}

// DefaultVocabulary returns the built-in English confirmation words.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Affirmative: []string{"yes", "y", "yeah", "yep", "sure", "ok", "okay", "confirm", "do it", "go ahead", "affirmative"},
		Negative:    []string{"no", "n", "nope", "nah", "cancel", "stop", "abort", "don't", "never mind", "negative"},
	}
}

// Confirmer classifies replies against a fixed vocabulary. It is immutable.
type Confirmer struct {
	yes map[string]struct{}
	no  map[string]struct{}
}

// NewConfirmer builds a Confirmer. Empty lists fall back to the defaults.
func NewConfirmer(v Vocabulary) *Confirmer {
	def := DefaultVocabulary()
	if len(v.Affirmative) == 0 {
		v.Affirmative = def.Affirmative
	}
	if len(v.Negative) == 0 {
		v.Negative = def.Negative
	}
	return &Confirmer{yes: wordSet(v.Affirmative), no: wordSet(v.Negative)}
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[normalizeReply(w)] = struct{}{}
	}
	return set
}

func normalizeReply(text string) string {
	t := strings.ReplaceAll(text, "’", "'")
	t = rules.Normalize(t)
	return strings.TrimRight(t, ".!?,; ")
}

// Classify maps a reply to affirmative, negative or ambiguous.
// A reply that appears in both lists is ambiguous.
func (c *Confirmer) Classify(text string) Reply {
	t := normalizeReply(text)
	_, yes := c.yes[t]
	_, no := c.no[t]
	switch {
	case yes && !no:
		return ReplyAffirmative
	case no && !yes:
		return ReplyNegative
	default:
		return ReplyAmbiguous
	}
}

// ClassifyReply classifies text with the default vocabulary.
func ClassifyReply(text string) Reply {
	return defaultConfirmer.Classify(text)
}

var defaultConfirmer = NewConfirmer(DefaultVocabulary())
