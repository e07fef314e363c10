// Package fallback supplies the user-facing text for unknown, low-confidence,
// failed and confirmation turns.
package fallback

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Phrases holds the variant sets and fixed templates.
// Templates may use {{intent}}, {{confidence}}, {{error}} and {{action}}.
type Phrases struct {
	Unknown               []string `yaml:"unknown" mapstructure:"unknown"`
	LowConfidence         []string `yaml:"low_confidence" mapstructure:"low_confidence"`
	Error                 []string `yaml:"error" mapstructure:"error"`
	PluginNotFound        []string `yaml:"plugin_not_found" mapstructure:"plugin_not_found"`
	ConfirmationPending   string   `yaml:"confirmation_pending" mapstructure:"confirmation_pending"`
	ConfirmationTimeout   string   `yaml:"confirmation_timeout" mapstructure:"confirmation_timeout"`
	ConfirmationCancelled string   `yaml:"confirmation_cancelled" mapstructure:"confirmation_cancelled"`
}

// DefaultPhrases returns the built-in English phrasings.
func DefaultPhrases() Phrases {
	return Phrases{
		Unknown: []string{
			"Sorry, I didn't understand that.",
			"I'm not sure what you mean. Could you rephrase?",
			"I don't know how to help with that yet.",
		},
		LowConfidence: []string{
			"I'm only {{confidence}} sure what you meant. Could you say it differently?",
			"I think I understood, but I'm not confident enough ({{confidence}}). Please rephrase.",
		},
		Error: []string{
			"Something went wrong while doing that.",
			"Sorry, that didn't work: {{error}}",
		},
		PluginNotFound: []string{
			"I understood \"{{intent}}\", but nothing is installed to handle it.",
			"I know what you want ({{intent}}), but I can't do it yet.",
		},
		ConfirmationPending:   "Are you sure you want to {{action}}? (yes/no)",
		ConfirmationTimeout:   "The confirmation timed out, so I didn't do anything.",
		ConfirmationCancelled: "Okay, cancelled.",
	}
}

// Provider implements ports.Fallbacks.
type Provider struct {
	phrases Phrases

	mu  sync.Mutex // *rand.Rand is not safe for concurrent use
	rnd *rand.Rand
}

// Option configures the Provider.
type Option func(*Provider)

// WithRand injects the random source used to pick phrasings.
func WithRand(r *rand.Rand) Option {
	return func(p *Provider) {
		if r != nil {
			p.rnd = r
		}
	}
}

// WithSeed seeds the random source for reproducible output.
func WithSeed(seed int64) Option {
	return func(p *Provider) {
		p.rnd = rand.New(rand.NewSource(seed))
	}
}

// WithPhrases overrides phrasings. Empty fields keep their defaults.
func WithPhrases(override Phrases) Option {
	return func(p *Provider) {
		p.phrases = merge(p.phrases, override)
	}
}

// New creates a Provider with the default phrasings and a time-seeded source.
func New(opts ...Option) *Provider {
	p := &Provider{
		phrases: DefaultPhrases(),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func merge(base, override Phrases) Phrases {
	if len(override.Unknown) > 0 {
		base.Unknown = override.Unknown
	}
	if len(override.LowConfidence) > 0 {
		base.LowConfidence = override.LowConfidence
	}
	if len(override.Error) > 0 {
		base.Error = override.Error
	}
	if len(override.PluginNotFound) > 0 {
		base.PluginNotFound = override.PluginNotFound
	}
	if override.ConfirmationPending != "" {
		base.ConfirmationPending = override.ConfirmationPending
	}
	if override.ConfirmationTimeout != "" {
		base.ConfirmationTimeout = override.ConfirmationTimeout
	}
	if override.ConfirmationCancelled != "" {
		base.ConfirmationCancelled = override.ConfirmationCancelled
	}
	return base
}

// Phrases returns a copy of the active phrasings.
func (p *Provider) Phrases() Phrases {
	out := p.phrases
	out.Unknown = append([]string(nil), p.phrases.Unknown...)
	out.LowConfidence = append([]string(nil), p.phrases.LowConfidence...)
	out.Error = append([]string(nil), p.phrases.Error...)
	out.PluginNotFound = append([]string(nil), p.phrases.PluginNotFound...)
	return out
}

func (p *Provider) pick(set []string) string {
	if len(set) == 0 {
		return ""
	}
	p.mu.Lock()
	i := p.rnd.Intn(len(set))
	p.mu.Unlock()
	return set[i]
}

func render(tmpl string, vars ...string) string {
	return strings.NewReplacer(vars...).Replace(tmpl)
}

// Unknown is used when no rule source matched.
func (p *Provider) Unknown() string {
	return p.pick(p.phrases.Unknown)
}

// LowConfidence is used when the best match is below the confidence floor.
func (p *Provider) LowConfidence(confidence float64) string {
	return render(p.pick(p.phrases.LowConfidence),
		"{{confidence}}", fmt.Sprintf("%.0f%%", confidence*100))
}

// Error is used when a handler failed.
func (p *Provider) Error(err error) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return render(p.pick(p.phrases.Error), "{{error}}", msg)
}

// PluginNotFound is used when an intent has no handler.
func (p *Provider) PluginNotFound(intent string) string {
	return render(p.pick(p.phrases.PluginNotFound), "{{intent}}", intent)
}

// ConfirmationPending asks the user to confirm actionDescription.
func (p *Provider) ConfirmationPending(actionDescription string) string {
	return render(p.phrases.ConfirmationPending, "{{action}}", actionDescription)
}

// ConfirmationTimeout reports an expired confirmation.
func (p *Provider) ConfirmationTimeout() string {
	return p.phrases.ConfirmationTimeout
}

// ConfirmationCancelled acknowledges a declined confirmation.
func (p *Provider) ConfirmationCancelled() string {
	return p.phrases.ConfirmationCancelled
}
