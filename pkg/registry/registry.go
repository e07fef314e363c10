package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// HandlerContext carries the per-turn capabilities a handler may use.
type HandlerContext struct {
	SessionID string
	Intent    string
	Memory    ports.Memory
	Logger    *slog.Logger
}

// HandlerFunc implements an intent. It receives a context bounded by the
// engine's handler timeout and the entities of the winning candidate.
type HandlerFunc func(ctx context.Context, entities map[string]any, hc *HandlerContext) (domain.Outcome, error)

// Descriptor describes a registered intent handler.
type Descriptor struct {
	Intent               string
	Confidence           float64 // Nominal confidence, informational only
	RequiresConfirmation bool
	Description          string // Confirmation text, may contain {{entity}} placeholders
	Handler              HandlerFunc
}

// IntentSpec is a Descriptor without its intent name, used inside a Skill.
type IntentSpec struct {
	Confidence           float64
	RequiresConfirmation bool
	Description          string
	Handler              HandlerFunc
}

// Skill is a bundle of related intents.
type Skill struct {
	Name        string
	Description string
	Intents     map[string]IntentSpec
}

// Registry maps intent names to handler descriptors.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Descriptor
	skills   map[string]string // intent -> skill name
	frozen   bool
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Descriptor),
		skills:   make(map[string]string),
	}
}

// Register adds a descriptor. Registering an intent twice fails with
// domain.ErrDuplicateIntent and leaves the first registration in place.
func (r *Registry) Register(d Descriptor) error {
	return r.register(d, "")
}

func (r *Registry) register(d Descriptor, skill string) error {
	if d.Intent == "" {
		return fmt.Errorf("%w: empty intent", domain.ErrInvalidDescriptor)
	}
	if d.Handler == nil {
		return fmt.Errorf("%w: intent %q has no handler", domain.ErrInvalidDescriptor, d.Intent)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %q", domain.ErrRegistryFrozen, d.Intent)
	}
	if _, exists := r.handlers[d.Intent]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateIntent, d.Intent)
	}
	r.handlers[d.Intent] = d
	if skill != "" {
		r.skills[d.Intent] = skill
	}
	return nil
}

// RegisterSkill registers every intent of s in sorted order.
// The first failure aborts; intents registered before it are kept.
func (r *Registry) RegisterSkill(s Skill) error {
	names := make([]string, 0, len(s.Intents))
	for name := range s.Intents {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := s.Intents[name]
		err := r.register(Descriptor{
			Intent:               name,
			Confidence:           spec.Confidence,
			RequiresConfirmation: spec.RequiresConfirmation,
			Description:          spec.Description,
			Handler:              spec.Handler,
		}, s.Name)
		if err != nil {
			return fmt.Errorf("skill %q: %w", s.Name, err)
		}
	}
	return nil
}

// Lookup returns the descriptor for intent.
func (r *Registry) Lookup(intent string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.handlers[intent]
	return d, ok
}

// SkillOf returns the name of the skill that registered intent, if any.
func (r *Registry) SkillOf(intent string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skills[intent]
}

// Intents returns all descriptors sorted by intent name.
func (r *Registry) Intents() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.handlers))
	for _, d := range r.handlers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Intent < out[j].Intent })
	return out
}

// Freeze rejects any further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Info is the serializable view of a registered intent.
type Info struct {
	Intent               string  `json:"intent"`
	Skill                string  `json:"skill,omitempty"`
	Confidence           float64 `json:"confidence"`
	RequiresConfirmation bool    `json:"requires_confirmation"`
	Description          string  `json:"description,omitempty"`
}

// Catalog describes every registered intent, sorted by name.
func (r *Registry) Catalog() []Info {
	descs := r.Intents()
	out := make([]Info, len(descs))
	for i, d := range descs {
		out[i] = Info{
			Intent:               d.Intent,
			Skill:                r.SkillOf(d.Intent),
			Confidence:           d.Confidence,
			RequiresConfirmation: d.RequiresConfirmation,
			Description:          d.Description,
		}
	}
	return out
}
