package domain

// NLUContext carries entities and boolean signals extracted before classification.
type NLUContext struct {
	// Entities maps a name (e.g. "website", "urls", "searchQuery") to a value.
	Entities map[string]any `json:"entities,omitempty"`

	// Signals maps a name (e.g. "isCommand") to a flag.
	Signals map[string]bool `json:"signals,omitempty"`
}

// Entity returns the named entity and whether it was present.
func (c NLUContext) Entity(name string) (any, bool) {
	v, ok := c.Entities[name]
	return v, ok
}

// Signal reports whether the named signal is set. Missing signals are false.
func (c NLUContext) Signal(name string) bool {
	return c.Signals[name]
}

// Utterance is the input of a single turn. The engine never mutates it.
type Utterance struct {
	Text string     `json:"text"`
	NLU  NLUContext `json:"nlu,omitempty"`
}

// NewUtterance builds an Utterance without NLU context.
func NewUtterance(text string) Utterance {
	return Utterance{Text: text}
}
