package domain

import "math"

// Candidate is an unconfirmed classification produced by one rule source.
// It is consumed within a single arbitration pass.
type Candidate struct {
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Entities   map[string]any `json:"entities,omitempty"`
}

// Clamp bounds the confidence to [0,1]. NaN becomes 0.
func (c *Candidate) Clamp() {
	switch {
	case math.IsNaN(c.Confidence), c.Confidence < 0:
		c.Confidence = 0
	case c.Confidence > 1:
		c.Confidence = 1
	}
}
