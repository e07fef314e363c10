// Package runtime implements turn dispatch: confirmation handling, awaiting
// answers, classification, confidence gating and bounded handler execution.
package runtime
