/*
Package rules implements candidate arbitration over an ordered list of rule sources.

A rule source is a pure function that looks at an utterance and returns at most
one Candidate. Sources are hand-ordered by specificity: the Arbitrator invokes
them strictly in registration order and the first source that returns a
candidate wins. Confidence is never compared across sources.

A source that returns an error (or panics) is isolated: the failure is recorded
as a domain.ClassificationError and arbitration continues with the next source.
*/
package rules
