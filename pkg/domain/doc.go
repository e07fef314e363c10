/*
Package domain contains the core domain models of the Parley engine.

It defines what flows through a conversational turn: the user's Utterance,
the Candidate produced by a rule source, the per-session Session record with
its awaiting and pending-confirmation markers, and the Outcome returned to the
host. This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Utterance: Immutable input text plus optional pre-extracted NLU context.
  - Candidate: A classification result from a single rule source.
  - Session: Mutable per-session state (Awaiting XOR Pending).
  - Outcome: The result surfaced to the user, annotated with the Route taken.
*/
package domain
