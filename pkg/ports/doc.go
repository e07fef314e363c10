/*
Package ports defines the driven ports (interfaces) of the Parley engine.

These interfaces decouple the dispatch core from external implementations,
allowing the engine to work with various session backends, distributed lock
services, and fallback phrasing providers.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading per-session state.
  - DistributedLocker: Provides distributed locking for concurrent session access across replicas.
  - Memory: The capability handed to skill handlers to ask follow-up questions.
  - Fallbacks: Canned responses for unknown, low-confidence, error and confirmation cases.
*/
package ports
