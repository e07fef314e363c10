/*
Package observability turns engine lifecycle hooks into Prometheus metrics and
structured log lines.

Hooks from several consumers can be merged with Combine and passed to
parley.WithLifecycleHooks.
*/
package observability
