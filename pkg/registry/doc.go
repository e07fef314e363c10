// Package registry holds the mapping from intent names to skill handlers.
//
// Registrations happen at startup. Once the engine is built the registry is
// frozen and only read, so lookups from concurrent turns never block each other.
package registry
