// Package graph defines the RDF terms, quads and the read-only Source
// contract that the provenance walker queries, plus the two directional
// lookups built on it.
//
// A Source answers one question: which quads match a pattern. Everything
// else (indexing, persistence, transport) belongs to the store behind it.
// Outgoing and Incoming drain a Match completely before returning, so the
// caller never holds an open scan while it issues the next query.
package graph
