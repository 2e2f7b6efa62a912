package graph

import "errors"

// ErrInvalidIRI is returned when a string cannot be turned into a named node.
var ErrInvalidIRI = errors.New("invalid IRI")

// ErrInvalidTerm is returned when an encoded term cannot be decoded.
var ErrInvalidTerm = errors.New("invalid term")
