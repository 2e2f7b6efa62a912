package provenance

import (
	"fmt"

	"github.com/c360studio/semprov/graph"
	vf "github.com/c360studio/semprov/vocabulary/valueflows"
)

// SemanticType is a ValueFlows class the walker knows how to navigate.
type SemanticType int

const (
	Unknown SemanticType = iota
	EconomicResource
	Process
	EconomicEvent
)

// dispatchOrder is the order in which matching branches run for a node that
// carries several types.
var dispatchOrder = []SemanticType{EconomicResource, Process, EconomicEvent}

func (t SemanticType) String() string {
	switch t {
	case EconomicResource:
		return "EconomicResource"
	case Process:
		return "Process"
	case EconomicEvent:
		return "EconomicEvent"
	default:
		return "Unknown"
	}
}

// IRI returns the ValueFlows class IRI, or "" for Unknown.
func (t SemanticType) IRI() string {
	switch t {
	case EconomicResource:
		return vf.ClassEconomicResource
	case Process:
		return vf.ClassProcess
	case EconomicEvent:
		return vf.ClassEconomicEvent
	default:
		return ""
	}
}

func (t SemanticType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *SemanticType) UnmarshalText(text []byte) error {
	for _, known := range dispatchOrder {
		if string(text) == known.String() || string(text) == known.IRI() {
			*t = known
			return nil
		}
	}
	return fmt.Errorf("unknown semantic type %q", text)
}

// Classify maps a node's rdf:type values to the semantic types they carry,
// in dispatch order. A node may carry several; an empty result is a dead end.
func Classify(types []graph.NamedNode) []SemanticType {
	var out []SemanticType
	for _, st := range dispatchOrder {
		class := st.IRI()
		for _, t := range types {
			if t.Value() == class {
				out = append(out, st)
				break
			}
		}
	}
	return out
}

// ResultNode is one node reached by a walk.
type ResultNode struct {
	Type SemanticType `json:"type"`
	IRI  string       `json:"iri"`
	// Distance is the number of hops from the start node along the path that
	// first reached this node.
	Distance int `json:"distance"`
}

// Node returns the result's IRI as a named node.
func (r ResultNode) Node() (graph.NamedNode, error) {
	return graph.NewNamedNode(r.IRI)
}
