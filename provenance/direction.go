package provenance

import (
	"fmt"
	"strings"

	"github.com/c360studio/semprov/graph"
	vf "github.com/c360studio/semprov/vocabulary/valueflows"
)

var (
	rdfType  = graph.MustNamedNode(vf.RDFType)
	affects  = graph.MustNamedNode(vf.PropAffects)
	inputOf  = graph.MustNamedNode(vf.PropInputOf)
	outputOf = graph.MustNamedNode(vf.PropOutputOf)
)

// Direction selects which process relation a walk follows.
type Direction struct {
	name string

	// processEvents is followed backwards from a Process to its events.
	processEvents graph.NamedNode

	// eventProcesses is followed from an Event to its processes. A non-empty
	// result also opens the event's affects edges.
	eventProcesses graph.NamedNode
}

var (
	// Forward walks downstream: a process leads to the events it output, an
	// event leads to the processes it was input to.
	Forward = Direction{name: "track", processEvents: outputOf, eventProcesses: inputOf}

	// Backward walks upstream: a process leads to the events that were its
	// inputs, an event leads to the processes it was output of.
	Backward = Direction{name: "trace", processEvents: inputOf, eventProcesses: outputOf}
)

func (d Direction) String() string {
	return d.name
}

// ParseDirection accepts "track"/"forward" and "trace"/"backward".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "track", "forward":
		return Forward, nil
	case "trace", "backward":
		return Backward, nil
	default:
		return Direction{}, fmt.Errorf("unknown direction %q", s)
	}
}
