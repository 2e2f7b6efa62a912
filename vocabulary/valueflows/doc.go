// Package valueflows provides the ValueFlows vocabulary terms used to walk
// provenance chains.
//
// ValueFlows models economic activity as resources, the processes that
// transform them, and the events that connect the two:
//
//	Event --affects-->  EconomicResource
//	Event --inputOf-->  Process
//	Event --outputOf--> Process
//
// Classification uses rdf:type. Only three classes and three relations take
// part in navigation; everything else in a graph is ignored by the walker.
//
// # Usage
//
//	import vf "github.com/c360studio/semprov/vocabulary/valueflows"
//
//	pattern := graph.Pattern{
//	    Predicate: graph.MustNamedNode(vf.PropAffects),
//	    Object:    resource,
//	}
//
// Prefixed names can be expanded with the default prefix map:
//
//	iri, ok := vf.Expand("vf:EconomicEvent", vf.Prefixes())
package valueflows
