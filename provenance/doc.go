// Package provenance walks ValueFlows provenance chains through a quad store.
//
// Track follows a resource or process downstream to the events and
// resources/processes it led to. Trace follows it upstream to what produced
// it. Both are the same depth-first walk with the inputOf/outputOf roles
// swapped; see Forward and Backward.
//
// Results are produced lazily. The walk only advances while the caller pulls
// from the returned sequence, and stopping the range loop abandons it:
//
//	for node, err := range provenance.Track(ctx, store, graph.IRI(lot)) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(node.Distance, node.Type, node.IRI)
//	}
//
// Each call owns its own visited set, so a node is reported at most once per
// call even when the graph has cycles or converging paths. Store errors end
// the sequence and are yielded exactly as the store returned them.
package provenance
