package valueflows

import "strings"

// Namespace is the base IRI for ValueFlows terms.
const Namespace = "https://w3id.org/valueflows#"

// RDFNamespace is the base IRI for the RDF syntax vocabulary.
const RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

// RDFType classifies a node.
const RDFType = RDFNamespace + "type"

// Class IRIs recognised by the provenance walker.
const (
	// ClassEconomicResource is a resource being acted upon.
	ClassEconomicResource = Namespace + "EconomicResource"

	// ClassProcess is an activity that transforms inputs into outputs.
	ClassProcess = Namespace + "Process"

	// ClassEconomicEvent is a discrete occurrence linking resources and processes.
	ClassEconomicEvent = Namespace + "EconomicEvent"
)

// Object property IRIs used for navigation.
const (
	// PropAffects links an event to the resource it changed.
	// Domain: ClassEconomicEvent, Range: ClassEconomicResource
	PropAffects = Namespace + "affects"

	// PropInputOf links an event to the process that consumed it.
	// Domain: ClassEconomicEvent, Range: ClassProcess
	PropInputOf = Namespace + "inputOf"

	// PropOutputOf links an event to the process that produced it.
	// Domain: ClassEconomicEvent, Range: ClassProcess
	PropOutputOf = Namespace + "outputOf"
)

// Term returns the ValueFlows IRI for a local name.
func Term(local string) string {
	return Namespace + local
}

// RDF returns the RDF syntax IRI for a local name.
func RDF(local string) string {
	return RDFNamespace + local
}

// Prefixes returns the default namespace prefixes. The map is a fresh copy.
func Prefixes() map[string]string {
	return map[string]string{
		"rdf": RDFNamespace,
		"vf":  Namespace,
	}
}

// Expand turns a prefixed name such as "vf:Process" into a full IRI using
// prefixes. It reports false when the name has no known prefix.
func Expand(name string, prefixes map[string]string) (string, bool) {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return "", false
	}
	// "https://..." has a prefix of "https" and a local part starting with "//".
	if strings.HasPrefix(local, "//") {
		return "", false
	}
	ns, ok := prefixes[prefix]
	if !ok {
		return "", false
	}
	return ns + local, true
}

// Compact is the inverse of Expand. It returns iri unchanged when no prefix
// covers it.
func Compact(iri string, prefixes map[string]string) string {
	best, bestNS := "", ""
	for prefix, ns := range prefixes {
		if ns == "" || !strings.HasPrefix(iri, ns) {
			continue
		}
		if len(ns) > len(bestNS) || (len(ns) == len(bestNS) && prefix < best) {
			best, bestNS = prefix, ns
		}
	}
	if bestNS == "" {
		return iri
	}
	return best + ":" + strings.TrimPrefix(iri, bestNS)
}
