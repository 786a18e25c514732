package rdf

// Common vocabulary IRIs the explorer encounters on almost every graph.
const (
	IRIRDFType            = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	IRIRDFSLabel          = "http://www.w3.org/2000/01/rdf-schema#label"
	IRIRDFSComment        = "http://www.w3.org/2000/01/rdf-schema#comment"
	IRIRDFSSubClassOf     = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
	IRIRDFSSeeAlso        = "http://www.w3.org/2000/01/rdf-schema#seeAlso"
	IRIRDFSDomain         = "http://www.w3.org/2000/01/rdf-schema#domain"
	IRIRDFSRange          = "http://www.w3.org/2000/01/rdf-schema#range"
	IRIOWLSameAs          = "http://www.w3.org/2002/07/owl#sameAs"
	IRISKOSPrefLabel      = "http://www.w3.org/2004/02/skos/core#prefLabel"
	IRISKOSAltLabel       = "http://www.w3.org/2004/02/skos/core#altLabel"
	IRISKOSDefinition     = "http://www.w3.org/2004/02/skos/core#definition"
	IRISKOSBroader        = "http://www.w3.org/2004/02/skos/core#broader"
	IRISKOSNarrower       = "http://www.w3.org/2004/02/skos/core#narrower"
	IRISKOSRelated        = "http://www.w3.org/2004/02/skos/core#related"
	IRIDCTermsDescription = "http://purl.org/dc/terms/description"
)

// LabelPredicate is the predicate the label resolver queries for and the
// enrichment filter suppresses from the visual graph.
const LabelPredicate = IRIRDFSLabel

// wellKnownLabels maps the vocabulary terms above to display labels so
// that resolving them never costs a remote round trip.
var wellKnownLabels = map[string]string{
	IRIRDFType:            "has type",
	IRIRDFSLabel:          "label",
	IRIRDFSComment:        "comment",
	IRIRDFSSubClassOf:     "subclass of",
	IRIRDFSSeeAlso:        "see also",
	IRIRDFSDomain:         "domain",
	IRIRDFSRange:          "range",
	IRIOWLSameAs:          "same as",
	IRISKOSPrefLabel:      "preferred label",
	IRISKOSAltLabel:       "alternative label",
	IRISKOSDefinition:     "definition",
	IRISKOSBroader:        "broader",
	IRISKOSNarrower:       "narrower",
	IRISKOSRelated:        "related",
	IRIDCTermsDescription: "description",
}

// WellKnownLabel returns the static display label for an identifier and
// whether the identifier is part of the well-known table.
func WellKnownLabel(iri string) (string, bool) {
	label, ok := wellKnownLabels[iri]
	return label, ok
}
