// Package rdf holds the value model shared by every layer that touches the
// knowledge graph: terms, statements and the well-known vocabulary table.
package rdf

import "github.com/lantern-kg/lantern/pkg/logger"

// TermKind discriminates the three kinds of graph values.
type TermKind string

const (
	TermKindIRI     TermKind = "iri"
	TermKindLiteral TermKind = "literal"
	TermKindBlank   TermKind = "blank"
)

// Term is a single value in a statement: a named entity (IRI), a literal
// value, or a blank node. The zero Term has no kind and is treated as
// malformed by every accessor.
//
// Label is an enrichment annotation attached by the label resolver. It is
// display state, not identity: Equal ignores it, and enrichment produces
// decorated copies instead of mutating terms in place.
type Term struct {
	Kind     TermKind `json:"type"`
	Value    string   `json:"value"`
	Language string   `json:"language,omitempty"`
	Datatype string   `json:"datatype,omitempty"`
	Label    string   `json:"label,omitempty"`
}

// IRI returns an IRI term for the given identifier.
func IRI(value string) Term {
	return Term{Kind: TermKindIRI, Value: value}
}

// Literal returns a plain literal term.
func Literal(value string) Term {
	return Term{Kind: TermKindLiteral, Value: value}
}

// LiteralLang returns a language-tagged literal term.
func LiteralLang(value, language string) Term {
	return Term{Kind: TermKindLiteral, Value: value, Language: language}
}

// Blank returns a blank-node term for the given internal identifier.
func Blank(id string) Term {
	return Term{Kind: TermKindBlank, Value: id}
}

// Text extracts the string value of the term. It is total: a term whose
// kind is not one of the known variants yields an empty string instead of
// panicking, so downstream pipelines stay defined for malformed input.
func (t Term) Text() string {
	switch t.Kind {
	case TermKindIRI, TermKindLiteral, TermKindBlank:
		return t.Value
	default:
		logger.Debug("[RDF] Term with unknown kind", "kind", string(t.Kind), "value", t.Value)
		return ""
	}
}

// IsIRI reports whether the term is a named entity. Total over all kinds.
func (t Term) IsIRI() bool {
	return t.Kind == TermKindIRI
}

// IsLiteral reports whether the term is a literal value.
func (t Term) IsLiteral() bool {
	return t.Kind == TermKindLiteral
}

// IsBlank reports whether the term is a blank node.
func (t Term) IsBlank() bool {
	return t.Kind == TermKindBlank
}

// Equal compares term identity: kind, value and the literal tags.
// The display label is not part of identity.
func (t Term) Equal(o Term) bool {
	return t.Kind == o.Kind &&
		t.Value == o.Value &&
		t.Language == o.Language &&
		t.Datatype == o.Datatype
}

// WithLabel returns a copy of the term decorated with a display label.
func (t Term) WithLabel(label string) Term {
	t.Label = label
	return t
}

// Statement is a subject-predicate-object fact. Statements are treated as
// immutable values: enrichment builds new statements rather than writing
// through an existing one.
type Statement struct {
	Subject   Term `json:"subject"`
	Predicate Term `json:"predicate"`
	Object    Term `json:"object"`
}

// NewStatement builds a statement from its three terms.
func NewStatement(subject, predicate, object Term) Statement {
	return Statement{Subject: subject, Predicate: predicate, Object: object}
}
