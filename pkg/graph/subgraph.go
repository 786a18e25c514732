package graph

import (
	"github.com/lantern-kg/lantern/pkg/logger"
	"github.com/lantern-kg/lantern/pkg/rdf"
)

const (
	linkKeySeparator = "@@"
	defaultNodeGroup = 1
	defaultLinkValue = 1
	unknownLabel     = "unknown"
)

// Node is a single entity in a rendered subgraph. ID carries the entity
// identifier, Label the resolved display text.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group int    `json:"group"`
}

// Link is a directed edge between two nodes. Key is unique per
// (source, relationship, target) triple so the same relationship merged
// twice stays a single edge.
type Link struct {
	Key    string `json:"key"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Value  int    `json:"value"`
}

// LinkKey builds the deduplication key for an edge.
func LinkKey(source, relationship, target string) string {
	return source + linkKeySeparator + relationship + linkKeySeparator + target
}

// Subgraph is the accumulated node/link view handed to callers. The zero
// value is usable; so is a value decoded from JSON. Merge operations
// never modify the receiver, they return a grown copy.
type Subgraph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`

	nodeIDs  map[string]struct{}
	linkKeys map[string]struct{}
}

// NewSubgraph returns an empty subgraph ready to merge into.
func NewSubgraph() Subgraph {
	return Subgraph{Nodes: []Node{}, Links: []Link{}}
}

// HasNode reports whether a node with the given identifier is present.
func (g Subgraph) HasNode(id string) bool {
	if g.nodeIDs != nil {
		_, ok := g.nodeIDs[id]
		return ok
	}
	for _, node := range g.Nodes {
		if node.ID == id {
			return true
		}
	}
	return false
}

// HasLink reports whether an edge with the given key is present.
func (g Subgraph) HasLink(key string) bool {
	if g.linkKeys != nil {
		_, ok := g.linkKeys[key]
		return ok
	}
	for _, link := range g.Links {
		if link.Key == key {
			return true
		}
	}
	return false
}

// MergeStatements folds enriched statements into the subgraph and
// returns the grown copy. Statements whose object is not an IRI describe
// attributes rather than connections and are skipped. Nodes and links
// already present keep their first-seen entry, and insertion order
// follows statement order, so merging the same batch twice yields the
// same subgraph.
func (g Subgraph) MergeStatements(statements []rdf.Statement) Subgraph {
	merged := g.clone()
	merged.index()

	for _, stmt := range statements {
		if !stmt.Object.IsIRI() {
			continue
		}

		sourceID := stmt.Subject.Text()
		targetID := stmt.Object.Text()
		relationshipID := stmt.Predicate.Text()
		if sourceID == "" || targetID == "" {
			logger.Debug("[Graph] Skipping statement with empty endpoint", "subject", sourceID, "object", targetID)
			continue
		}

		merged.addNode(sourceID, stmt.Subject.Label)
		merged.addNode(targetID, stmt.Object.Label)
		merged.addLink(sourceID, relationshipID, targetID, stmt.Predicate.Label)
	}

	return merged
}

func (g *Subgraph) addNode(id string, label string) {
	if _, ok := g.nodeIDs[id]; ok {
		return
	}
	if label == "" {
		label = unknownLabel
	}
	g.Nodes = append(g.Nodes, Node{ID: id, Label: label, Group: defaultNodeGroup})
	g.nodeIDs[id] = struct{}{}
}

func (g *Subgraph) addLink(source string, relationship string, target string, label string) {
	key := LinkKey(source, relationship, target)
	if _, ok := g.linkKeys[key]; ok {
		return
	}
	if label == "" {
		label = unknownLabel
	}
	g.Links = append(g.Links, Link{
		Key:    key,
		Source: source,
		Target: target,
		Label:  label,
		Value:  defaultLinkValue,
	})
	g.linkKeys[key] = struct{}{}
}

// clone copies the node and link slices into fresh backing arrays so the
// merged result shares no memory with the receiver.
func (g Subgraph) clone() Subgraph {
	out := Subgraph{
		Nodes: make([]Node, len(g.Nodes)),
		Links: make([]Link, len(g.Links)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Links, g.Links)
	return out
}

// index rebuilds the membership sets from the slices. Zero values and
// JSON-decoded subgraphs arrive without them.
func (g *Subgraph) index() {
	g.nodeIDs = make(map[string]struct{}, len(g.Nodes))
	for _, node := range g.Nodes {
		g.nodeIDs[node.ID] = struct{}{}
	}
	g.linkKeys = make(map[string]struct{}, len(g.Links))
	for _, link := range g.Links {
		g.linkKeys[link.Key] = struct{}{}
	}
}
