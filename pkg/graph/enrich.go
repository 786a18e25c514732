package graph

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lantern-kg/lantern/pkg/rdf"
)

type termSlot int

const (
	slotSubject termSlot = iota
	slotPredicate
	slotObject
)

// EnrichStatements annotates every term with a display label and drops
// the label statements themselves, which are bookkeeping rather than
// structure once their value has been attached. Subjects are labelled
// first, then predicates, then objects; lookups within one pass run in
// parallel up to the explorer's label limit. The input slice is left
// untouched and statement order is preserved.
func (e *Explorer) EnrichStatements(ctx context.Context, statements []rdf.Statement, collection string) ([]rdf.Statement, error) {
	enriched := statements
	for _, slot := range []termSlot{slotSubject, slotPredicate, slotObject} {
		var err error
		enriched, err = e.labelSlot(ctx, enriched, slot, collection)
		if err != nil {
			return nil, err
		}
	}

	filtered := make([]rdf.Statement, 0, len(enriched))
	for _, stmt := range enriched {
		if stmt.Predicate.Text() == rdf.LabelPredicate {
			continue
		}
		filtered = append(filtered, stmt)
	}
	return filtered, nil
}

// labelSlot returns a copy of the statements with the given slot
// labelled. Object literals keep their own value as label instead of a
// lookup, everything else goes through ResolveLabel.
func (e *Explorer) labelSlot(ctx context.Context, statements []rdf.Statement, slot termSlot, collection string) ([]rdf.Statement, error) {
	out := make([]rdf.Statement, len(statements))
	copy(out, statements)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelLabels)
	for i := range out {
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return nil
			default:
				term := slotTerm(out[i], slot)

				if slot == slotObject && !term.IsIRI() {
					out[i] = setSlotTerm(out[i], slot, term.WithLabel(term.Text()))
					return nil
				}
				if term.Text() == "" {
					out[i] = setSlotTerm(out[i], slot, term.WithLabel(""))
					return nil
				}

				label, err := e.ResolveLabel(gCtx, term.Text(), collection)
				if err != nil {
					return fmt.Errorf("enrich %s: %w", term.Text(), err)
				}
				out[i] = setSlotTerm(out[i], slot, term.WithLabel(label))
				return nil
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func slotTerm(stmt rdf.Statement, slot termSlot) rdf.Term {
	switch slot {
	case slotSubject:
		return stmt.Subject
	case slotPredicate:
		return stmt.Predicate
	default:
		return stmt.Object
	}
}

func setSlotTerm(stmt rdf.Statement, slot termSlot, term rdf.Term) rdf.Statement {
	switch slot {
	case slotSubject:
		stmt.Subject = term
	case slotPredicate:
		stmt.Predicate = term
	case slotObject:
		stmt.Object = term
	}
	return stmt
}
