package vectorstore

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/veclite"
)

// PredicateKind says how a Predicate filters records.
type PredicateKind int

const (
	// PredicateNone matches every record.
	PredicateNone PredicateKind = iota
	// PredicateEquality matches records where one field equals a value.
	PredicateEquality
	// PredicateAnd matches records satisfying every equality clause.
	PredicateAnd
)

// Equality is a single field = value condition.
type Equality struct {
	Field string
	Value any
}

// Predicate is a metadata filter over payload fields. The zero value
// matches everything.
type Predicate struct {
	Kind    PredicateKind
	Clauses []Equality
}

// FilterBuilder accumulates equality conditions and produces a Predicate
// whose shape depends on how many conditions were added: none yields an
// unfiltered predicate, one yields a bare equality, several yield a
// conjunction.
type FilterBuilder struct {
	clauses []Equality
}

// NewFilter creates an empty filter builder.
func NewFilter() *FilterBuilder {
	return &FilterBuilder{}
}

// Equal adds a field = value condition.
func (b *FilterBuilder) Equal(field string, value any) *FilterBuilder {
	b.clauses = append(b.clauses, Equality{Field: field, Value: value})
	return b
}

// Build produces the final predicate.
func (b *FilterBuilder) Build() Predicate {
	switch len(b.clauses) {
	case 0:
		return Predicate{Kind: PredicateNone}
	case 1:
		return Predicate{Kind: PredicateEquality, Clauses: b.clauses}
	default:
		return Predicate{Kind: PredicateAnd, Clauses: b.clauses}
	}
}

// IsEmpty reports whether the predicate matches everything.
func (p Predicate) IsEmpty() bool {
	return p.Kind == PredicateNone
}

// vecliteFilter lowers the predicate to a VecLite filter. Returns nil for
// the empty predicate.
func (p Predicate) vecliteFilter() veclite.Filter {
	switch p.Kind {
	case PredicateEquality:
		return veclite.Equal(p.Clauses[0].Field, p.Clauses[0].Value)
	case PredicateAnd:
		filters := make([]veclite.Filter, len(p.Clauses))
		for i, c := range p.Clauses {
			filters[i] = veclite.Equal(c.Field, c.Value)
		}
		return veclite.And(filters...)
	default:
		return nil
	}
}

// String renders the predicate for logging and query echoes.
func (p Predicate) String() string {
	if p.Kind == PredicateNone {
		return "none"
	}

	parts := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		parts[i] = fmt.Sprintf("%s=%v", c.Field, c.Value)
	}
	return strings.Join(parts, " AND ")
}
