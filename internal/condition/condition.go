// Package condition implements the structured predicate language used in
// WHERE clauses and compiles it to MySQL boolean expressions.
//
// A Condition is one of a closed set of variants. Callers either build them
// directly (Eq, Cmp, And, Or, Not, Fields) or decode the dynamic form with
// Parse:
//
//	"raw sql"                      Raw, passed through verbatim
//	map[string]any{"a": 1}         Fields, equality pairs joined by AND
//	[]any{"a", 1}                  Equals
//	[]any{"a", ">", 1}             Compare
//	[]any{"$and"|"$or", c1, c2...} Combine
//	[]any{"$not", c}               Combine
//	true / false / nil             Bool
package condition

// Condition is a predicate. The set of implementations is closed.
type Condition interface {
	condition()
}

// Raw is trusted SQL emitted verbatim.
type Raw string

// Bool is a constant predicate.
type Bool bool

// Fragment is a caller-supplied SQL fragment that is parenthesized when
// compiled. It is what a one-element array decodes to.
type Fragment string

// Equals compares Field to Value with "=".
type Equals struct {
	Field string
	Value any
}

// Compare compares Field to Value with an arbitrary operator. The operator
// is emitted as-is.
type Compare struct {
	Field string
	Op    string
	Value any
}

// Combinator joins sub-conditions.
type Combinator string

const (
	OpAnd Combinator = "AND"
	OpOr  Combinator = "OR"
	OpNot Combinator = "NOT"
)

// Combine applies a combinator to its terms. NOT takes exactly one term,
// AND and OR at least one.
type Combine struct {
	Op    Combinator
	Terms []Condition
}

// Field is one equality pair of a Fields condition.
type Field struct {
	Name  string
	Value any
}

// Fields is a list of equality pairs joined by AND. An empty list matches
// nothing.
type Fields []Field

func (Raw) condition()      {}
func (Bool) condition()     {}
func (Fragment) condition() {}
func (Equals) condition()   {}
func (Compare) condition()  {}
func (Combine) condition()  {}
func (Fields) condition()   {}

func Eq(field string, value any) Equals       { return Equals{Field: field, Value: value} }
func Cmp(field, op string, value any) Compare { return Compare{Field: field, Op: op, Value: value} }
func And(terms ...Condition) Combine          { return Combine{Op: OpAnd, Terms: terms} }
func Or(terms ...Condition) Combine           { return Combine{Op: OpOr, Terms: terms} }
func Not(term Condition) Combine              { return Combine{Op: OpNot, Terms: []Condition{term}} }
