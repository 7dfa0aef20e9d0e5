// Package entity holds the structural model of an analyzed project:
// files, classes, methods and fields, plus the mutable annotation state
// written back by the description pass.
package entity

import "sort"

// Kind discriminates class-like entities.
type Kind string

const (
	KindClass Kind = "class"
	KindEnum  Kind = "enum"
)

// File represents one parsed source unit. It exclusively owns its
// top-level classes. Immutable after build except for the description
// merge pass writing into the owned classes.
type File struct {
	UFID    string   `json:"ufid"` // file id as given by the traversal layer
	Package string   `json:"package"`
	Imports []string `json:"imports"` // in source order
	Classes []*Class `json:"classes"`
}

// Class represents a class or enum declaration. A Class exclusively owns
// its methods, fields and nested classes.
type Class struct {
	UCID       string   `json:"ucid"` // dot-scoped: package + enclosing chain + identifier
	Identifier string   `json:"identifier"`
	Kind       Kind     `json:"kind"`
	Signature  string   `json:"signature"`
	Body       string   `json:"-"`
	Superclass string   `json:"superclass,omitempty"`
	Interfaces []string `json:"interfaces,omitempty"`
	TypeParams []string `json:"type_parameters,omitempty"`
	Constants  []string `json:"constants,omitempty"` // enum constants, declaration order

	Methods map[string]*Method `json:"methods"` // keyed by umid
	Fields  map[string]*Field  `json:"fields"`  // keyed by identifier
	Nested  map[string]*Class  `json:"nested"`  // keyed by ucid

	// Annotation state, written by the description pass.
	Description string `json:"description,omitempty"`
	Confidence  int    `json:"confidence,omitempty"`
	AnnotateErr string `json:"annotate_error,omitempty"` // error marker when the generation call failed
}

// NewClass initializes the member maps so callers never see nil maps.
func NewClass(ucid, identifier string, kind Kind) *Class {
	return &Class{
		UCID:       ucid,
		Identifier: identifier,
		Kind:       kind,
		Methods:    make(map[string]*Method),
		Fields:     make(map[string]*Field),
		Nested:     make(map[string]*Class),
	}
}

// SortedMethods returns the class's methods ordered by source line.
// Map iteration order is unspecified; every pass that needs a stable
// method enumeration (payload indexing, dumps) goes through this.
func (c *Class) SortedMethods() []*Method {
	out := make([]*Method, 0, len(c.Methods))
	for _, m := range c.Methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].UMID < out[j].UMID
	})
	return out
}

// SortedFields returns fields ordered by identifier.
func (c *Class) SortedFields() []*Field {
	out := make([]*Field, 0, len(c.Fields))
	for _, f := range c.Fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

// SortedNested returns nested classes ordered by ucid.
func (c *Class) SortedNested() []*Class {
	out := make([]*Class, 0, len(c.Nested))
	for _, n := range c.Nested {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UCID < out[j].UCID })
	return out
}

// Dependency is one resolved call-graph edge from a method to another
// registered method. Ambiguous marks edges where the arity filter could
// not narrow an overload set to a single candidate; downstream consumers
// treat those with lower confidence.
type Dependency struct {
	Target    *Method `json:"-"`
	TargetID  string  `json:"target"`
	Tier      string  `json:"tier"` // "local", "import" or "global"
	Ambiguous bool    `json:"ambiguous,omitempty"`
}

// RawDep is a deduplicated call-site extracted from a method body:
// the bare callee identifier plus the apparent argument count.
type RawDep struct {
	Name string `json:"name"`
	Argc int    `json:"argc"`
}

// Method represents a method or constructor. Constructors carry the
// identifier "<init>" and the enclosing class id as return type.
type Method struct {
	UMID       string   `json:"umid"`      // <ucid>#<identifier>(<param-type-list>)
	ScopedID   string   `json:"scoped_id"` // <ucid>.<identifier>, groups overloads
	ClassUCID  string   `json:"class_ucid"`
	Identifier string   `json:"identifier"`
	ReturnType string   `json:"return_type"`
	Parameters []string `json:"parameters"` // verbatim parameter text, in order
	ParamTypes []string `json:"-"`          // types only, feeds the umid
	Arity      int      `json:"arity"`
	Signature  string   `json:"signature"`
	Body       string   `json:"-"`
	BodyHash   string   `json:"body_hash"` // hash of the whitespace-normalized body
	Line       int      `json:"line"`

	RawDeps      []RawDep     `json:"-"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	Unresolved   []string     `json:"unresolved,omitempty"`

	// Annotation state.
	Description string `json:"description,omitempty"`
	Confidence  int    `json:"confidence,omitempty"`
}

// DependsOn reports whether the method has a resolved edge to the given umid.
func (m *Method) DependsOn(umid string) bool {
	for _, d := range m.Dependencies {
		if d.TargetID == umid {
			return true
		}
	}
	return false
}

// Field represents a class field. Multi-declarator statements collapse to
// the first declared name; the remaining declarators are not modeled.
type Field struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"` // <ucid>.<identifier>
	Type       string `json:"type"`
	Signature  string `json:"signature"`
	Value      string `json:"value,omitempty"` // initializer text, if any
}
