package cohesion

import (
	"encoding/json"
	"maps"
	"slices"
)

// set is an unordered collection of names.
type set map[string]struct{}

func (s set) add(name string) { s[name] = struct{}{} }

func (s set) has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s set) sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

func setOf(names []string) set {
	s := make(set, len(names))
	for _, n := range names {
		s.add(n)
	}
	return s
}

// ClassFacts accumulates what the visitor learns about one class.
// Entries are keyed by simple name, so nested or same-named classes in
// different scopes share a single entry.
type ClassFacts struct {
	Name   string
	Parent string // first extends type, empty when none
	Path   string
	Line   int

	fields         set
	methods        set
	accessedFields map[string]set // method -> fields read or written
	coupled        set
	invoked        set
	children       []string
}

// NewClassFacts creates an empty entry for a class.
func NewClassFacts(name string) *ClassFacts {
	return &ClassFacts{
		Name:           name,
		fields:         make(set),
		methods:        make(set),
		accessedFields: make(map[string]set),
		coupled:        make(set),
		invoked:        make(set),
	}
}

// AddField registers a field name.
func (f *ClassFacts) AddField(name string) { f.fields.add(name) }

// AddMethod registers a declared method name.
func (f *ClassFacts) AddMethod(name string) { f.methods.add(name) }

// AddAccessedField records that method touches field.
func (f *ClassFacts) AddAccessedField(method, field string) {
	s, ok := f.accessedFields[method]
	if !ok {
		s = make(set)
		f.accessedFields[method] = s
	}
	s.add(field)
}

// AddCoupledClass records an already normalized coupled type name.
func (f *ClassFacts) AddCoupledClass(name string) { f.coupled.add(name) }

// AddInvokedMethod records a call-target name.
func (f *ClassFacts) AddInvokedMethod(name string) { f.invoked.add(name) }

// HasField reports whether name is a known field.
func (f *ClassFacts) HasField(name string) bool { return f.fields.has(name) }

// CouplesTo reports whether name is among the coupled classes.
func (f *ClassFacts) CouplesTo(name string) bool { return f.coupled.has(name) }

// FieldNames returns the fields in sorted order.
func (f *ClassFacts) FieldNames() []string { return f.fields.sorted() }

// MethodNames returns the declared methods in sorted order.
func (f *ClassFacts) MethodNames() []string { return f.methods.sorted() }

// CoupledClassNames returns the coupled classes in sorted order.
func (f *ClassFacts) CoupledClassNames() []string { return f.coupled.sorted() }

// InvokedMethodNames returns the call targets in sorted order.
func (f *ClassFacts) InvokedMethodNames() []string { return f.invoked.sorted() }

// AccessedFields returns the fields a method touches, sorted.
// Methods that touch no field yield nil.
func (f *ClassFacts) AccessedFields(method string) []string {
	s, ok := f.accessedFields[method]
	if !ok {
		return nil
	}
	return s.sorted()
}

// Children returns the registered direct subclasses, sorted.
func (f *ClassFacts) Children() []string { return slices.Clone(f.children) }

// classFactsJSON is the serialized form of ClassFacts.
type classFactsJSON struct {
	Name           string              `json:"name"`
	Parent         string              `json:"parent,omitempty"`
	Path           string              `json:"path,omitempty"`
	Line           int                 `json:"line,omitempty"`
	Fields         []string            `json:"fields,omitempty"`
	Methods        []string            `json:"methods,omitempty"`
	AccessedFields map[string][]string `json:"accessed_fields,omitempty"`
	Coupled        []string            `json:"coupled,omitempty"`
	Invoked        []string            `json:"invoked,omitempty"`
	Children       []string            `json:"children,omitempty"`
}

// MarshalJSON encodes the facts with sorted name lists.
func (f *ClassFacts) MarshalJSON() ([]byte, error) {
	out := classFactsJSON{
		Name:     f.Name,
		Parent:   f.Parent,
		Path:     f.Path,
		Line:     f.Line,
		Fields:   f.FieldNames(),
		Methods:  f.MethodNames(),
		Coupled:  f.CoupledClassNames(),
		Invoked:  f.InvokedMethodNames(),
		Children: f.children,
	}
	if len(f.accessedFields) > 0 {
		out.AccessedFields = make(map[string][]string, len(f.accessedFields))
		for m, s := range f.accessedFields {
			out.AccessedFields[m] = s.sorted()
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes facts written by MarshalJSON.
func (f *ClassFacts) UnmarshalJSON(data []byte) error {
	var in classFactsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*f = *NewClassFacts(in.Name)
	f.Parent = in.Parent
	f.Path = in.Path
	f.Line = in.Line
	f.fields = setOf(in.Fields)
	f.methods = setOf(in.Methods)
	f.coupled = setOf(in.Coupled)
	f.invoked = setOf(in.Invoked)
	f.children = in.Children
	for m, fields := range in.AccessedFields {
		f.accessedFields[m] = setOf(fields)
	}
	return nil
}

// Registry maps simple class names to their facts.
type Registry map[string]*ClassFacts

// Names returns the registered class names in sorted order.
func (r Registry) Names() []string {
	return slices.Sorted(maps.Keys(r))
}

// getOrCreate returns the entry for name, creating it when absent.
func (r Registry) getOrCreate(name string) *ClassFacts {
	f, ok := r[name]
	if !ok {
		f = NewClassFacts(name)
		r[name] = f
	}
	return f
}

// finalize recomputes parent to child edges from scratch. Only parents that
// are themselves registered receive children.
func (r Registry) finalize() {
	for _, f := range r {
		f.children = nil
	}
	for _, name := range r.Names() {
		if r[name].Parent == "" {
			continue
		}
		if parent, ok := r[r[name].Parent]; ok {
			parent.children = append(parent.children, name)
		}
	}
}
