// Package idl holds the typed definition graph built from parsed IDL
// declarations, and the finalization pass that resolves type references and
// assigns binding models.
package idl

// Kind enumerates the closed set of definition variants. Consumers switch
// exhaustively on it; adding a kind means visiting every switch.
type Kind int

const (
	KindNamespace Kind = iota
	KindClass
	KindFunction
	KindVariable
	KindEnum
	KindTypedef
	KindTypename
	KindCallback
	KindVerbatim
	KindArray
	KindNullable
)

var kindNames = map[Kind]string{
	KindNamespace: "Namespace",
	KindClass:     "Class",
	KindFunction:  "Function",
	KindVariable:  "Variable",
	KindEnum:      "Enum",
	KindTypedef:   "Typedef",
	KindTypename:  "Typename",
	KindCallback:  "Callback",
	KindVerbatim:  "Verbatim",
	KindArray:     "Array",
	KindNullable:  "Nullable",
}

func (k Kind) String() string { return kindNames[k] }

// UnsizedArray is the Size of an array definition with no declared size.
const UnsizedArray = -1

// BindingModel is the slice of a binding model the graph needs to know about.
// The concrete models live in the binding package; the finalizer only caches
// them on type definitions.
type BindingModel interface {
	BindingName() string
}

// ModelTable resolves binding model names during finalization.
type ModelTable interface {
	Model(name string) (BindingModel, bool)
}

// EnumValue is one value of an Enum definition.
type EnumValue struct {
	Name     string
	Value    string // explicit value, only meaningful when HasValue
	HasValue bool
}

// Param is one function or callback parameter.
type Param struct {
	Name    string
	Ref     TypeRef
	Type    *Definition // resolved during finalization
	Mutable bool        // set by generators for mutable 'this' parameters
}

// Definition is a node in the declaration graph. A single struct carries all
// variants; the Kind field says which of the variant fields are meaningful.
//
// Children are owned by their lexical parent; Type, Base and Param.Type are
// non-owning back-references filled in by the finalizer.
type Definition struct {
	Kind       Kind
	Name       string
	Source     Location
	Attributes map[string]string
	Parent     *Definition

	// Namespace, Class
	Members []*Definition
	scope   *lookUpScope

	// Class
	BaseRef TypeRef
	Base    *Definition

	// Function and Callback return type, Variable type, Typedef target.
	// A nil Ref on a Function marks a constructor or destructor.
	Ref  TypeRef
	Type *Definition

	// Function, Callback
	Params []*Param

	// Enum
	Values []EnumValue

	// Verbatim
	Text string

	// Array, Nullable
	Elem *Definition
	Size int

	// Binding is the model assigned by the finalizer; nil until then, and
	// nil forever for opaque typenames with no declared model.
	Binding BindingModel

	arrays   map[int]*Definition
	nullable *Definition
	resolved bool
}

func newDefinition(kind Kind, source Location, attrs map[string]string, name string) *Definition {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &Definition{Kind: kind, Name: name, Source: source, Attributes: attrs}
}

// NewNamespace builds a namespace fragment owning the given members.
func NewNamespace(source Location, attrs map[string]string, name string, members []*Definition) *Definition {
	d := newDefinition(KindNamespace, source, attrs, name)
	d.adopt(members)
	return d
}

// NewClass builds a class. baseRef may be nil for root classes.
func NewClass(source Location, attrs map[string]string, name string, baseRef TypeRef, members []*Definition) *Definition {
	d := newDefinition(KindClass, source, attrs, name)
	d.BaseRef = baseRef
	d.adopt(members)
	return d
}

// NewFunction builds a function or method. ret is nil for constructors and
// destructors.
func NewFunction(source Location, attrs map[string]string, name string, ret TypeRef, params []*Param) *Definition {
	d := newDefinition(KindFunction, source, attrs, name)
	d.Ref = ret
	d.Params = params
	return d
}

// NewCallback builds a callback type.
func NewCallback(source Location, attrs map[string]string, name string, ret TypeRef, params []*Param) *Definition {
	d := newDefinition(KindCallback, source, attrs, name)
	d.Ref = ret
	d.Params = params
	return d
}

// NewVariable builds a member field or global variable.
func NewVariable(source Location, attrs map[string]string, name string, ref TypeRef) *Definition {
	d := newDefinition(KindVariable, source, attrs, name)
	d.Ref = ref
	return d
}

// NewEnum builds an enum type.
func NewEnum(source Location, attrs map[string]string, name string, values []EnumValue) *Definition {
	d := newDefinition(KindEnum, source, attrs, name)
	d.Values = values
	return d
}

// NewTypedef builds a type alias.
func NewTypedef(source Location, attrs map[string]string, name string, ref TypeRef) *Definition {
	d := newDefinition(KindTypedef, source, attrs, name)
	d.Ref = ref
	return d
}

// NewTypename builds an opaque type declaration.
func NewTypename(source Location, attrs map[string]string, name string) *Definition {
	return newDefinition(KindTypename, source, attrs, name)
}

// NewVerbatim builds a raw text block to be injected into generated output.
func NewVerbatim(source Location, attrs map[string]string, text string) *Definition {
	d := newDefinition(KindVerbatim, source, attrs, "")
	d.Text = text
	return d
}

func (d *Definition) adopt(members []*Definition) {
	d.Members = members
	d.scope = newLookUpScope(members)
	for _, m := range members {
		m.Parent = d
	}
}

// IsType reports whether this definition can be referenced as a type.
func (d *Definition) IsType() bool {
	switch d.Kind {
	case KindClass, KindEnum, KindTypedef, KindTypename, KindCallback, KindArray, KindNullable:
		return true
	case KindNamespace, KindFunction, KindVariable, KindVerbatim:
		return false
	}
	return false
}

// IsScope reports whether this definition can contain named scopes.
func (d *Definition) IsScope() bool {
	switch d.Kind {
	case KindNamespace, KindClass, KindTypedef:
		return true
	case KindFunction, KindVariable, KindEnum, KindTypename, KindCallback, KindVerbatim, KindArray, KindNullable:
		return false
	}
	return false
}

// Attr returns an attribute value. The empty string is a legal value, so use
// HasAttr to test presence.
func (d *Definition) Attr(name string) string { return d.Attributes[name] }

// HasAttr reports whether the attribute is present.
func (d *Definition) HasAttr(name string) bool {
	_, ok := d.Attributes[name]
	return ok
}

// ParentScopeStack returns the enclosing scopes, outermost first.
func (d *Definition) ParentScopeStack() []*Definition {
	var stack []*Definition
	for cur := d.Parent; cur != nil; cur = cur.Parent {
		stack = append([]*Definition{cur}, stack...)
	}
	return stack
}

// QualifiedName is the '::'-joined path from the global namespace, used as the
// stable identity for namespace fragments.
func (d *Definition) QualifiedName() string {
	name := d.Name
	for _, s := range d.ParentScopeStack() {
		if s.Name != "" {
			name = s.Name + "::" + name
		}
	}
	return name
}

// LookUpType finds a type by name in this definition only.
func (d *Definition) LookUpType(name string) (*Definition, error) {
	switch d.Kind {
	case KindNamespace:
		return d.scope.lookUpType(name), nil
	case KindClass:
		if t := d.scope.lookUpType(name); t != nil {
			return t, nil
		}
		base, err := d.BaseSafe()
		if err != nil || base == nil {
			return nil, err
		}
		return base.LookUpType(name)
	case KindTypedef:
		target, err := d.TargetSafe()
		if err != nil {
			return nil, err
		}
		return target.LookUpType(name)
	default:
		return nil, nil
	}
}

// LookUpTypeRecursive finds a type by name in this definition and all
// enclosing scopes, innermost first.
func (d *Definition) LookUpTypeRecursive(name string) (*Definition, error) {
	for ctx := d; ctx != nil; ctx = ctx.Parent {
		t, err := ctx.LookUpType(name)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
	}
	return nil, nil
}

// FindScopes finds all scopes with the given name in this definition only.
func (d *Definition) FindScopes(name string) ([]*Definition, error) {
	switch d.Kind {
	case KindNamespace:
		return d.scope.findScopes(name), nil
	case KindClass:
		scopes := d.scope.findScopes(name)
		base, err := d.BaseSafe()
		if err != nil {
			return nil, err
		}
		if base != nil {
			more, err := base.FindScopes(name)
			if err != nil {
				return nil, err
			}
			scopes = append(scopes, more...)
		}
		return scopes, nil
	case KindTypedef:
		target, err := d.TargetSafe()
		if err != nil {
			return nil, err
		}
		return target.FindScopes(name)
	default:
		return nil, nil
	}
}

// FindScopesRecursive finds all scopes with the given name in this definition
// and all enclosing scopes, in traversal order.
func (d *Definition) FindScopesRecursive(name string) ([]*Definition, error) {
	var scopes []*Definition
	for ctx := d; ctx != nil; ctx = ctx.Parent {
		more, err := ctx.FindScopes(name)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, more...)
	}
	return scopes, nil
}

// ArrayType returns the interned array definition of this type. Arrays of the
// same element type and size are shared.
func (d *Definition) ArrayType(size int) (*Definition, error) {
	if !d.IsType() {
		return nil, &ArrayOfNonTypeError{Elem: d, Size: size}
	}
	if d.arrays == nil {
		d.arrays = map[int]*Definition{}
	}
	if a, ok := d.arrays[size]; ok {
		return a, nil
	}
	a := newDefinition(KindArray, d.Source, nil, "")
	a.Elem = d
	a.Size = size
	a.Parent = d.Parent
	d.arrays[size] = a
	return a, nil
}

// NullableType returns the interned nullable wrapper of this type.
func (d *Definition) NullableType() *Definition {
	if d.Kind == KindNullable {
		return d
	}
	if d.nullable == nil {
		n := newDefinition(KindNullable, d.Source, nil, "")
		n.Elem = d
		n.Parent = d.Parent
		n.nullable = n
		d.nullable = n
	}
	return d.nullable
}

// FinalType follows typedef links to the underlying type.
func (d *Definition) FinalType() *Definition {
	if d.Kind == KindTypedef {
		if target, err := d.TargetSafe(); err == nil && target != nil {
			return target.FinalType()
		}
	}
	return d
}

// BaseSafe resolves the base class reference on demand and returns it.
func (d *Definition) BaseSafe() (*Definition, error) {
	if d.Kind != KindClass {
		return nil, nil
	}
	if err := d.resolveRefs(); err != nil {
		return nil, err
	}
	return d.Base, nil
}

// TargetSafe resolves a typedef's target on demand and returns it.
func (d *Definition) TargetSafe() (*Definition, error) {
	if err := d.resolveRefs(); err != nil {
		return nil, err
	}
	return d.Type, nil
}

// DefinitionInclude returns the header that carries the native definition for
// this type. The include attribute overrides the owning file's header.
func (d *Definition) DefinitionInclude() string {
	if inc, ok := d.Attributes["include"]; ok {
		return inc
	}
	if d.Source.File != nil {
		return d.Source.File.Header
	}
	return ""
}

// NamespaceKey returns an opaque comparable key identifying the logical
// namespace. Merged fragments of one namespace share it, so a generator can
// recognize a namespace it already saw under a different file.
func (d *Definition) NamespaceKey() any { return d.scope }

// ObjectsRecursive lists this definition and everything defined inside it,
// parents before children.
func (d *Definition) ObjectsRecursive() []*Definition {
	objs := []*Definition{d}
	switch d.Kind {
	case KindNamespace, KindClass:
		for _, m := range d.Members {
			objs = append(objs, m.ObjectsRecursive()...)
		}
	}
	return objs
}

// IsConstructor reports whether this function is a constructor of its owning
// class.
func (d *Definition) IsConstructor() bool {
	return d.Kind == KindFunction && d.Ref == nil &&
		d.Parent != nil && d.Parent.Kind == KindClass && d.Name == d.Parent.Name
}

// IsDestructor reports whether this function is a destructor entry. These are
// parsed but never emitted.
func (d *Definition) IsDestructor() bool {
	return d.Kind == KindFunction && len(d.Name) > 0 && d.Name[0] == '~'
}

// MakeGetter synthesizes the getter function for a field.
func (d *Definition) MakeGetter(attrs map[string]string, name string) (*Definition, error) {
	fn := NewFunction(d.Source, attrs, name, d.Ref, nil)
	fn.Parent = d.Parent
	if err := fn.resolveRefs(); err != nil {
		return nil, err
	}
	return fn, nil
}

// MakeSetter synthesizes the setter function for a field.
func (d *Definition) MakeSetter(attrs map[string]string, name string) (*Definition, error) {
	void := &NameRef{Location: d.Source, Name: "void"}
	fn := NewFunction(d.Source, attrs, name, void, []*Param{{Name: d.Name, Ref: d.Ref}})
	fn.Parent = d.Parent
	if err := fn.resolveRefs(); err != nil {
		return nil, err
	}
	return fn, nil
}

// lookUpScope indexes a definition list for type and scope lookup. Namespace
// fragments that merge share one lookUpScope.
type lookUpScope struct {
	list  []*Definition
	types map[string]*Definition
}

func newLookUpScope(list []*Definition) *lookUpScope {
	return &lookUpScope{list: list}
}

func (s *lookUpScope) resetCache() { s.types = nil }

func (s *lookUpScope) lookUpType(name string) *Definition {
	if s.types == nil {
		s.types = map[string]*Definition{}
		for _, d := range s.list {
			if d.IsType() {
				if _, dup := s.types[d.Name]; !dup {
					s.types[d.Name] = d
				}
			}
		}
	}
	return s.types[name]
}

func (s *lookUpScope) findScopes(name string) []*Definition {
	var scopes []*Definition
	for _, d := range s.list {
		if d.IsScope() && d.Name == name {
			scopes = append(scopes, d)
		}
	}
	return scopes
}

// merge folds another fragment's definitions into this scope and points the
// other fragment at the shared scope.
func (s *lookUpScope) merge(other *Definition) {
	s.resetCache()
	s.list = append(append([]*Definition{}, s.list...), other.scope.list...)
	other.scope = s
}
