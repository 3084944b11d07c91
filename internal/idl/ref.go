package idl

import "fmt"

// TypeRef is a deferred reference to a type. References are built while
// loading declarations and resolved against the finished graph, so a
// declaration may use a type declared later in the same or another file.
type TypeRef interface {
	// Resolve looks the referenced type up from the given context and fails
	// with TypeNotFoundError when nothing matches.
	Resolve(ctx *Definition) (*Definition, error)

	// resolveIn performs the lookup. When scoped is true only the context
	// itself is searched, otherwise enclosing scopes are searched too.
	resolveIn(ctx *Definition, scoped bool) (*Definition, error)

	Loc() Location
	String() string
}

func resolveRef(r TypeRef, ctx *Definition) (*Definition, error) {
	t, err := r.resolveIn(ctx, false)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &TypeNotFoundError{Ref: r, Location: r.Loc()}
	}
	return t, nil
}

// NameRef references a type by bare name, resolved with lexical scoping.
type NameRef struct {
	Location Location
	Name     string
}

func (r *NameRef) Resolve(ctx *Definition) (*Definition, error) { return resolveRef(r, ctx) }

func (r *NameRef) resolveIn(ctx *Definition, scoped bool) (*Definition, error) {
	if scoped {
		return ctx.LookUpType(r.Name)
	}
	return ctx.LookUpTypeRecursive(r.Name)
}

func (r *NameRef) Loc() Location  { return r.Location }
func (r *NameRef) String() string { return r.Name }

// ScopedRef references a type inside a named scope, 'Scope::Ref'.
type ScopedRef struct {
	Location Location
	Scope    string
	Ref      TypeRef
}

func (r *ScopedRef) Resolve(ctx *Definition) (*Definition, error) { return resolveRef(r, ctx) }

func (r *ScopedRef) resolveIn(ctx *Definition, scoped bool) (*Definition, error) {
	var scopes []*Definition
	var err error
	if scoped {
		scopes, err = ctx.FindScopes(r.Scope)
	} else {
		scopes, err = ctx.FindScopesRecursive(r.Scope)
	}
	if err != nil {
		return nil, err
	}
	for _, scope := range scopes {
		t, err := r.Ref.resolveIn(scope, true)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
	}
	return nil, nil
}

func (r *ScopedRef) Loc() Location  { return r.Location }
func (r *ScopedRef) String() string { return fmt.Sprintf("%s::%s", r.Scope, r.Ref) }

// ArrayRef references an array of another referenced type, 'Ref[]' or
// 'Ref[size]'.
type ArrayRef struct {
	Location Location
	Ref      TypeRef
	Size     int // UnsizedArray when no size was declared
}

func (r *ArrayRef) Resolve(ctx *Definition) (*Definition, error) { return resolveRef(r, ctx) }

func (r *ArrayRef) resolveIn(ctx *Definition, scoped bool) (*Definition, error) {
	t, err := r.Ref.resolveIn(ctx, scoped)
	if err != nil || t == nil {
		return nil, err
	}
	return t.ArrayType(r.Size)
}

func (r *ArrayRef) Loc() Location { return r.Location }
func (r *ArrayRef) String() string {
	if r.Size == UnsizedArray {
		return fmt.Sprintf("%s[]", r.Ref)
	}
	return fmt.Sprintf("%s[%d]", r.Ref, r.Size)
}

// QualifiedRef references a type through a qualifier. 'nullable' wraps the
// type; other qualifiers (const, volatile) resolve to the type unchanged.
type QualifiedRef struct {
	Location  Location
	Qualifier string
	Ref       TypeRef
}

func (r *QualifiedRef) Resolve(ctx *Definition) (*Definition, error) { return resolveRef(r, ctx) }

func (r *QualifiedRef) resolveIn(ctx *Definition, scoped bool) (*Definition, error) {
	t, err := r.Ref.resolveIn(ctx, scoped)
	if err != nil || t == nil {
		return nil, err
	}
	if r.Qualifier == "nullable" {
		return t.NullableType(), nil
	}
	return t, nil
}

func (r *QualifiedRef) Loc() Location  { return r.Location }
func (r *QualifiedRef) String() string { return fmt.Sprintf("%s %s", r.Qualifier, r.Ref) }
