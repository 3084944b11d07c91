package idl

import "sort"

// NewGlobalNamespace wraps the top-level definitions from every input file
// into the single unnamed root namespace.
func NewGlobalNamespace(members []*Definition) *Definition {
	return NewNamespace(Location{}, nil, "", members)
}

// Finalize prepares a freshly built graph for generation:
//   - namespace fragments with the same name in the same outer scope are
//     merged for lookup purposes,
//   - every type reference is resolved,
//   - every type gets its binding model assigned.
//
// After a nil return the graph is read-only.
func Finalize(global *Definition, models ModelTable) error {
	mergeNamespacesRecursive(global)
	all := global.ObjectsRecursive()
	for _, d := range all {
		if err := d.resolveRefs(); err != nil {
			return err
		}
	}
	for _, d := range all {
		if !d.IsType() {
			continue
		}
		if err := d.setBindingModel(models); err != nil {
			return err
		}
	}
	for _, d := range all {
		if d.Kind != KindClass {
			continue
		}
		if err := d.checkClassInvariants(); err != nil {
			return err
		}
	}
	return nil
}

// mergeNamespacesRecursive merges the lookup scopes of same-named namespace
// fragments within one outer scope. The fragment Definitions stay distinct;
// only their scope becomes shared.
func mergeNamespacesRecursive(ns *Definition) {
	seen := map[string]*Definition{}
	for _, d := range ns.scope.list {
		if d.Kind != KindNamespace {
			continue
		}
		if first, ok := seen[d.Name]; ok {
			first.scope.merge(d)
		} else {
			seen[d.Name] = d
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mergeNamespacesRecursive(seen[name])
	}
}

// resolveRefs resolves the type references held by this definition. Classes
// and typedefs guard against re-entry so that on-demand resolution during
// lookup stays cheap and cycle detection terminates.
func (d *Definition) resolveRefs() error {
	switch d.Kind {
	case KindClass:
		if d.resolved {
			return nil
		}
		d.resolved = true
		if d.BaseRef == nil {
			return nil
		}
		base, err := d.BaseRef.Resolve(d.Parent)
		if err != nil {
			return err
		}
		if err := checkTypeInChain(d, base); err != nil {
			return err
		}
		d.Base = base
		if base.FinalType().Kind != KindClass {
			return &DerivingFromNonClassError{Class: d, Base: base}
		}
		return nil

	case KindTypedef:
		if d.resolved {
			return nil
		}
		d.resolved = true
		target, err := d.Ref.Resolve(d.Parent)
		if err != nil {
			return err
		}
		if err := checkTypeInChain(d, target); err != nil {
			return err
		}
		d.Type = target
		return nil

	case KindFunction, KindCallback:
		if d.Ref == nil {
			if d.Kind == KindCallback || (!d.IsConstructor() && !d.IsDestructor()) {
				return &MethodWithoutReturnTypeError{Function: d}
			}
		} else {
			t, err := d.Ref.Resolve(d.Parent)
			if err != nil {
				return err
			}
			d.Type = t
		}
		for _, p := range d.Params {
			t, err := p.Ref.Resolve(d.Parent)
			if err != nil {
				return err
			}
			p.Type = t
		}
		return nil

	case KindVariable:
		t, err := d.Ref.Resolve(d.Parent)
		if err != nil {
			return err
		}
		d.Type = t
		return nil

	case KindNamespace, KindEnum, KindTypename, KindVerbatim, KindArray, KindNullable:
		return nil
	}
	return nil
}

// checkTypeInChain walks typedef targets, base classes and array elements
// from chainHead looking for typeDefn. Finding it means the graph has a cycle.
func checkTypeInChain(typeDefn, chainHead *Definition) error {
	for cur := chainHead; cur != nil; {
		if cur == typeDefn {
			return &CircularTypeChainError{Type: typeDefn, Chain: cur}
		}
		switch cur.Kind {
		case KindTypedef:
			// Read the raw field: resolving here would recurse into the
			// very cycle being checked. An unresolved link is fine, the
			// cycle shows up when that typedef resolves.
			cur = cur.Type
		case KindClass:
			cur = cur.Base
		case KindArray:
			cur = cur.Elem
		default:
			return nil
		}
	}
	return nil
}

// bindingModelName determines the binding model name for a type, following
// attribute overrides and the per-kind defaults. ok is false for opaque
// typenames that stay modelless.
func (d *Definition) bindingModelName() (string, bool, error) {
	if name, has := d.Attributes["binding_model"]; has {
		return name, true, nil
	}
	switch d.Kind {
	case KindClass:
		base, err := d.BaseSafe()
		if err != nil {
			return "", false, err
		}
		if base != nil {
			return base.bindingModelName()
		}
		return "by_pointer", true, nil
	case KindEnum:
		return "enum", true, nil
	case KindCallback:
		return "callback", true, nil
	case KindTypedef:
		target, err := d.TargetSafe()
		if err != nil {
			return "", false, err
		}
		return target.bindingModelName()
	case KindTypename:
		if d.HasAttr("podtype") {
			return "pod", true, nil
		}
		return "", false, nil
	case KindArray:
		if d.Size == UnsizedArray {
			return "unsized_array", true, nil
		}
		return "sized_array", true, nil
	case KindNullable:
		return "nullable", true, nil
	}
	return "", false, nil
}

func (d *Definition) setBindingModel(models ModelTable) error {
	sizes := make([]int, 0, len(d.arrays))
	for size := range d.arrays {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	for _, size := range sizes {
		if err := d.arrays[size].setBindingModel(models); err != nil {
			return err
		}
	}
	if d.nullable != nil && d.nullable != d {
		if err := d.nullable.setBindingModel(models); err != nil {
			return err
		}
	}
	name, ok, err := d.bindingModelName()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	model, found := models.Model(name)
	if !found {
		return &UnknownBindingModelError{Name: name, Type: d}
	}
	d.Binding = model
	return nil
}

// checkClassInvariants enforces the graph-level class rules that would
// otherwise surface as broken generated code: base chains must agree on a
// binding model, and marshaled properties must exist.
func (d *Definition) checkClassInvariants() error {
	if d.Base != nil && d.Binding != nil && d.Base.Binding != nil {
		if d.Binding.BindingName() != d.Base.Binding.BindingName() {
			return &BindingModelMismatchError{
				Class:     d,
				Model:     d.Binding.BindingName(),
				BaseModel: d.Base.Binding.BindingName(),
			}
		}
	}
	if prop, has := d.Attributes["marshaled"]; has {
		found := false
		for _, m := range d.Members {
			if m.Name == prop && (m.Kind == KindVariable || m.Kind == KindFunction) {
				found = true
				break
			}
		}
		if !found {
			return &MissingMarshaledPropertyError{Class: d, Property: prop}
		}
	}
	return nil
}
