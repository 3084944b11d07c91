package idl

import "fmt"

// TypeNotFoundError reports a type reference that resolved to nothing.
type TypeNotFoundError struct {
	Ref      TypeRef
	Location Location
}

func (e *TypeNotFoundError) Error() string {
	return fmt.Sprintf("%s: type %q not found", e.Location, e.Ref)
}

// CircularTypeChainError reports a cycle through typedef, base class or array
// element chains.
type CircularTypeChainError struct {
	Type  *Definition
	Chain *Definition
}

func (e *CircularTypeChainError) Error() string {
	return fmt.Sprintf("%s: circular type chain between %q and %q",
		e.Type.Source, e.Type.Name, e.Chain.Name)
}

// DerivingFromNonClassError reports a class whose base resolves to a
// non-class type.
type DerivingFromNonClassError struct {
	Class *Definition
	Base  *Definition
}

func (e *DerivingFromNonClassError) Error() string {
	return fmt.Sprintf("%s: class %q derives from non-class %q",
		e.Class.Source, e.Class.Name, e.Base.Name)
}

// ArrayOfNonTypeError reports an array reference to something that is not a
// type.
type ArrayOfNonTypeError struct {
	Elem *Definition
	Size int
}

func (e *ArrayOfNonTypeError) Error() string {
	return fmt.Sprintf("%s: array of non-type %q", e.Elem.Source, e.Elem.Name)
}

// UnknownBindingModelError reports a type whose binding model name is not
// registered.
type UnknownBindingModelError struct {
	Name string
	Type *Definition
}

func (e *UnknownBindingModelError) Error() string {
	return fmt.Sprintf("%s: unknown binding model %q for type %q",
		e.Type.Source, e.Name, e.Type.Name)
}

// MethodWithoutReturnTypeError reports a function with no return type that is
// neither a constructor nor a destructor. Callbacks always need a return
// type, since their glue declares a Run method with it.
type MethodWithoutReturnTypeError struct {
	Function *Definition
}

func (e *MethodWithoutReturnTypeError) Error() string {
	return fmt.Sprintf("%s: method %q has no return type",
		e.Function.Source, e.Function.Name)
}

// BindingModelMismatchError reports a class whose binding model differs from
// its base class's. Mixing models across an inheritance chain would generate
// glue that mis-casts the native object, so the graph is rejected.
type BindingModelMismatchError struct {
	Class     *Definition
	Model     string
	BaseModel string
}

func (e *BindingModelMismatchError) Error() string {
	return fmt.Sprintf("%s: class %q uses binding model %q but its base uses %q",
		e.Class.Source, e.Class.Name, e.Model, e.BaseModel)
}

// MissingMarshaledPropertyError reports a by_value class whose 'marshaled'
// attribute names a member that does not exist.
type MissingMarshaledPropertyError struct {
	Class    *Definition
	Property string
}

func (e *MissingMarshaledPropertyError) Error() string {
	return fmt.Sprintf("%s: class %q declares marshaled property %q but has no such member",
		e.Class.Source, e.Class.Name, e.Property)
}
