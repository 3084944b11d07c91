package binding

import (
	"fmt"

	"github.com/crander/idlglue/internal/idl"
)

// nullableModel wraps another model for types qualified as nullable. The
// representation is whatever the wrapped type's pointer form is; a host null
// or undefined short-circuits to NULL without consulting the element model.
//
// Only pointer-shaped element models make sense here, which in practice means
// by_pointer classes and callbacks.
type nullableModel struct {
	invalid
}

func newNullableModel() Model { return &nullableModel{invalid{name: "nullable"}} }

func (m *nullableModel) delegate(t *idl.Definition) (Model, *idl.Definition, error) {
	elem := t.Elem
	em, err := Of(elem)
	if err != nil {
		return nil, nil, err
	}
	return em, elem, nil
}

func (m *nullableModel) CppTypedefString(scope, t *idl.Definition) (string, bool, error) {
	em, elem, err := m.delegate(t)
	if err != nil {
		return "", false, err
	}
	return em.CppTypedefString(scope, elem)
}

func (m *nullableModel) CppMemberString(scope, t *idl.Definition) (string, bool, error) {
	em, elem, err := m.delegate(t)
	if err != nil {
		return "", false, err
	}
	return em.CppMemberString(scope, elem)
}

func (m *nullableModel) CppReturnValueString(scope, t *idl.Definition) (string, bool, error) {
	em, elem, err := m.delegate(t)
	if err != nil {
		return "", false, err
	}
	return em.CppReturnValueString(scope, elem)
}

func (m *nullableModel) CppParameterString(scope, t *idl.Definition) (string, bool, error) {
	em, elem, err := m.delegate(t)
	if err != nil {
		return "", false, err
	}
	return em.CppParameterString(scope, elem)
}

func (m *nullableModel) CppMutableParameterString(scope, t *idl.Definition) (string, bool, error) {
	em, elem, err := m.delegate(t)
	if err != nil {
		return "", false, err
	}
	return em.CppMutableParameterString(scope, elem)
}

func (m *nullableModel) CppMutableToNonMutable(scope, t *idl.Definition, expr string) string {
	em, elem, err := m.delegate(t)
	if err != nil {
		return m.invalid.CppMutableToNonMutable(scope, t, expr)
	}
	return em.CppMutableToNonMutable(scope, elem, expr)
}

func (m *nullableModel) NpapiFromNPVariant(scope, t *idl.Definition, args FromArgs) (string, string, error) {
	em, elem, err := m.delegate(t)
	if err != nil {
		return "", "", err
	}
	code, expr, err := em.NpapiFromNPVariant(scope, elem, args)
	if err != nil {
		return "", "", err
	}
	rep, _, err := em.CppMemberString(scope, elem)
	if err != nil {
		return "", "", err
	}
	text := fmt.Sprintf(`%s %s_nullable = NULL;
if (!NPVARIANT_IS_NULL(%s) && !NPVARIANT_IS_VOID(%s)) {
%s  %s_nullable = %s;
}
`, rep, args.Variable, args.Input, args.Input,
		indentLines(code, "  ")+"\n", args.Variable, expr)
	return text, args.Variable + "_nullable", nil
}

func (m *nullableModel) NpapiExprToNPVariant(scope, t *idl.Definition, args ToArgs) (string, string, error) {
	em, elem, err := m.delegate(t)
	if err != nil {
		return "", "", err
	}
	pre, post, err := em.NpapiExprToNPVariant(scope, elem, args)
	if err != nil {
		return "", "", err
	}
	wrappedPre := fmt.Sprintf(`bool %s_is_null = !(%s);
if (!%s_is_null) {
%s
}`, args.Variable, args.Expression, args.Variable, indentLines(pre, "  "))
	wrappedPost := fmt.Sprintf(`if (%s_is_null) {
  NULL_TO_NPVARIANT(*%s);
} else {
%s
}`, args.Variable, args.Output, indentLines(post, "  "))
	return wrappedPre, wrappedPost, nil
}
