package binding

import (
	"fmt"

	"github.com/crander/idlglue/internal/cpputil"
	"github.com/crander/idlglue/internal/idl"
)

// enumModel is the binding model for enum types. Values are integer-tagged
// variants on the host side, range-checked against the declared values when
// marshaling in.
type enumModel struct {
	invalid
}

func newEnumModel() Model { return &enumModel{invalid{name: "enum"}} }

func (m *enumModel) CppTypedefString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *enumModel) CppMemberString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *enumModel) CppReturnValueString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *enumModel) CppParameterString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *enumModel) CppMutableParameterString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t) + "*", true, nil
}

var enumFromVariant = mustTmpl("enumFromVariant", `{{.Type}} {{.Variable}} = {{.First}};
if (NPVARIANT_IS_NUMBER({{.Input}})) {
  {{.Variable}} = ({{.Type}})(int)NPVARIANT_TO_NUMBER({{.Input}});
  if ({{.Variable}} < {{.First}} || {{.Variable}} > {{.Last}}) {
    *error_handle = "Error in " {{.Context}} ": value out of range.";
    {{.Success}} = false;
  }
} else {
  *error_handle = "Error in " {{.Context}} ": was expecting a number.";
  {{.Success}} = false;
}
`)

func (m *enumModel) NpapiFromNPVariant(scope, t *idl.Definition, args FromArgs) (string, string, error) {
	final := t.FinalType()
	if final.Kind != idl.KindEnum || len(final.Values) == 0 {
		return "", "", m.err("NpapiFromNPVariant on non-enum or empty enum")
	}
	prefix := cpputil.ScopePrefix(scope, final)
	text := render(enumFromVariant, map[string]string{
		"Type":     cpputil.ScopedName(scope, t),
		"Variable": args.Variable,
		"First":    prefix + final.Values[0].Name,
		"Last":     prefix + final.Values[len(final.Values)-1].Name,
		"Input":    args.Input,
		"Success":  args.Success,
		"Context":  args.ErrorContext,
	})
	return text, args.Variable, nil
}

func (m *enumModel) NpapiExprToNPVariant(scope, t *idl.Definition, args ToArgs) (string, string, error) {
	return fmt.Sprintf("%s %s = %s;", cpputil.ScopedName(scope, t), args.Variable, args.Expression),
		fmt.Sprintf("INT32_TO_NPVARIANT(%s, *%s);", args.Variable, args.Output), nil
}
