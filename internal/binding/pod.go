package binding

import (
	"fmt"

	"github.com/crander/idlglue/internal/cpputil"
	"github.com/crander/idlglue/internal/idl"
)

// podModel is the binding model for POD types and strings (which are POD on
// the host side). 'void' is handled here too, legal only as a return value.
// Values are passed and returned by copy, strings by const reference, and are
// represented directly by variants at the host boundary.
type podModel struct {
	invalid
}

func newPodModel() Model { return &podModel{invalid{name: "pod"}} }

func podType(t *idl.Definition) string {
	return t.FinalType().Attr("podtype")
}

func (m *podModel) CppTypedefString(scope, t *idl.Definition) (string, bool, error) {
	if podType(t) == "void" {
		return "", false, &BadVoidUsageError{Type: t}
	}
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *podModel) CppMemberString(scope, t *idl.Definition) (string, bool, error) {
	if podType(t) == "void" {
		return "", false, &BadVoidUsageError{Type: t}
	}
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *podModel) CppReturnValueString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *podModel) CppParameterString(scope, t *idl.Definition) (string, bool, error) {
	switch podType(t) {
	case "void":
		return "", false, &BadVoidUsageError{Type: t}
	case "string", "wstring":
		return "const " + cpputil.ScopedName(scope, t) + "&", true, nil
	default:
		return cpputil.ScopedName(scope, t), true, nil
	}
}

func (m *podModel) CppMutableParameterString(scope, t *idl.Definition) (string, bool, error) {
	if podType(t) == "void" {
		return "", false, &BadVoidUsageError{Type: t}
	}
	return cpputil.ScopedName(scope, t) + "*", true, nil
}

var (
	podIntFromVariant = mustTmpl("podIntFromVariant", `{{.Type}} {{.Variable}} = 0;
if (NPVARIANT_IS_NUMBER({{.Input}})) {
  {{.Variable}} = static_cast<{{.Type}}>(NPVARIANT_TO_NUMBER({{.Input}}));
} else {
  *error_handle = "Error in " {{.Context}} ": was expecting an int.";
  {{.Success}} = false;
}
`)

	podFloatFromVariant = mustTmpl("podFloatFromVariant", `{{.Type}} {{.Variable}} = 0.f;
if (NPVARIANT_IS_NUMBER({{.Input}})) {
  {{.Variable}} = static_cast<{{.Type}}>(NPVARIANT_TO_NUMBER({{.Input}}));
} else {
  *error_handle = "Error in " {{.Context}} ": was expecting a number.";
  {{.Success}} = false;
}
`)

	podBoolFromVariant = mustTmpl("podBoolFromVariant", `{{.Type}} {{.Variable}} = false;
if (NPVARIANT_IS_BOOLEAN({{.Input}})) {
  {{.Variable}} = NPVARIANT_TO_BOOLEAN({{.Input}});
} else {
  *error_handle = "Error in " {{.Context}} ": was expecting a boolean.";
  {{.Success}} = false;
}
`)

	podStringFromVariant = mustTmpl("podStringFromVariant", `{{.Type}} {{.Variable}};
if (NPVARIANT_IS_STRING({{.Input}})) {
  {{.Variable}} = {{.Type}}(NPVARIANT_TO_STRING({{.Input}}).UTF8Characters,
                            NPVARIANT_TO_STRING({{.Input}}).UTF8Length);
} else {
  {{.Success}} = false;
  *error_handle = "Error in " {{.Context}} ": was expecting a string.";
}
`)

	podWStringFromVariant = mustTmpl("podWStringFromVariant", `{{.Type}} {{.Variable}};
if (!NPVARIANT_IS_STRING({{.Input}})) {
  {{.Success}} = false;
  *error_handle = "Error in " {{.Context}} ": was expecting a string.";
} else if (!UTF8ToString16(NPVARIANT_TO_STRING({{.Input}}).UTF8Characters,
                           NPVARIANT_TO_STRING({{.Input}}).UTF8Length,
                           &{{.Variable}})) {
  {{.Success}} = false;
  *error_handle = "Error in " {{.Context}} ": hit an unexpected unicode conversion problem.";
}
`)
)

type podVariantData struct {
	Type     string
	Input    string
	Variable string
	Success  string
	Context  string
}

func (m *podModel) NpapiFromNPVariant(scope, t *idl.Definition, args FromArgs) (string, string, error) {
	typeName := cpputil.ScopedName(scope, t)
	data := podVariantData{
		Type:     typeName,
		Input:    args.Input,
		Variable: args.Variable,
		Success:  args.Success,
		Context:  args.ErrorContext,
	}
	switch pod := podType(t); pod {
	case "void":
		return "", "void(0)", nil
	case "int", "unsigned int", "size_t":
		return render(podIntFromVariant, data), args.Variable, nil
	case "bool":
		return render(podBoolFromVariant, data), args.Variable, nil
	case "float", "double":
		return render(podFloatFromVariant, data), args.Variable, nil
	case "variant":
		return fmt.Sprintf("%s %s(%s, %s);", typeName, args.Variable, args.NPP, args.Input),
			args.Variable, nil
	case "string":
		return render(podStringFromVariant, data), args.Variable, nil
	case "wstring":
		return render(podWStringFromVariant, data), args.Variable, nil
	default:
		return "", "", &UnknownPODTypeError{PodType: pod, Type: t}
	}
}

func (m *podModel) NpapiExprToNPVariant(scope, t *idl.Definition, args ToArgs) (string, string, error) {
	typeName := cpputil.ScopedName(scope, t)
	switch pod := podType(t); pod {
	case "void":
		return args.Expression + ";",
			fmt.Sprintf("VOID_TO_NPVARIANT(*%s);", args.Output), nil
	case "int", "unsigned int", "size_t":
		return fmt.Sprintf("%s %s = %s;", typeName, args.Variable, args.Expression),
			fmt.Sprintf("INT32_TO_NPVARIANT(%s, *%s);", args.Variable, args.Output), nil
	case "bool":
		return fmt.Sprintf("%s %s = %s;", typeName, args.Variable, args.Expression),
			fmt.Sprintf("BOOLEAN_TO_NPVARIANT(%s, *%s);", args.Variable, args.Output), nil
	case "float", "double":
		return fmt.Sprintf("%s %s = %s;", typeName, args.Variable, args.Expression),
			fmt.Sprintf("DOUBLE_TO_NPVARIANT(static_cast<double>(%s), *%s);", args.Variable, args.Output), nil
	case "variant":
		return fmt.Sprintf("%s %s = %s;", typeName, args.Variable, args.Expression),
			fmt.Sprintf("*%s = %s.NPVariant(%s);", args.Output, args.Variable, args.NPP), nil
	case "string":
		return fmt.Sprintf("%s = StringToNPVariant(%s, %s);", args.Success, args.Expression, args.Output),
			"", nil
	case "wstring":
		return fmt.Sprintf("%s = String16ToNPVariant(%s, %s);", args.Success, args.Expression, args.Output),
			"", nil
	default:
		return "", "", &UnknownPODTypeError{PodType: pod, Type: t}
	}
}
