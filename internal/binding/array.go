package binding

import (
	"strconv"

	"github.com/crander/idlglue/internal/idl"
)

// unsizedArrayModel binds arrays of unspecified size. The native
// representation is a std::vector of the element representation; host arrays
// are copied element by element in both directions through the element type's
// own model.
//
// Marshaling in is atomic: if any element fails, the vector is cleared so the
// callee never observes a partially filled array.
type unsizedArrayModel struct {
	invalid
}

func newUnsizedArrayModel() Model { return &unsizedArrayModel{invalid{name: "unsized_array"}} }

func elemModel(t *idl.Definition) (Model, *idl.Definition, error) {
	elem := t.Elem
	m, err := Of(elem)
	if err != nil {
		return nil, nil, err
	}
	return m, elem, nil
}

func (m *unsizedArrayModel) vectorString(scope, t *idl.Definition) (string, bool, error) {
	em, elem, err := elemModel(t)
	if err != nil {
		return "", false, err
	}
	rep, need, err := em.CppMemberString(scope, elem)
	if err != nil {
		return "", false, err
	}
	return "std::vector<" + rep + " >", need, nil
}

func (m *unsizedArrayModel) CppTypedefString(scope, t *idl.Definition) (string, bool, error) {
	return m.vectorString(scope, t)
}

func (m *unsizedArrayModel) CppMemberString(scope, t *idl.Definition) (string, bool, error) {
	return m.vectorString(scope, t)
}

func (m *unsizedArrayModel) CppReturnValueString(scope, t *idl.Definition) (string, bool, error) {
	return m.vectorString(scope, t)
}

func (m *unsizedArrayModel) CppParameterString(scope, t *idl.Definition) (string, bool, error) {
	rep, need, err := m.vectorString(scope, t)
	if err != nil {
		return "", false, err
	}
	return "const " + rep + "&", need, nil
}

func (m *unsizedArrayModel) CppMutableParameterString(scope, t *idl.Definition) (string, bool, error) {
	rep, need, err := m.vectorString(scope, t)
	if err != nil {
		return "", false, err
	}
	return rep + "*", need, nil
}

var arrayFromVariant = mustTmpl("arrayFromVariant", `{{.Vector}} {{.Variable}};
if (NPVARIANT_IS_OBJECT({{.Input}})) {
  NPObject *{{.Variable}}_npobject = NPVARIANT_TO_OBJECT({{.Input}});
  NPVariant {{.Variable}}_length_variant;
  if (NPN_GetProperty({{.NPP}}, {{.Variable}}_npobject,
                      NPN_GetStringIdentifier("length"),
                      &{{.Variable}}_length_variant) &&
      NPVARIANT_IS_INT32({{.Variable}}_length_variant)) {
    int32_t {{.Variable}}_length =
        NPVARIANT_TO_INT32({{.Variable}}_length_variant);
    NPN_ReleaseVariantValue(&{{.Variable}}_length_variant);
{{- if .Size}}
    if ({{.Variable}}_length != {{.Size}}) {
      {{.Success}} = false;
      *error_handle = "Error in " {{.Context}}
          ": array length does not match the declared size.";
    }
{{- end}}
    for (int32_t i = 0; i < {{.Variable}}_length && {{.Success}}; ++i) {
      NPVariant {{.Variable}}_element;
      if (NPN_GetProperty({{.NPP}}, {{.Variable}}_npobject,
                          NPN_GetIntIdentifier(i), &{{.Variable}}_element)) {
{{.ElementCode}}
        if ({{.Success}}) {
          {{.Variable}}.push_back({{.ElementExpr}});
        }
        NPN_ReleaseVariantValue(&{{.Variable}}_element);
      } else {
        {{.Success}} = false;
        *error_handle = "Error in " {{.Context}}
            ": array element is missing.";
      }
    }
    if (!{{.Success}})
      {{.Variable}}.clear();
  } else {
    {{.Success}} = false;
    *error_handle = "Error in " {{.Context}} ": object is not an array.";
  }
} else {
  {{.Success}} = false;
  *error_handle = "Error in " {{.Context}} ": was expecting an array.";
}
`)

// fromVariant builds the array marshal-in snippet. A non-empty size emits a
// guard rejecting host arrays whose length differs from it.
func (m *unsizedArrayModel) fromVariant(scope, t *idl.Definition, args FromArgs, size string) (string, string, error) {
	em, elem, err := elemModel(t)
	if err != nil {
		return "", "", err
	}
	vector, _, err := m.vectorString(scope, t)
	if err != nil {
		return "", "", err
	}
	inner := args
	inner.Input = args.Variable + "_element"
	inner.Variable = args.Variable + "_value"
	elementCode, elementExpr, err := em.NpapiFromNPVariant(scope, elem, inner)
	if err != nil {
		return "", "", err
	}
	text := render(arrayFromVariant, map[string]string{
		"Vector":      vector,
		"Variable":    args.Variable,
		"Input":       args.Input,
		"Success":     args.Success,
		"Context":     args.ErrorContext,
		"NPP":         args.NPP,
		"Size":        size,
		"ElementCode": indentLines(elementCode, "        "),
		"ElementExpr": elementExpr,
	})
	return text, args.Variable, nil
}

func (m *unsizedArrayModel) NpapiFromNPVariant(scope, t *idl.Definition, args FromArgs) (string, string, error) {
	return m.fromVariant(scope, t, args, "")
}

var arrayToVariant = mustTmpl("arrayToVariant", `NPObject *{{.Variable}} = NULL;
{
  NPObject *{{.Variable}}_window = NULL;
  NPN_GetValue({{.NPP}}, NPNVWindowNPObject, &{{.Variable}}_window);
  NPVariant {{.Variable}}_result;
  if ({{.Variable}}_window &&
      NPN_Invoke({{.NPP}}, {{.Variable}}_window,
                 NPN_GetStringIdentifier("Array"), NULL, 0,
                 &{{.Variable}}_result) &&
      NPVARIANT_IS_OBJECT({{.Variable}}_result)) {
    {{.Variable}} = NPVARIANT_TO_OBJECT({{.Variable}}_result);
  } else {
    {{.Success}} = false;
  }
  if ({{.Variable}}_window)
    NPN_ReleaseObject({{.Variable}}_window);
}
for (size_t i = 0; {{.Variable}} && i < ({{.Expression}}).size() && {{.Success}}; ++i) {
  NPVariant {{.Variable}}_element_variant;
{{.ElementPre}}
  if ({{.Success}}) {
{{.ElementPost}}
    NPN_SetProperty({{.NPP}}, {{.Variable}}, NPN_GetIntIdentifier(i),
                    &{{.Variable}}_element_variant);
    NPN_ReleaseVariantValue(&{{.Variable}}_element_variant);
  }
}
if (!{{.Success}} && {{.Variable}}) {
  NPN_ReleaseObject({{.Variable}});
  {{.Variable}} = NULL;
}`)

func (m *unsizedArrayModel) NpapiExprToNPVariant(scope, t *idl.Definition, args ToArgs) (string, string, error) {
	em, elem, err := elemModel(t)
	if err != nil {
		return "", "", err
	}
	inner := args
	inner.Variable = args.Variable + "_element"
	inner.Expression = "(" + args.Expression + ")[i]"
	inner.Output = "&" + args.Variable + "_element_variant"
	elementPre, elementPost, err := em.NpapiExprToNPVariant(scope, elem, inner)
	if err != nil {
		return "", "", err
	}
	pre := render(arrayToVariant, map[string]string{
		"Variable":    args.Variable,
		"Expression":  args.Expression,
		"Success":     args.Success,
		"NPP":         args.NPP,
		"ElementPre":  indentLines(elementPre, "  "),
		"ElementPost": indentLines(elementPost, "    "),
	})
	post := "OBJECT_TO_NPVARIANT(" + args.Variable + ", *" + args.Output + ");"
	return pre, post, nil
}

// sizedArrayModel binds arrays with a declared size. The native
// representation is the same std::vector as for unsized arrays; marshaling
// in rejects host arrays whose length differs from the declared size, so the
// callee can rely on the vector holding exactly that many elements.
type sizedArrayModel struct {
	unsizedArrayModel
}

func newSizedArrayModel() Model {
	return &sizedArrayModel{unsizedArrayModel{invalid{name: "sized_array"}}}
}

func (m *sizedArrayModel) NpapiFromNPVariant(scope, t *idl.Definition, args FromArgs) (string, string, error) {
	return m.fromVariant(scope, t, args, strconv.Itoa(t.Size))
}
