package binding

import (
	"fmt"

	"github.com/crander/idlglue/internal/cpputil"
	"github.com/crander/idlglue/internal/idl"
)

// byPointerModel is the binding model for classes whose host handle stores a
// raw pointer to the native object. The object is shared, never copied; a
// null native pointer marshals to a null variant. Host-side objects wrapping
// such a pointer may additionally be genuine host objects, so dispatch falls
// back to the host's generic lookup at the end of the base chain.
type byPointerModel struct {
	invalid
}

func newByPointerModel() Model { return &byPointerModel{invalid{name: "by_pointer"}} }

func (m *byPointerModel) CppTypedefString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *byPointerModel) CppMemberString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t) + "*", false, nil
}

func (m *byPointerModel) CppReturnValueString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t) + "*", false, nil
}

func (m *byPointerModel) CppParameterString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t) + "*", false, nil
}

func (m *byPointerModel) CppMutableParameterString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t) + "*", false, nil
}

func (m *byPointerModel) CppMutableToNonMutable(_, _ *idl.Definition, expr string) string {
	return expr
}

func (m *byPointerModel) CppBaseClassString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *byPointerModel) CppCallMethod(_, _ *idl.Definition, objectExpr string, _ bool, method *idl.Definition, params []string) (string, error) {
	return fmt.Sprintf("%s->%s(%s)", objectExpr, method.Name, joinParams(params)), nil
}

func (m *byPointerModel) CppCallStaticMethod(scope, t *idl.Definition, method *idl.Definition, params []string) (string, error) {
	return fmt.Sprintf("%s::%s(%s)", cpputil.ScopedName(scope, t), method.Name, joinParams(params)), nil
}

func (m *byPointerModel) CppCallConstructor(scope, t *idl.Definition, _ *idl.Definition, params []string) (string, error) {
	return fmt.Sprintf("new %s(%s)", cpputil.ScopedName(scope, t), joinParams(params)), nil
}

func (m *byPointerModel) CppSetField(_, _ *idl.Definition, objectExpr, field, param string) (string, error) {
	return fmt.Sprintf("%s->%s = %s", objectExpr, field, param), nil
}

func (m *byPointerModel) CppGetField(_, _ *idl.Definition, objectExpr, field string) (string, error) {
	return fmt.Sprintf("%s->%s", objectExpr, field), nil
}

func (m *byPointerModel) CppSetStatic(scope, t *idl.Definition, field, param string) (string, error) {
	return fmt.Sprintf("%s::%s = %s", cpputil.ScopedName(scope, t), field, param), nil
}

func (m *byPointerModel) CppGetStatic(scope, t *idl.Definition, field string) (string, error) {
	return fmt.Sprintf("%s::%s", cpputil.ScopedName(scope, t), field), nil
}

var byPointerGlueHeader = mustTmpl("byPointerGlueHeader", `class NPAPIObject : public NPObject {
  NPP npp_;
  {{.Class}} *value_;
 public:
  explicit NPAPIObject(NPP npp) : npp_(npp), value_(NULL) {}
  NPP npp() { return npp_; }
  {{.Class}} *value() { return value_; }
  void set_value({{.Class}} *value) { value_ = value; }
};
NPClass *GetNPClass(void);
NPAPIObject *GetNPObject(NPP npp, {{.Class}} *object);
`)

func (m *byPointerModel) NpapiBindingGlueHeader(scope, t *idl.Definition) (string, error) {
	return render(byPointerGlueHeader, map[string]string{
		"Class": cpputil.ScopedName(scope, t),
	}), nil
}

var byPointerGlueCpp = mustTmpl("byPointerGlueCpp", `NPAPIObject *GetNPObject(NPP npp, {{.Class}} *object) {
  if (!object)
    return NULL;
  NPAPIObject *npobject = static_cast<NPAPIObject *>(
      NPN_CreateObject(npp, GetNPClass()));
  npobject->set_value(object);
  return npobject;
}
`)

func (m *byPointerModel) NpapiBindingGlueCpp(scope, t *idl.Definition) (string, error) {
	return render(byPointerGlueCpp, map[string]string{
		"Class": cpputil.ScopedName(scope, t),
	}), nil
}

var byPointerDispatchHeader = mustTmpl("byPointerDispatchHeader", `NPAPIObject *{{.Variable}}_npobject = static_cast<NPAPIObject *>(header);
NPP {{.NPP}} = {{.Variable}}_npobject->npp();
{{.Class}} *{{.Variable}} = {{.Variable}}_npobject->value();
`)

func (m *byPointerModel) NpapiDispatchFunctionHeader(scope, t *idl.Definition, variable, npp, _ string) (string, string, error) {
	text := render(byPointerDispatchHeader, map[string]string{
		"Class":    cpputil.ScopedName(scope, t),
		"Variable": variable,
		"NPP":      npp,
	})
	return text, variable, nil
}

var byPointerFromVariant = mustTmpl("byPointerFromVariant", `{{.Class}} *{{.Variable}} = NULL;
if (NPVARIANT_IS_NULL({{.Input}})) {
  {{.Variable}} = NULL;
} else if (NPVARIANT_IS_OBJECT({{.Input}})) {
  NPObject *{{.Variable}}_npobject = NPVARIANT_TO_OBJECT({{.Input}});
  if ({{.Variable}}_npobject->_class == {{.Namespace}}::GetNPClass()) {
    {{.Variable}} = static_cast<{{.Namespace}}::NPAPIObject *>(
        {{.Variable}}_npobject)->value();
  } else {
    {{.Success}} = false;
    *error_handle = "Error in " {{.Context}} ": wrong object type.";
  }
} else {
  {{.Success}} = false;
  *error_handle = "Error in " {{.Context}} ": was expecting an object.";
}
`)

func (m *byPointerModel) NpapiFromNPVariant(scope, t *idl.Definition, args FromArgs) (string, string, error) {
	text := render(byPointerFromVariant, map[string]string{
		"Class":     cpputil.ScopedName(scope, t),
		"Namespace": cpputil.GlueFullNamespace(t.FinalType()),
		"Variable":  args.Variable,
		"Input":     args.Input,
		"Success":   args.Success,
		"Context":   args.ErrorContext,
	})
	return text, args.Variable, nil
}

func (m *byPointerModel) NpapiExprToNPVariant(scope, t *idl.Definition, args ToArgs) (string, string, error) {
	ns := cpputil.GlueFullNamespace(t.FinalType())
	pre := fmt.Sprintf("%s::NPAPIObject *%s = %s::GetNPObject(%s, %s);",
		ns, args.Variable, ns, args.NPP, args.Expression)
	post := fmt.Sprintf(`if (%s) {
  OBJECT_TO_NPVARIANT(%s, *%s);
} else {
  NULL_TO_NPVARIANT(*%s);
}`, args.Variable, args.Variable, args.Output, args.Output)
	return pre, post, nil
}
