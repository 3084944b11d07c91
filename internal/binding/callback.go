package binding

import (
	"github.com/crander/idlglue/internal/cpputil"
	"github.com/crander/idlglue/internal/idl"
)

// callbackModel is the binding model for callback types: function references
// on the host side, wrapped into a generated glue class with a Run method on
// the native side. The native representation is a pointer to the glue class.
type callbackModel struct {
	invalid
}

func newCallbackModel() Model { return &callbackModel{invalid{name: "callback"}} }

func glueClassName(t *idl.Definition) string { return t.Name + "_glue" }

func (m *callbackModel) CppTypedefString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *callbackModel) CppMemberString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t) + "*", true, nil
}

func (m *callbackModel) CppReturnValueString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t) + "*", true, nil
}

func (m *callbackModel) CppParameterString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t) + "*", true, nil
}

func (m *callbackModel) CppMutableParameterString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t) + "*", true, nil
}

func (m *callbackModel) CppMutableToNonMutable(_, _ *idl.Definition, expr string) string {
	return expr
}

// makeRunFunction builds the Run method matching the callback's signature,
// used to declare the glue class.
func makeRunFunction(scope, t *idl.Definition) *idl.Definition {
	fn := idl.NewFunction(t.Source, nil, "Run", nil, t.Params)
	fn.Type = t.Type
	fn.Parent = scope
	return fn
}

var callbackGlueHeader = mustTmpl("callbackGlueHeader", `class {{.GlueClass}} : public {{.BaseClass}} {
 public:
  {{.GlueClass}}(NPP npp, NPObject *npobject);
  virtual ~{{.GlueClass}}();
  virtual {{.RunFunction}};
 private:
  NPP npp_;
  NPObject *npobject_;
};
{{.GlueClass}} *CreateObject(NPP npp, NPObject *npobject);
`)

func (m *callbackModel) NpapiBindingGlueHeader(scope, t *idl.Definition) (string, error) {
	run, _, err := FunctionPrototype(scope, makeRunFunction(scope, t), "")
	if err != nil {
		return "", err
	}
	return render(callbackGlueHeader, map[string]string{
		"GlueClass":   glueClassName(t),
		"BaseClass":   cpputil.ScopedName(scope, t),
		"RunFunction": run,
	}), nil
}

var callbackGlueCpp = mustTmpl("callbackGlueCpp", `{{.GlueClass}}::{{.GlueClass}}(NPP npp, NPObject *npobject)
    : npp_(npp),
      npobject_(npobject) {
  NPN_RetainObject(npobject);
}

{{.GlueClass}}::~{{.GlueClass}}() {
}

{{.RunFunction}} {
  {{.CallbackGlue}};
}

{{.GlueClass}} *CreateObject(NPP npp, NPObject *npobject) {
  return npobject ? new {{.GlueClass}}(npp, npobject) : NULL;
}
`)

func (m *callbackModel) NpapiBindingGlueCpp(scope, t *idl.Definition) (string, error) {
	glueClass := glueClassName(t)
	run, _, err := FunctionPrototype(scope, makeRunFunction(scope, t), glueClass+"::")
	if err != nil {
		return "", err
	}
	asyncParam := "false"
	if t.HasAttr("async") {
		asyncParam = "true"
	}
	call := "return RunCallback(npp_, npobject_, " + asyncParam
	for _, p := range t.Params {
		call += ", " + p.Name
	}
	call += ")"
	return render(callbackGlueCpp, map[string]string{
		"GlueClass":    glueClass,
		"RunFunction":  run,
		"CallbackGlue": call,
	}), nil
}

var callbackFromVariant = mustTmpl("callbackFromVariant", `{{.Success}} = NPVARIANT_IS_OBJECT({{.Input}});
{{.Type}} *{{.Variable}} = NULL;
if ({{.Success}}) {
  {{.Variable}} = {{.Namespace}}::CreateObject(
      {{.NPP}}, NPVARIANT_TO_OBJECT({{.Input}}));
} else {
  *error_handle = "Error in " {{.Context}} ": a callback must be a Javascript function.";
}
`)

func (m *callbackModel) NpapiFromNPVariant(scope, t *idl.Definition, args FromArgs) (string, string, error) {
	text := render(callbackFromVariant, map[string]string{
		"Type":      cpputil.ScopedName(scope, t),
		"Variable":  args.Variable,
		"Input":     args.Input,
		"Success":   args.Success,
		"Context":   args.ErrorContext,
		"NPP":       args.NPP,
		"Namespace": cpputil.GlueFullNamespace(t),
	})
	return text, args.Variable, nil
}
