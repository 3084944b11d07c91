package binding

import (
	"fmt"

	"github.com/crander/idlglue/internal/cpputil"
	"github.com/crander/idlglue/internal/idl"
)

// byValueModel is the binding model for classes whose host handle owns a
// copy of the native value. Values are constructed and returned by copy;
// marshaling in checks the handle's own type tag and copies the value out.
//
// When the class declares a 'marshaled' property, marshaling in both
// directions routes through that property's getter and setter instead of the
// raw representation, so the type can present an alternate shape to the host.
type byValueModel struct {
	invalid
}

func newByValueModel() Model { return &byValueModel{invalid{name: "by_value"}} }

func (m *byValueModel) CppTypedefString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *byValueModel) CppMemberString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *byValueModel) CppReturnValueString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *byValueModel) CppParameterString(scope, t *idl.Definition) (string, bool, error) {
	return "const " + cpputil.ScopedName(scope, t) + "&", true, nil
}

func (m *byValueModel) CppMutableParameterString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t) + "*", true, nil
}

func (m *byValueModel) CppBaseClassString(scope, t *idl.Definition) (string, bool, error) {
	return cpputil.ScopedName(scope, t), true, nil
}

func (m *byValueModel) CppCallMethod(_, _ *idl.Definition, objectExpr string, mutable bool, method *idl.Definition, params []string) (string, error) {
	op := "."
	if mutable {
		op = "->"
	}
	return fmt.Sprintf("%s%s%s(%s)", objectExpr, op, method.Name, joinParams(params)), nil
}

func (m *byValueModel) CppCallStaticMethod(scope, t *idl.Definition, method *idl.Definition, params []string) (string, error) {
	return fmt.Sprintf("%s::%s(%s)", cpputil.ScopedName(scope, t), method.Name, joinParams(params)), nil
}

func (m *byValueModel) CppCallConstructor(scope, t *idl.Definition, _ *idl.Definition, params []string) (string, error) {
	return fmt.Sprintf("%s(%s)", cpputil.ScopedName(scope, t), joinParams(params)), nil
}

func (m *byValueModel) CppSetField(_, _ *idl.Definition, objectExpr, field, param string) (string, error) {
	return fmt.Sprintf("%s.%s = %s", objectExpr, field, param), nil
}

func (m *byValueModel) CppGetField(_, _ *idl.Definition, objectExpr, field string) (string, error) {
	return fmt.Sprintf("%s.%s", objectExpr, field), nil
}

func (m *byValueModel) CppSetStatic(scope, t *idl.Definition, field, param string) (string, error) {
	return fmt.Sprintf("%s::%s = %s", cpputil.ScopedName(scope, t), field, param), nil
}

func (m *byValueModel) CppGetStatic(scope, t *idl.Definition, field string) (string, error) {
	return fmt.Sprintf("%s::%s", cpputil.ScopedName(scope, t), field), nil
}

var byValueGlueHeader = mustTmpl("byValueGlueHeader", `class NPAPIObject : public NPObject {
  NPP npp_;
  {{.Class}} value_;
 public:
  explicit NPAPIObject(NPP npp) : npp_(npp), value_() {}
  NPP npp() { return npp_; }
  const {{.Class}} &value() { return value_; }
  {{.Class}} *value_mutable() { return &value_; }
  void set_value(const {{.Class}} &value) { value_ = value; }
};
NPClass *GetNPClass(void);
NPAPIObject *GetNPObject(NPP npp, const {{.Class}} &object);
`)

func (m *byValueModel) NpapiBindingGlueHeader(scope, t *idl.Definition) (string, error) {
	return render(byValueGlueHeader, map[string]string{
		"Class": cpputil.ScopedName(scope, t),
	}), nil
}

var byValueGlueCpp = mustTmpl("byValueGlueCpp", `NPAPIObject *GetNPObject(NPP npp, const {{.Class}} &object) {
  NPAPIObject *npobject = static_cast<NPAPIObject *>(
      NPN_CreateObject(npp, GetNPClass()));
  if (npobject)
    npobject->set_value(object);
  return npobject;
}
`)

func (m *byValueModel) NpapiBindingGlueCpp(scope, t *idl.Definition) (string, error) {
	return render(byValueGlueCpp, map[string]string{
		"Class": cpputil.ScopedName(scope, t),
	}), nil
}

var byValueDispatchHeader = mustTmpl("byValueDispatchHeader", `NPAPIObject *{{.Variable}}_npobject = static_cast<NPAPIObject *>(header);
NPP {{.NPP}} = {{.Variable}}_npobject->npp();
{{.Class}} *{{.Variable}} = {{.Variable}}_npobject->value_mutable();
`)

func (m *byValueModel) NpapiDispatchFunctionHeader(scope, t *idl.Definition, variable, npp, _ string) (string, string, error) {
	text := render(byValueDispatchHeader, map[string]string{
		"Class":    cpputil.ScopedName(scope, t),
		"Variable": variable,
		"NPP":      npp,
	})
	return text, "(*" + variable + ")", nil
}

// marshaledProperty returns the designated marshal member for the type, or
// nil when the type marshals through its raw representation.
func marshaledProperty(t *idl.Definition) *idl.Definition {
	final := t.FinalType()
	name, has := final.Attributes["marshaled"]
	if !has {
		return nil
	}
	for _, member := range final.Members {
		if member.Name == name {
			return member
		}
	}
	return nil
}

var byValueFromVariant = mustTmpl("byValueFromVariant", `{{.Class}} {{.Variable}};
if (NPVARIANT_IS_OBJECT({{.Input}})) {
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

func (m *byValueModel) NpapiFromNPVariant(scope, t *idl.Definition, args FromArgs) (string, string, error) {
	if prop := marshaledProperty(t); prop != nil {
		return m.marshaledFromNPVariant(scope, t, prop, args)
	}
	text := render(byValueFromVariant, map[string]string{
		"Class":     cpputil.ScopedName(scope, t),
		"Namespace": cpputil.GlueFullNamespace(t.FinalType()),
		"Variable":  args.Variable,
		"Input":     args.Input,
		"Success":   args.Success,
		"Context":   args.ErrorContext,
	})
	return text, args.Variable, nil
}

// marshaledFromNPVariant builds the value by marshaling the designated
// property's type and feeding it through the user-supplied setter.
func (m *byValueModel) marshaledFromNPVariant(scope, t, prop *idl.Definition, args FromArgs) (string, string, error) {
	propModel, err := Of(prop.Type)
	if err != nil {
		return "", "", err
	}
	inner := args
	inner.Variable = args.Variable + "_marshaled"
	code, expr, err := propModel.NpapiFromNPVariant(scope, prop.Type, inner)
	if err != nil {
		return "", "", err
	}
	text := fmt.Sprintf(`%s %s;
%s
if (%s) {
  %s.%s(%s);
}
`, cpputil.ScopedName(scope, t), args.Variable, code, args.Success,
		args.Variable, cpputil.SetterName(prop), expr)
	return text, args.Variable, nil
}

func (m *byValueModel) NpapiExprToNPVariant(scope, t *idl.Definition, args ToArgs) (string, string, error) {
	if prop := marshaledProperty(t); prop != nil {
		propModel, err := Of(prop.Type)
		if err != nil {
			return "", "", err
		}
		inner := args
		inner.Expression = fmt.Sprintf("(%s).%s()", args.Expression, cpputil.GetterName(prop))
		inner.Variable = args.Variable + "_marshaled"
		return propModel.NpapiExprToNPVariant(scope, prop.Type, inner)
	}
	ns := cpputil.GlueFullNamespace(t.FinalType())
	pre := fmt.Sprintf(`%s::NPAPIObject *%s = %s::GetNPObject(%s, %s);
if (!%s) {
  %s = false;
}`, ns, args.Variable, ns, args.NPP, args.Expression, args.Variable, args.Success)
	post := fmt.Sprintf("OBJECT_TO_NPVARIANT(%s, *%s);", args.Variable, args.Output)
	return pre, post, nil
}
