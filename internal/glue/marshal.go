package glue

import (
	"fmt"
	"strings"

	"github.com/crander/idlglue/internal/binding"
	"github.com/crander/idlglue/internal/cpputil"
	"github.com/crander/idlglue/internal/cppwriter"
	"github.com/crander/idlglue/internal/idl"
	"github.com/crander/idlglue/internal/naming"
)

// isVoid reports whether a return type is the void pod type.
func isVoid(t *idl.Definition) bool {
	return t != nil && t.FinalType().Attr("podtype") == "void"
}

// noteType records the includes a guard's emitted code depends on: the type
// itself and, for arrays and nullables, the element type underneath.
func noteType(sec *cppwriter.Section, t *idl.Definition) {
	sec.NeedDefinition(t)
	for ft := t.FinalType(); ft.Kind == idl.KindArray || ft.Kind == idl.KindNullable; {
		ft = ft.Elem.FinalType()
		sec.NeedDefinition(ft)
	}
}

// errorContext builds the quoted string literal naming the member in
// generated marshaling error messages.
func (ctx *objectContext) errorContext(jsName string) string {
	return fmt.Sprintf("%q", ctx.qualifiedName()+"."+jsName)
}

// marshalParams emits the FromNPVariant snippet for every parameter and
// returns the concatenated code plus the access expressions, in order.
func (ctx *objectContext) marshalParams(sec *cppwriter.Section, fn *idl.Definition, jsName string) (string, []string, error) {
	var codes []string
	var exprs []string
	for i, p := range fn.Params {
		model, err := binding.Of(p.Type)
		if err != nil {
			return "", nil, err
		}
		code, expr, err := model.NpapiFromNPVariant(ctx.global, p.Type, binding.FromArgs{
			Input:        fmt.Sprintf("args[%d]", i),
			Variable:     "param_" + p.Name,
			Success:      "success",
			ErrorContext: ctx.errorContext(jsName),
			NPP:          "npp",
		})
		if err != nil {
			return "", nil, err
		}
		noteType(sec, p.Type)
		codes = append(codes, strings.TrimRight(code, "\n"))
		exprs = append(exprs, expr)
	}
	return strings.Join(codes, "\n"), exprs, nil
}

// returnPhases builds the two-phase result marshal for a call expression:
// the allocation phase that can fail and the commit into the variant.
func (ctx *objectContext) returnPhases(sec *cppwriter.Section, retType *idl.Definition, callExpr, output string) (string, string, error) {
	if isVoid(retType) {
		return callExpr + ";", "VOID_TO_NPVARIANT(*" + output + ");", nil
	}
	model, err := binding.Of(retType)
	if err != nil {
		return "", "", err
	}
	pre, post, err := model.NpapiExprToNPVariant(ctx.global, retType, binding.ToArgs{
		Variable:   "retval",
		Expression: callExpr,
		Output:     output,
		Success:    "success",
		NPP:        "npp",
	})
	if err != nil {
		return "", "", err
	}
	noteType(sec, retType)
	return strings.TrimRight(pre, "\n"), strings.TrimRight(post, "\n"), nil
}

// callExpression builds the native call for a function guard: a user-supplied
// glue function when the member is tagged userglue, a method or static call
// through the owning class's model, or a plain qualified call for
// namespace-level functions.
func (ctx *objectContext) callExpression(fn *idl.Definition, static bool, exprs []string) (string, error) {
	if fn.HasAttr("userglue") {
		return ctx.userGlueCall(fn, static, exprs)
	}
	if !ctx.isClass {
		return fmt.Sprintf("%s%s(%s)", cpputil.ScopePrefix(ctx.global, fn), fn.Name, strings.Join(exprs, ", ")), nil
	}
	model, err := binding.Of(ctx.defn)
	if err != nil {
		return "", err
	}
	if static {
		return model.CppCallStaticMethod(ctx.global, ctx.defn, fn, exprs)
	}
	return model.CppCallMethod(ctx.global, ctx.defn, "object", true, fn, exprs)
}

// userGlueCall routes a call through a user-provided glue function and
// emits its prototype once so the generated file compiles against it.
func (ctx *objectContext) userGlueCall(fn *idl.Definition, static bool, exprs []string) (string, error) {
	glueName := "userglue_method_" + fn.Name
	callArgs := append([]string{"npp", "object"}, exprs...)
	protoParams := []string{"NPP npp", ctx.className() + " *object"}
	if static || !ctx.isClass {
		glueName = "userglue_function_" + fn.Name
		callArgs = append([]string{"npp"}, exprs...)
		protoParams = []string{"NPP npp"}
	}
	ret := "void"
	if fn.Type != nil && !isVoid(fn.Type) {
		model, err := binding.Of(fn.Type)
		if err != nil {
			return "", err
		}
		text, _, err := model.CppReturnValueString(ctx.global, fn.Type)
		if err != nil {
			return "", err
		}
		ret = text
	}
	for _, p := range fn.Params {
		s, _, err := binding.ParamPrototype(ctx.global, p)
		if err != nil {
			return "", err
		}
		protoParams = append(protoParams, s)
	}
	proto := fmt.Sprintf("%s %s(%s);", ret, glueName, strings.Join(protoParams, ", "))
	if !ctx.userGlueSeen(proto) {
		ctx.userGlue.EmitCode(proto)
	}
	return fmt.Sprintf("%s(%s)", glueName, strings.Join(callArgs, ", ")), nil
}

func (ctx *objectContext) userGlueSeen(proto string) bool {
	if ctx.userGlueProtos == nil {
		ctx.userGlueProtos = map[string]bool{}
	}
	if ctx.userGlueProtos[proto] {
		return true
	}
	ctx.userGlueProtos[proto] = true
	return false
}

// emitMethod emits the name- and argument-count-guarded dispatch branch for
// one function overload. Overloads sharing a name and arity are tried in
// declaration order; the first full marshal wins.
func (ctx *objectContext) emitMethod(fn *idl.Definition) error {
	jsName := naming.Normalize(fn.Name, naming.Java)
	static := fn.HasAttr("static") || !ctx.isClass
	body, idsArray := ctx.invokeBody, "method_identifiers"
	var idConst string
	if static {
		body, idsArray = ctx.staticInvokeBody, "static_method_identifiers"
		idConst = ctx.staticMethodConst(jsName)
	} else {
		idConst = ctx.methodConst(jsName)
	}
	marshal, exprs, err := ctx.marshalParams(body, fn, jsName)
	if err != nil {
		return err
	}
	call, err := ctx.callExpression(fn, static, exprs)
	if err != nil {
		return err
	}
	pre, post, err := ctx.returnPhases(body, fn.Type, call, "result")
	if err != nil {
		return err
	}
	text, err := renderTemplate(tmplInvokeGuard, map[string]any{
		"IdsArray":     idsArray,
		"IdConst":      idConst,
		"ArgCount":     len(fn.Params),
		"ParamMarshal": marshal,
		"ResultPre":    pre,
		"ResultPost":   post,
	})
	if err != nil {
		return err
	}
	body.EmitCode(text)
	return nil
}

// emitConstructor emits the argument-count-guarded construct branch. The
// constructed native value is wrapped by the class model's out-marshal, so
// by_pointer classes allocate and by_value classes copy.
func (ctx *objectContext) emitConstructor(fn *idl.Definition) error {
	body := ctx.constructBody
	marshal, exprs, err := ctx.marshalParams(body, fn, ctx.defn.Name)
	if err != nil {
		return err
	}
	model, err := binding.Of(ctx.defn)
	if err != nil {
		return err
	}
	construct, err := model.CppCallConstructor(ctx.global, ctx.defn, fn, exprs)
	if err != nil {
		return err
	}
	pre, post, err := ctx.returnPhases(body, ctx.defn, construct, "result")
	if err != nil {
		return err
	}
	text, err := renderTemplate(tmplConstructGuard, map[string]any{
		"ArgCount":     len(fn.Params),
		"ParamMarshal": marshal,
		"ResultPre":    pre,
		"ResultPost":   post,
	})
	if err != nil {
		return err
	}
	body.EmitCode(text)
	return nil
}

// fieldAccess returns the get and set expressions for an instance field.
// Fields carrying getter/setter attributes dispatch through those accessors;
// plain fields access the member directly.
func (ctx *objectContext) fieldAccess(field *idl.Definition, valueExpr string) (string, string, error) {
	model, err := binding.Of(ctx.defn)
	if err != nil {
		return "", "", err
	}
	if field.HasAttr("getter") || field.HasAttr("setter") {
		getter, err := field.MakeGetter(nil, cpputil.GetterName(field))
		if err != nil {
			return "", "", err
		}
		setter, err := field.MakeSetter(nil, cpputil.SetterName(field))
		if err != nil {
			return "", "", err
		}
		get, err := model.CppCallMethod(ctx.global, ctx.defn, "object", true, getter, nil)
		if err != nil {
			return "", "", err
		}
		set, err := model.CppCallMethod(ctx.global, ctx.defn, "object", true, setter, []string{valueExpr})
		if err != nil {
			return "", "", err
		}
		return get, set, nil
	}
	objExpr := "(" + model.CppMutableToNonMutable(ctx.global, ctx.defn, "object") + ")"
	get, err := model.CppGetField(ctx.global, ctx.defn, objExpr, field.Name)
	if err != nil {
		return "", "", err
	}
	set, err := model.CppSetField(ctx.global, ctx.defn, objExpr, field.Name, valueExpr)
	if err != nil {
		return "", "", err
	}
	return get, set, nil
}

// staticFieldAccess returns the get and set expressions for a static class
// field or a namespace-level variable.
func (ctx *objectContext) staticFieldAccess(field *idl.Definition, valueExpr string) (string, string, error) {
	if !ctx.isClass {
		name := cpputil.ScopePrefix(ctx.global, field) + field.Name
		return name, name + " = " + valueExpr, nil
	}
	model, err := binding.Of(ctx.defn)
	if err != nil {
		return "", "", err
	}
	get, err := model.CppGetStatic(ctx.global, ctx.defn, field.Name)
	if err != nil {
		return "", "", err
	}
	set, err := model.CppSetStatic(ctx.global, ctx.defn, field.Name, valueExpr)
	if err != nil {
		return "", "", err
	}
	return get, set, nil
}

// emitField emits the get and set property branches for a field. Fields
// tagged readonly get no set branch.
func (ctx *objectContext) emitField(field *idl.Definition) error {
	jsName := naming.Normalize(field.Name, naming.Java)
	static := field.HasAttr("static") || !ctx.isClass
	getBody, setBody, idsArray := ctx.getBody, ctx.setBody, "property_identifiers"
	var idConst string
	if static {
		getBody, setBody, idsArray = ctx.staticGetBody, ctx.staticSetBody, "static_property_identifiers"
		idConst = ctx.staticPropertyConst(jsName)
	} else {
		idConst = ctx.propertyConst(jsName)
	}

	marshal, valueExpr, err := ctx.marshalFieldValue(setBody, field, jsName)
	if err != nil {
		return err
	}
	var get, set string
	if static {
		get, set, err = ctx.staticFieldAccess(field, valueExpr)
	} else {
		get, set, err = ctx.fieldAccess(field, valueExpr)
	}
	if err != nil {
		return err
	}

	pre, post, err := ctx.returnPhases(getBody, field.Type, get, "variant")
	if err != nil {
		return err
	}
	getText, err := renderTemplate(tmplGetGuard, map[string]any{
		"IdsArray": idsArray,
		"IdConst":  idConst,
		"Pre":      pre,
		"Post":     post,
	})
	if err != nil {
		return err
	}
	getBody.EmitCode(getText)

	if field.HasAttr("readonly") {
		return nil
	}
	setText, err := renderTemplate(tmplSetGuard, map[string]any{
		"IdsArray": idsArray,
		"IdConst":  idConst,
		"Marshal":  marshal,
		"Assign":   set,
	})
	if err != nil {
		return err
	}
	setBody.EmitCode(setText)
	return nil
}

func (ctx *objectContext) marshalFieldValue(sec *cppwriter.Section, field *idl.Definition, jsName string) (string, string, error) {
	model, err := binding.Of(field.Type)
	if err != nil {
		return "", "", err
	}
	code, expr, err := model.NpapiFromNPVariant(ctx.global, field.Type, binding.FromArgs{
		Input:        "(*variant)",
		Variable:     "param_" + field.Name,
		Success:      "success",
		ErrorContext: ctx.errorContext(jsName),
		NPP:          "npp",
	})
	if err != nil {
		return "", "", err
	}
	noteType(sec, field.Type)
	return strings.TrimRight(code, "\n"), expr, nil
}

// emitEnum exposes every value of an enum as a read-only static property on
// the owning object.
func (ctx *objectContext) emitEnum(enum *idl.Definition) error {
	prefix := cpputil.ScopePrefix(ctx.global, enum)
	for _, v := range enum.Values {
		idConst := ctx.staticPropertyConst(v.Name)
		text, err := renderTemplate(tmplGetGuard, map[string]any{
			"IdsArray": "static_property_identifiers",
			"IdConst":  idConst,
			"Pre":      "",
			"Post":     fmt.Sprintf("INT32_TO_NPVARIANT(%s%s, *variant);", prefix, v.Name),
		})
		if err != nil {
			return err
		}
		ctx.staticGetBody.EmitCode(text)
	}
	noteType(ctx.staticGetBody, enum)
	return nil
}

// emitChildObject exposes a nested class or namespace as a named child on
// this object's static object, handing out a retained reference to the
// child's own static object.
func (ctx *objectContext) emitChildObject(child *idl.Definition) error {
	idConst := ctx.staticPropertyConst(child.Name)
	childNS := "::" + cpputil.GlueFullNamespace(child)
	pre := fmt.Sprintf(`NPObject *child_object = %s::GetStaticNPObject();
if (!child_object) {
  success = false;
}`, childNS)
	post := `NPN_RetainObject(child_object);
OBJECT_TO_NPVARIANT(child_object, *variant);`
	text, err := renderTemplate(tmplGetGuard, map[string]any{
		"IdsArray": "static_property_identifiers",
		"IdConst":  idConst,
		"Pre":      pre,
		"Post":     post,
	})
	if err != nil {
		return err
	}
	ctx.staticGetBody.EmitCode(text)
	return nil
}
