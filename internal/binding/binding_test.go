package binding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crander/idlglue/internal/idl"
)

func podTypename(name, pod string) *idl.Definition {
	return idl.NewTypename(idl.Location{}, map[string]string{"podtype": pod}, name)
}

func ref(name string) idl.TypeRef { return &idl.NameRef{Name: name} }

// finalized wraps the declarations into a global namespace and runs the
// finalizer against the built-in registry.
func finalized(t *testing.T, members ...*idl.Definition) *idl.Definition {
	t.Helper()
	global := idl.NewGlobalNamespace(members)
	require.NoError(t, idl.Finalize(global, NewRegistry()))
	return global
}

func modelOf(t *testing.T, d *idl.Definition) Model {
	t.Helper()
	m, err := Of(d)
	require.NoError(t, err)
	return m
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	want := []string{
		"by_pointer", "by_value", "callback", "enum", "nullable", "pod",
		"sized_array", "unsized_array",
	}
	require.Equal(t, want, r.Names())

	m, ok := r.Get("pod")
	require.True(t, ok)
	require.Equal(t, "pod", m.BindingName())

	_, ok = r.Get("by_reference")
	require.False(t, ok)
}

func TestPodRepresentations(t *testing.T) {
	intType := podTypename("int", "int")
	strType := podTypename("String", "string")
	voidType := podTypename("void", "void")
	global := finalized(t, intType, strType, voidType)

	intModel := modelOf(t, intType)

	rep, _, err := intModel.CppParameterString(global, intType)
	require.NoError(t, err)
	require.Equal(t, "int", rep)

	rep, _, err = modelOf(t, strType).CppParameterString(global, strType)
	require.NoError(t, err)
	require.Equal(t, "const String&", rep)

	rep, _, err = modelOf(t, strType).CppMutableParameterString(global, strType)
	require.NoError(t, err)
	require.Equal(t, "String*", rep)

	rep, _, err = modelOf(t, voidType).CppReturnValueString(global, voidType)
	require.NoError(t, err)
	require.Equal(t, "void", rep)

	var voidErr *BadVoidUsageError
	_, _, err = modelOf(t, voidType).CppParameterString(global, voidType)
	require.ErrorAs(t, err, &voidErr)
	_, _, err = modelOf(t, voidType).CppMemberString(global, voidType)
	require.ErrorAs(t, err, &voidErr)
}

func TestPodFromNPVariant(t *testing.T) {
	intType := podTypename("int", "int")
	boolType := podTypename("bool", "bool")
	strType := podTypename("String", "string")
	badType := podTypename("quat", "quaternion")
	global := finalized(t, intType, boolType, strType, badType)

	args := FromArgs{
		Input:        "args[0]",
		Variable:     "param_x",
		Success:      "success",
		ErrorContext: `"Test.x"`,
		NPP:          "npp",
	}

	code, expr, err := modelOf(t, intType).NpapiFromNPVariant(global, intType, args)
	require.NoError(t, err)
	require.Equal(t, "param_x", expr)
	require.Contains(t, code, "NPVARIANT_IS_NUMBER(args[0])")
	require.Contains(t, code, "int param_x = 0;")
	require.Contains(t, code, "success = false;")

	code, _, err = modelOf(t, boolType).NpapiFromNPVariant(global, boolType, args)
	require.NoError(t, err)
	require.Contains(t, code, "NPVARIANT_IS_BOOLEAN(args[0])")

	code, _, err = modelOf(t, strType).NpapiFromNPVariant(global, strType, args)
	require.NoError(t, err)
	require.Contains(t, code, "UTF8Characters")
	require.Contains(t, code, "String param_x;")

	var podErr *UnknownPODTypeError
	_, _, err = modelOf(t, badType).NpapiFromNPVariant(global, badType, args)
	require.ErrorAs(t, err, &podErr)
	require.Equal(t, "quaternion", podErr.PodType)
}

func TestPodExprToNPVariant(t *testing.T) {
	intType := podTypename("int", "int")
	strType := podTypename("String", "string")
	voidType := podTypename("void", "void")
	global := finalized(t, intType, strType, voidType)

	args := ToArgs{
		Variable:   "retval",
		Expression: "object->Count()",
		Output:     "result",
		Success:    "success",
		NPP:        "npp",
	}

	pre, post, err := modelOf(t, intType).NpapiExprToNPVariant(global, intType, args)
	require.NoError(t, err)
	require.Equal(t, "int retval = object->Count();", pre)
	require.Equal(t, "INT32_TO_NPVARIANT(retval, *result);", post)

	pre, post, err = modelOf(t, strType).NpapiExprToNPVariant(global, strType, args)
	require.NoError(t, err)
	require.Equal(t, "success = StringToNPVariant(object->Count(), result);", pre)
	require.Empty(t, post)

	pre, post, err = modelOf(t, voidType).NpapiExprToNPVariant(global, voidType, args)
	require.NoError(t, err)
	require.Equal(t, "object->Count();", pre)
	require.Equal(t, "VOID_TO_NPVARIANT(*result);", post)
}

func TestEnumMarshal(t *testing.T) {
	enum := idl.NewEnum(idl.Location{}, nil, "Mode", []idl.EnumValue{
		{Name: "MODE_A"}, {Name: "MODE_B"}, {Name: "MODE_C"},
	})
	ns := idl.NewNamespace(idl.Location{}, nil, "app", []*idl.Definition{enum})
	global := finalized(t, ns)
	model := modelOf(t, enum)

	code, expr, err := model.NpapiFromNPVariant(global, enum, FromArgs{
		Input:        "args[0]",
		Variable:     "param_mode",
		Success:      "success",
		ErrorContext: `"app.mode"`,
	})
	require.NoError(t, err)
	require.Equal(t, "param_mode", expr)
	require.Contains(t, code, "app::Mode param_mode = app::MODE_A;")
	require.Contains(t, code, "param_mode > app::MODE_C")
	require.Contains(t, code, "value out of range")

	pre, post, err := model.NpapiExprToNPVariant(global, enum, ToArgs{
		Variable: "retval", Expression: "object->mode()", Output: "result",
	})
	require.NoError(t, err)
	require.Equal(t, "app::Mode retval = object->mode();", pre)
	require.Equal(t, "INT32_TO_NPVARIANT(retval, *result);", post)
}

func TestByPointerCalls(t *testing.T) {
	class := idl.NewClass(idl.Location{}, nil, "Node", nil, nil)
	global := finalized(t, class)
	model := modelOf(t, class)
	require.Equal(t, "by_pointer", model.BindingName())

	rep, needDefn, err := model.CppMemberString(global, class)
	require.NoError(t, err)
	require.Equal(t, "Node*", rep)
	require.False(t, needDefn, "a pointer representation only needs a forward declaration")

	method := idl.NewFunction(idl.Location{}, nil, "Update", nil, nil)
	call, err := model.CppCallMethod(global, class, "object", true, method, []string{"param_dt"})
	require.NoError(t, err)
	require.Equal(t, "object->Update(param_dt)", call)

	call, err = model.CppCallStaticMethod(global, class, method, nil)
	require.NoError(t, err)
	require.Equal(t, "Node::Update()", call)

	call, err = model.CppCallConstructor(global, class, method, []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, "new Node(a, b)", call)

	get, err := model.CppGetField(global, class, "(object)", "visible")
	require.NoError(t, err)
	require.Equal(t, "(object)->visible", get)

	set, err := model.CppSetField(global, class, "(object)", "visible", "param_visible")
	require.NoError(t, err)
	require.Equal(t, "(object)->visible = param_visible", set)
}

func TestByPointerVariantMarshal(t *testing.T) {
	class := idl.NewClass(idl.Location{}, nil, "Node", nil, nil)
	global := finalized(t, class)
	model := modelOf(t, class)

	code, expr, err := model.NpapiFromNPVariant(global, class, FromArgs{
		Input:        "args[0]",
		Variable:     "param_node",
		Success:      "success",
		ErrorContext: `"Test.node"`,
		NPP:          "npp",
	})
	require.NoError(t, err)
	require.Equal(t, "param_node", expr)
	require.Contains(t, code, "Node *param_node = NULL;")
	require.Contains(t, code, "NPVARIANT_IS_NULL(args[0])")
	require.Contains(t, code, "glue::class_Node::GetNPClass()")
	require.Contains(t, code, "wrong object type")

	pre, post, err := model.NpapiExprToNPVariant(global, class, ToArgs{
		Variable:   "retval",
		Expression: "object->Parent()",
		Output:     "result",
		Success:    "success",
		NPP:        "npp",
	})
	require.NoError(t, err)
	require.Contains(t, pre, "glue::class_Node::GetNPObject(npp, object->Parent());")
	require.Contains(t, post, "OBJECT_TO_NPVARIANT(retval, *result);")
	require.Contains(t, post, "NULL_TO_NPVARIANT(*result);")

	header, objExpr, err := model.NpapiDispatchFunctionHeader(global, class, "object", "npp", "success")
	require.NoError(t, err)
	require.Equal(t, "object", objExpr)
	require.Contains(t, header, "object_npobject->value()")
}

func TestByValueDispatchAndMarshal(t *testing.T) {
	class := idl.NewClass(idl.Location{},
		map[string]string{"binding_model": "by_value"}, "Color", nil, nil)
	global := finalized(t, class)
	model := modelOf(t, class)

	header, objExpr, err := model.NpapiDispatchFunctionHeader(global, class, "object", "npp", "success")
	require.NoError(t, err)
	require.Equal(t, "(*object)", objExpr)
	require.Contains(t, header, "value_mutable()")

	pre, post, err := model.NpapiExprToNPVariant(global, class, ToArgs{
		Variable:   "retval",
		Expression: "object->Mix()",
		Output:     "result",
		Success:    "success",
		NPP:        "npp",
	})
	require.NoError(t, err)
	require.Contains(t, pre, "glue::class_Color::GetNPObject(npp, object->Mix());")
	require.Contains(t, pre, "success = false;")
	require.Contains(t, post, "OBJECT_TO_NPVARIANT(retval, *result);")
}

func TestByValueMarshaledProperty(t *testing.T) {
	intType := podTypename("int", "int")
	field := idl.NewVariable(idl.Location{}, nil, "value", ref("int"))
	class := idl.NewClass(idl.Location{}, map[string]string{
		"binding_model": "by_value",
		"marshaled":     "value",
	}, "Counter", nil, []*idl.Definition{field})
	global := finalized(t, intType, class)
	model := modelOf(t, class)

	code, expr, err := model.NpapiFromNPVariant(global, class, FromArgs{
		Input:        "args[0]",
		Variable:     "param_c",
		Success:      "success",
		ErrorContext: `"Test.c"`,
		NPP:          "npp",
	})
	require.NoError(t, err)
	require.Equal(t, "param_c", expr)
	require.Contains(t, code, "Counter param_c;")
	require.Contains(t, code, "param_c.set_value(param_c_marshaled);",
		"marshaled values go in through the designated setter")
	require.Contains(t, code, "NPVARIANT_IS_NUMBER(args[0])")

	pre, post, err := model.NpapiExprToNPVariant(global, class, ToArgs{
		Variable:   "retval",
		Expression: "object->Snapshot()",
		Output:     "result",
		Success:    "success",
		NPP:        "npp",
	})
	require.NoError(t, err)
	require.Contains(t, pre, "(object->Snapshot()).value()")
	require.Contains(t, post, "INT32_TO_NPVARIANT(retval_marshaled, *result);")
}

func TestUnsizedArrayMarshal(t *testing.T) {
	intType := podTypename("int", "int")
	use := idl.NewVariable(idl.Location{}, nil, "items",
		&idl.ArrayRef{Ref: ref("int"), Size: idl.UnsizedArray})
	global := finalized(t, intType, use)
	array := use.Type
	model := modelOf(t, array)
	require.Equal(t, "unsized_array", model.BindingName())

	rep, _, err := model.CppMemberString(global, array)
	require.NoError(t, err)
	require.Equal(t, "std::vector<int >", rep)

	rep, _, err = model.CppParameterString(global, array)
	require.NoError(t, err)
	require.Equal(t, "const std::vector<int >&", rep)

	code, expr, err := model.NpapiFromNPVariant(global, array, FromArgs{
		Input:        "args[0]",
		Variable:     "param_items",
		Success:      "success",
		ErrorContext: `"Test.items"`,
		NPP:          "npp",
	})
	require.NoError(t, err)
	require.Equal(t, "param_items", expr)
	require.Contains(t, code, `NPN_GetStringIdentifier("length")`)
	require.Contains(t, code, "param_items.push_back(param_items_value);")
	require.Contains(t, code, "param_items.clear();",
		"a failed element marshal must leave the vector empty")

	pre, post, err := model.NpapiExprToNPVariant(global, array, ToArgs{
		Variable:   "retval",
		Expression: "object->Items()",
		Output:     "result",
		Success:    "success",
		NPP:        "npp",
	})
	require.NoError(t, err)
	require.Contains(t, pre, `NPN_GetStringIdentifier("Array")`)
	require.Contains(t, pre, "NPN_SetProperty(npp, retval, NPN_GetIntIdentifier(i),")
	require.Equal(t, "OBJECT_TO_NPVARIANT(retval, *result);", post)

	// The plain model never emits the length guard.
	require.NotContains(t, code, "param_items_length !=")
}

func TestSizedArrayMarshal(t *testing.T) {
	intType := podTypename("int", "int")
	use := idl.NewVariable(idl.Location{}, nil, "fixed",
		&idl.ArrayRef{Ref: ref("int"), Size: 3})
	global := finalized(t, intType, use)
	array := use.Type
	model := modelOf(t, array)
	require.Equal(t, "sized_array", model.BindingName())

	rep, _, err := model.CppMemberString(global, array)
	require.NoError(t, err)
	require.Equal(t, "std::vector<int >", rep)

	code, expr, err := model.NpapiFromNPVariant(global, array, FromArgs{
		Input:        "args[0]",
		Variable:     "param_fixed",
		Success:      "success",
		ErrorContext: `"Test.fixed"`,
		NPP:          "npp",
	})
	require.NoError(t, err)
	require.Equal(t, "param_fixed", expr)
	require.Contains(t, code, "if (param_fixed_length != 3) {")
	require.Contains(t, code, "array length does not match the declared size")
	require.Contains(t, code, "param_fixed.push_back(param_fixed_value);")
}

func TestNullableMarshal(t *testing.T) {
	class := idl.NewClass(idl.Location{}, nil, "Node", nil, nil)
	use := idl.NewVariable(idl.Location{}, nil, "maybe",
		&idl.QualifiedRef{Qualifier: "nullable", Ref: ref("Node")})
	global := finalized(t, class, use)
	nullable := use.Type
	model := modelOf(t, nullable)
	require.Equal(t, "nullable", model.BindingName())

	rep, _, err := model.CppMemberString(global, nullable)
	require.NoError(t, err)
	require.Equal(t, "Node*", rep, "nullable representation is the element's pointer form")

	code, expr, err := model.NpapiFromNPVariant(global, nullable, FromArgs{
		Input:        "args[0]",
		Variable:     "param_maybe",
		Success:      "success",
		ErrorContext: `"Test.maybe"`,
		NPP:          "npp",
	})
	require.NoError(t, err)
	require.Equal(t, "param_maybe_nullable", expr)
	require.Contains(t, code, "Node* param_maybe_nullable = NULL;")
	require.Contains(t, code, "!NPVARIANT_IS_NULL(args[0]) && !NPVARIANT_IS_VOID(args[0])")

	pre, post, err := model.NpapiExprToNPVariant(global, nullable, ToArgs{
		Variable:   "retval",
		Expression: "object->Parent()",
		Output:     "result",
		Success:    "success",
		NPP:        "npp",
	})
	require.NoError(t, err)
	require.Contains(t, pre, "bool retval_is_null = !(object->Parent());")
	require.Contains(t, post, "NULL_TO_NPVARIANT(*result);")
}

func TestCallbackGlue(t *testing.T) {
	voidType := podTypename("void", "void")
	floatType := podTypename("float", "float")
	callback := idl.NewCallback(idl.Location{}, nil, "Ticker", ref("void"),
		[]*idl.Param{{Name: "elapsed", Ref: ref("float")}})
	global := finalized(t, voidType, floatType, callback)
	model := modelOf(t, callback)
	require.Equal(t, "callback", model.BindingName())

	rep, _, err := model.CppParameterString(global, callback)
	require.NoError(t, err)
	require.Equal(t, "Ticker*", rep)

	header, err := model.NpapiBindingGlueHeader(global, callback)
	require.NoError(t, err)
	require.Contains(t, header, "class Ticker_glue : public Ticker {")
	require.Contains(t, header, "void Run(float elapsed);")
	require.Contains(t, header, "Ticker_glue *CreateObject(NPP npp, NPObject *npobject);")

	cpp, err := model.NpapiBindingGlueCpp(global, callback)
	require.NoError(t, err)
	require.Contains(t, cpp, "void Ticker_glue::Run(float elapsed) {")
	require.Contains(t, cpp, "return RunCallback(npp_, npobject_, false, elapsed);")
	require.Contains(t, cpp, "NPN_RetainObject(npobject);")

	code, expr, err := model.NpapiFromNPVariant(global, callback, FromArgs{
		Input:        "args[0]",
		Variable:     "param_cb",
		Success:      "success",
		ErrorContext: `"Test.cb"`,
		NPP:          "npp",
	})
	require.NoError(t, err)
	require.Equal(t, "param_cb", expr)
	require.Contains(t, code, "glue::callback_Ticker::CreateObject(")
	require.Contains(t, code, "a callback must be a Javascript function")
}

func TestAsyncCallbackRunsDeferred(t *testing.T) {
	voidType := podTypename("void", "void")
	callback := idl.NewCallback(idl.Location{},
		map[string]string{"async": ""}, "Notify", ref("void"), nil)
	global := finalized(t, voidType, callback)
	model := modelOf(t, callback)

	cpp, err := model.NpapiBindingGlueCpp(global, callback)
	require.NoError(t, err)
	require.Contains(t, cpp, "return RunCallback(npp_, npobject_, true);")
}

func TestInvalidUse(t *testing.T) {
	intType := podTypename("int", "int")
	global := finalized(t, intType)
	model := modelOf(t, intType)

	var useErr *InvalidUseError
	_, err := model.CppCallMethod(global, intType, "object", true, nil, nil)
	require.ErrorAs(t, err, &useErr)

	opaque := idl.NewTypename(idl.Location{Line: 12}, nil, "Opaque")
	_, err = Of(opaque)
	require.ErrorAs(t, err, &useErr)
	require.Same(t, opaque, useErr.Type)
	require.Contains(t, err.Error(), "<builtin>:12",
		"the error must identify the offending declaration")
}

func TestFunctionPrototype(t *testing.T) {
	intType := podTypename("int", "int")
	strType := podTypename("String", "string")
	fn := idl.NewFunction(idl.Location{},
		map[string]string{"static": "", "const": ""}, "Find", ref("int"),
		[]*idl.Param{
			{Name: "name", Ref: ref("String")},
			{Name: "out", Ref: ref("int"), Mutable: true},
		})
	global := finalized(t, intType, strType, fn)

	proto, needs, err := FunctionPrototype(global, fn, "")
	require.NoError(t, err)
	require.Equal(t, "static int Find(const String& name, int* out) const", proto)
	require.Len(t, needs, 3)

	proto, _, err = FunctionPrototype(global, fn, "Registry::")
	require.NoError(t, err)
	require.Contains(t, proto, "Registry::Find(")
}
