// Package binding implements the binding models: the per-type strategies that
// decide how a type is represented in C++, how its members are called, and
// how values cross the NPAPI boundary in both directions.
//
// Each model is one stateless implementation of the Model interface. The
// built-in set is closed (eight models); the Registry keeps a registration
// hook for externally supplied ones.
package binding

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/crander/idlglue/internal/idl"
)

// FromArgs carries the inputs for marshaling a value out of an NPVariant.
type FromArgs struct {
	Input        string // expression for the NPVariant to read
	Variable     string // free variable name for the native value
	Success      string // name of the bool success flag
	ErrorContext string // string expression used in error messages
	NPP          string // variable holding the NPP instance pointer
}

// ToArgs carries the inputs for marshaling a native value into an NPVariant.
// The operation has two phases: the first allocates host resources and can
// fail, the second commits into the variant and cannot.
type ToArgs struct {
	Variable   string // free variable name for intermediate storage
	Expression string // expression yielding the native value
	Output     string // expression for the NPVariant pointer to fill
	Success    string // name of the bool success flag
	NPP        string // variable holding the NPP instance pointer
}

// Model is the strategy for one binding model. All methods are pure functions
// of their arguments; models hold no state and are shared process-wide.
//
// String-producing methods that describe a C++ representation also report
// whether the referenced type's full definition is needed (as opposed to a
// forward declaration) for the emitted code to compile.
type Model interface {
	idl.BindingModel

	CppTypedefString(scope, t *idl.Definition) (string, bool, error)
	CppMemberString(scope, t *idl.Definition) (string, bool, error)
	CppReturnValueString(scope, t *idl.Definition) (string, bool, error)
	CppParameterString(scope, t *idl.Definition) (string, bool, error)
	CppMutableParameterString(scope, t *idl.Definition) (string, bool, error)
	CppMutableToNonMutable(scope, t *idl.Definition, expr string) string
	CppBaseClassString(scope, t *idl.Definition) (string, bool, error)

	CppCallMethod(scope, t *idl.Definition, objectExpr string, mutable bool, method *idl.Definition, params []string) (string, error)
	CppCallStaticMethod(scope, t *idl.Definition, method *idl.Definition, params []string) (string, error)
	CppCallConstructor(scope, t *idl.Definition, method *idl.Definition, params []string) (string, error)
	CppSetField(scope, t *idl.Definition, objectExpr, field, param string) (string, error)
	CppGetField(scope, t *idl.Definition, objectExpr, field string) (string, error)
	CppSetStatic(scope, t *idl.Definition, field, param string) (string, error)
	CppGetStatic(scope, t *idl.Definition, field string) (string, error)

	// NpapiBindingGlueHeader and NpapiBindingGlueCpp return the per-class
	// glue object boilerplate for models that expose objects.
	NpapiBindingGlueHeader(scope, t *idl.Definition) (string, error)
	NpapiBindingGlueCpp(scope, t *idl.Definition) (string, error)

	// NpapiDispatchFunctionHeader returns the snippet opening a dispatch
	// function plus the expression that accesses the native object.
	NpapiDispatchFunctionHeader(scope, t *idl.Definition, variable, npp, success string) (string, string, error)

	// NpapiFromNPVariant returns the snippet reading a native value out of
	// an NPVariant plus the expression accessing that value. On failure the
	// snippet sets the success flag to false and fills the error handle.
	NpapiFromNPVariant(scope, t *idl.Definition, args FromArgs) (string, string, error)

	// NpapiExprToNPVariant returns the allocation-phase and commit-phase
	// snippets storing a native value into an NPVariant.
	NpapiExprToNPVariant(scope, t *idl.Definition, args ToArgs) (string, string, error)
}

// Of returns the model the finalizer cached on a type definition.
func Of(t *idl.Definition) (Model, error) {
	if t.Binding == nil {
		return nil, &InvalidUseError{Model: "<none>", Type: t,
			Op: "use of type " + t.Name + " with no binding model"}
	}
	m, ok := t.Binding.(Model)
	if !ok {
		return nil, &InvalidUseError{Model: t.Binding.BindingName(), Type: t,
			Op: "foreign binding model implementation"}
	}
	return m, nil
}

// InvalidUseError reports a binding model operation that is meaningless for
// the model it was called on, such as calling a method on a POD type. Type
// identifies the offending declaration when one is known.
type InvalidUseError struct {
	Model string
	Op    string
	Type  *idl.Definition
}

func (e *InvalidUseError) Error() string {
	if e.Type != nil {
		return fmt.Sprintf("%s: binding model %q: invalid use: %s", e.Type.Source, e.Model, e.Op)
	}
	return fmt.Sprintf("binding model %q: invalid use: %s", e.Model, e.Op)
}

// UnknownPODTypeError reports a pod-model type with an unrecognized podtype
// attribute.
type UnknownPODTypeError struct {
	PodType string
	Type    *idl.Definition
}

func (e *UnknownPODTypeError) Error() string {
	return fmt.Sprintf("%s: unknown pod type %q", e.Type.Source, e.PodType)
}

// BadVoidUsageError reports 'void' used anywhere but a return value.
type BadVoidUsageError struct {
	Type *idl.Definition
}

func (e *BadVoidUsageError) Error() string {
	return fmt.Sprintf("%s: 'void' used outside of a return value", e.Type.Source)
}

// invalid is the embedded default: every operation fails with InvalidUseError
// until a model overrides it. It keeps each model focused on the operations
// that are meaningful for it.
type invalid struct {
	name string
}

func (b invalid) BindingName() string { return b.name }

func (b invalid) err(op string) error { return &InvalidUseError{Model: b.name, Op: op} }

func (b invalid) CppTypedefString(_, _ *idl.Definition) (string, bool, error) {
	return "", false, b.err("CppTypedefString")
}

func (b invalid) CppMemberString(_, _ *idl.Definition) (string, bool, error) {
	return "", false, b.err("CppMemberString")
}

func (b invalid) CppReturnValueString(_, _ *idl.Definition) (string, bool, error) {
	return "", false, b.err("CppReturnValueString")
}

func (b invalid) CppParameterString(_, _ *idl.Definition) (string, bool, error) {
	return "", false, b.err("CppParameterString")
}

func (b invalid) CppMutableParameterString(_, _ *idl.Definition) (string, bool, error) {
	return "", false, b.err("CppMutableParameterString")
}

func (b invalid) CppMutableToNonMutable(_, _ *idl.Definition, expr string) string {
	return "*(" + expr + ")"
}

func (b invalid) CppBaseClassString(_, _ *idl.Definition) (string, bool, error) {
	return "", false, b.err("CppBaseClassString")
}

func (b invalid) CppCallMethod(_, _ *idl.Definition, _ string, _ bool, _ *idl.Definition, _ []string) (string, error) {
	return "", b.err("CppCallMethod")
}

func (b invalid) CppCallStaticMethod(_, _ *idl.Definition, _ *idl.Definition, _ []string) (string, error) {
	return "", b.err("CppCallStaticMethod")
}

func (b invalid) CppCallConstructor(_, _ *idl.Definition, _ *idl.Definition, _ []string) (string, error) {
	return "", b.err("CppCallConstructor")
}

func (b invalid) CppSetField(_, _ *idl.Definition, _, _, _ string) (string, error) {
	return "", b.err("CppSetField")
}

func (b invalid) CppGetField(_, _ *idl.Definition, _, _ string) (string, error) {
	return "", b.err("CppGetField")
}

func (b invalid) CppSetStatic(_, _ *idl.Definition, _, _ string) (string, error) {
	return "", b.err("CppSetStatic")
}

func (b invalid) CppGetStatic(_, _ *idl.Definition, _ string) (string, error) {
	return "", b.err("CppGetStatic")
}

func (b invalid) NpapiBindingGlueHeader(_, _ *idl.Definition) (string, error) {
	return "", b.err("NpapiBindingGlueHeader")
}

func (b invalid) NpapiBindingGlueCpp(_, _ *idl.Definition) (string, error) {
	return "", b.err("NpapiBindingGlueCpp")
}

func (b invalid) NpapiDispatchFunctionHeader(_, _ *idl.Definition, _, _, _ string) (string, string, error) {
	return "", "", b.err("NpapiDispatchFunctionHeader")
}

func (b invalid) NpapiFromNPVariant(_, _ *idl.Definition, _ FromArgs) (string, string, error) {
	return "", "", b.err("NpapiFromNPVariant")
}

func (b invalid) NpapiExprToNPVariant(_, _ *idl.Definition, _ ToArgs) (string, string, error) {
	return "", "", b.err("NpapiExprToNPVariant")
}

func mustTmpl(name, body string) *template.Template {
	return template.Must(template.New(name).Parse(body))
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		// Template inputs are generator-controlled strings; execution
		// cannot fail on them.
		panic(err)
	}
	return buf.String()
}

// indentLines prefixes every non-empty line of text so nested snippets land
// at the right depth inside an enclosing template.
func indentLines(text, prefix string) string {
	for len(text) > 0 && text[len(text)-1] == '\n' {
		text = text[:len(text)-1]
	}
	var buf bytes.Buffer
	start := 0
	for start < len(text) {
		end := start
		for end < len(text) && text[end] != '\n' {
			end++
		}
		line := text[start:end]
		if line != "" {
			buf.WriteString(prefix)
			buf.WriteString(line)
		}
		if end < len(text) {
			buf.WriteByte('\n')
		}
		start = end + 1
	}
	return buf.String()
}

func joinParams(params []string) string {
	out := ""
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
