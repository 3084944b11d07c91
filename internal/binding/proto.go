package binding

import (
	"strings"

	"github.com/crander/idlglue/internal/idl"
)

// NeedType records that emitted code references a type, either needing its
// full definition or just a forward declaration.
type NeedType struct {
	NeedsDefinition bool
	Type            *idl.Definition
}

// ParamPrototype returns the declaration of one parameter in a function
// prototype, plus the types the declaration depends on.
func ParamPrototype(scope *idl.Definition, p *idl.Param) (string, []NeedType, error) {
	model, err := Of(p.Type)
	if err != nil {
		return "", nil, err
	}
	var text string
	var needDefn bool
	if p.Mutable {
		text, needDefn, err = model.CppMutableParameterString(scope, p.Type)
	} else {
		text, needDefn, err = model.CppParameterString(scope, p.Type)
	}
	if err != nil {
		return "", nil, err
	}
	return text + " " + p.Name, []NeedType{{needDefn, p.Type}}, nil
}

// FunctionPrototype returns the C++ prototype for a function, with idPrefix
// prepended to the identifier (e.g. 'Class::' for an out-of-line member
// definition), plus the types the prototype depends on.
func FunctionPrototype(scope, fn *idl.Definition, idPrefix string) (string, []NeedType, error) {
	var checkTypes []NeedType
	var paramStrings []string
	for _, p := range fn.Params {
		s, needs, err := ParamPrototype(scope, p)
		if err != nil {
			return "", nil, err
		}
		checkTypes = append(checkTypes, needs...)
		paramStrings = append(paramStrings, s)
	}
	params := strings.Join(paramStrings, ", ")

	var prefix string
	for _, attr := range []string{"static", "virtual", "inline"} {
		if fn.HasAttr(attr) {
			prefix += attr + " "
		}
	}
	var suffix string
	if fn.HasAttr("const") {
		suffix += " const"
	}
	if fn.HasAttr("pure") {
		suffix += " = 0"
	}

	if fn.Type == nil {
		return prefix + idPrefix + fn.Name + "(" + params + ")" + suffix, checkTypes, nil
	}
	model, err := Of(fn.Type)
	if err != nil {
		return "", nil, err
	}
	ret, needDefn, err := model.CppReturnValueString(scope, fn.Type)
	if err != nil {
		return "", nil, err
	}
	checkTypes = append(checkTypes, NeedType{needDefn, fn.Type})
	return prefix + ret + " " + idPrefix + fn.Name + "(" + params + ")" + suffix, checkTypes, nil
}
