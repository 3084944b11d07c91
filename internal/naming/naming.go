// Package naming converts member names between the identifier styles used by
// the generated code: snake_case accessors on the C++ side, camelCase
// identifiers on the scripting-host side.
package naming

import "github.com/iancoleman/strcase"

// Style selects an identifier convention.
type Style int

const (
	// Java is lowerCamelCase, used for scripting-host identifiers.
	Java Style = iota
	// Capitalized is UpperCamelCase, used for generated type and function
	// names.
	Capitalized
	// Lower is snake_case, used for C++ accessors and fields.
	Lower
	// Upper is SCREAMING_SNAKE_CASE, used for identifier-table enum entries.
	Upper
)

// Normalize renders name in the given style.
func Normalize(name string, style Style) string {
	switch style {
	case Java:
		return strcase.ToLowerCamel(name)
	case Capitalized:
		return strcase.ToCamel(name)
	case Lower:
		return strcase.ToSnake(name)
	case Upper:
		return strcase.ToScreamingSnake(name)
	}
	return name
}
