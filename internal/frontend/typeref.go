package frontend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crander/idlglue/internal/idl"
)

var qualifiers = map[string]bool{
	"nullable": true,
	"const":    true,
	"volatile": true,
}

// ParseTypeRef parses a type reference string into its deferred form.
// The grammar is small: a possibly scoped name ('A::B::C'), with optional
// array suffixes ('T[]', 'T[8]') and leading qualifiers ('nullable T',
// 'const T'). Qualifiers bind loosest, so 'nullable T[]' is a nullable array.
func ParseTypeRef(spec string, loc idl.Location) (idl.TypeRef, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, &SyntaxError{Location: loc, Msg: "empty type reference"}
	}
	if word, rest, ok := strings.Cut(spec, " "); ok && qualifiers[word] {
		inner, err := ParseTypeRef(rest, loc)
		if err != nil {
			return nil, err
		}
		return &idl.QualifiedRef{Location: loc, Qualifier: word, Ref: inner}, nil
	}
	if strings.HasSuffix(spec, "]") {
		open := strings.LastIndex(spec, "[")
		if open < 1 {
			return nil, &SyntaxError{Location: loc, Msg: fmt.Sprintf("malformed array reference %q", spec)}
		}
		size := idl.UnsizedArray
		if sizeSpec := spec[open+1 : len(spec)-1]; sizeSpec != "" {
			n, err := strconv.Atoi(sizeSpec)
			if err != nil || n < 0 {
				return nil, &SyntaxError{Location: loc, Msg: fmt.Sprintf("bad array size %q", sizeSpec)}
			}
			size = n
		}
		inner, err := ParseTypeRef(spec[:open], loc)
		if err != nil {
			return nil, err
		}
		return &idl.ArrayRef{Location: loc, Ref: inner, Size: size}, nil
	}
	scope, rest, ok := strings.Cut(spec, "::")
	if !ok {
		if !validIdentifier(spec) {
			return nil, &SyntaxError{Location: loc, Msg: fmt.Sprintf("invalid type name %q", spec)}
		}
		return &idl.NameRef{Location: loc, Name: spec}, nil
	}
	if !validIdentifier(scope) {
		return nil, &SyntaxError{Location: loc, Msg: fmt.Sprintf("invalid scope name %q", scope)}
	}
	inner, err := ParseTypeRef(rest, loc)
	if err != nil {
		return nil, err
	}
	return &idl.ScopedRef{Location: loc, Scope: scope, Ref: inner}, nil
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == ' ': // 'unsigned int' style names keep spaces
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
