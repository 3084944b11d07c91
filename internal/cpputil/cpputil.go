// Package cpputil has small helpers shared by the C++ emitters: scoped name
// computation, accessor naming and header guard tokens.
package cpputil

import (
	"regexp"
	"strings"

	"github.com/crander/idlglue/internal/idl"
	"github.com/crander/idlglue/internal/naming"
)

// CommonPrefixLen returns the highest n such that a[:n] equals b[:n].
func CommonPrefixLen(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func scopeNames(defs []*idl.Definition) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// ScopePrefixWith returns the scope prefix needed to reference t from scope,
// joined with the given scope operator ('::' for C++, '.' for the host).
func ScopePrefixWith(scope, t *idl.Definition, op string) string {
	typeStack := t.ParentScopeStack()
	scopeStack := append(scope.ParentScopeStack(), scope)
	common := CommonPrefixLen(scopeNames(scopeStack), scopeNames(typeStack))
	var parts []string
	for _, s := range typeStack[common:] {
		parts = append(parts, s.Name)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, op) + op
}

// ScopePrefix returns the C++ scope prefix needed to reference t from scope.
func ScopePrefix(scope, t *idl.Definition) string {
	return ScopePrefixWith(scope, t, "::")
}

// ScopedName returns the minimal qualified C++ name for t as seen from scope.
func ScopedName(scope, t *idl.Definition) string {
	return ScopePrefix(scope, t) + t.Name
}

// GetterName returns the C++ getter name for a field, honoring the 'getter'
// attribute override.
func GetterName(field *idl.Definition) string {
	if name := field.Attr("getter"); name != "" {
		return name
	}
	return naming.Normalize(field.Name, naming.Lower)
}

// SetterName returns the C++ setter name for a field, honoring the 'setter'
// attribute override.
func SetterName(field *idl.Definition) string {
	if name := field.Attr("setter"); name != "" {
		return name
	}
	return "set_" + naming.Normalize(field.Name, naming.Lower)
}

var headerTokenRe = regexp.MustCompile(`[^A-Z0-9_]`)

// HeaderToken generates the header guard token for a filename.
func HeaderToken(filename string) string {
	return headerTokenRe.ReplaceAllString(strings.ToUpper(filename), "_") + "__"
}
