package cpputil

import (
	"strings"

	"github.com/crander/idlglue/internal/idl"
)

// GlueNamespaceUnit returns the glue namespace component for one definition.
func GlueNamespaceUnit(d *idl.Definition) string {
	switch d.Kind {
	case idl.KindClass:
		return "class_" + d.Name
	case idl.KindCallback:
		return "callback_" + d.Name
	default:
		return "ns_" + d.Name
	}
}

// GlueNamespaceParts returns the glue namespace path for a definition, from
// the root 'glue' namespace down. The generated glue for every object lives
// in its own namespace so identifier tables and dispatch functions never
// collide.
func GlueNamespaceParts(d *idl.Definition) []string {
	parts := []string{"glue"}
	for _, s := range d.ParentScopeStack() {
		if s.Name != "" {
			parts = append(parts, "ns_"+s.Name)
		}
	}
	if d.Name != "" {
		parts = append(parts, GlueNamespaceUnit(d))
	}
	return parts
}

// GlueFullNamespace returns the '::'-joined glue namespace for a definition.
func GlueFullNamespace(d *idl.Definition) string {
	return strings.Join(GlueNamespaceParts(d), "::")
}
