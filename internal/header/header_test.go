package header

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/crander/idlglue/internal/binding"
	"github.com/crander/idlglue/internal/frontend"
	"github.com/crander/idlglue/internal/idl"
)

const mainInput = `decls:
  - kind: typename
    name: int
    attributes:
      podtype: int
  - kind: typename
    name: float
    attributes:
      podtype: float
  - kind: typename
    name: String
    attributes:
      podtype: string
  - kind: verbatim
    attributes:
      verbatim: cpp_header
    text: "#include <cmath>"
  - kind: namespace
    name: scene
    members:
      - kind: verbatim
        attributes:
          verbatim: docs
          name: Node
          type: Class
        text: "A scene node."
      - kind: class
        name: Node
        members:
          - kind: function
            name: Node
          - kind: variable
            name: x
            type: float
          - kind: variable
            name: frameCount
            type: int
            attributes:
              getter: ""
              setter: ""
          - kind: function
            name: Update
            type: void
            params:
              - name: dt
                type: float
      - kind: class
        name: Shape
        base: Node
        members:
          - kind: function
            name: Area
            type: float
            attributes:
              const: ""
      - kind: enum
        name: Mode
        values:
          - name: MODE_A
          - name: MODE_B
            value: 4
      - kind: typedef
        name: Real
        type: float
  - kind: typename
    name: void
    attributes:
      podtype: void
`

const otherInput = `decls:
  - kind: class
    name: Holder
    members:
      - kind: variable
        name: node
        type: scene::Node
  - kind: typedef
    name: Scalar
    type: float
`

func generateHeaders(t *testing.T, outputDir string) map[string]string {
	t.Helper()
	fs := afero.NewMemMapFs()
	inputs := map[string]string{"main.idl": mainInput, "other.idl": otherInput}
	for path, content := range inputs {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	var forest []*idl.Definition
	var files []*idl.SourceFile
	var perFile [][]*idl.Definition
	for _, path := range []string{"main.idl", "other.idl"} {
		file, decls, err := frontend.LoadFile(fs, path)
		require.NoError(t, err)
		files = append(files, file)
		perFile = append(perFile, decls)
		forest = append(forest, decls...)
	}
	global := idl.NewGlobalNamespace(forest)
	require.NoError(t, idl.Finalize(global, binding.NewRegistry()))
	writers, err := Process(global, files, perFile, outputDir)
	require.NoError(t, err)
	out := map[string]string{}
	for _, w := range writers {
		out[w.Filename()] = w.Content()
	}
	return out
}

func TestGenerateArtifactNames(t *testing.T) {
	out := generateHeaders(t, "")
	require.Contains(t, out, "main.h")
	require.Contains(t, out, "other.h")

	nested := generateHeaders(t, "gen")
	require.Contains(t, nested, "gen/main.h")
	require.Contains(t, nested, "gen/other.h")
}

func TestClassDeclaration(t *testing.T) {
	main := generateHeaders(t, "")["main.h"]

	require.True(t, strings.HasPrefix(main, "#ifndef MAIN_H__"))
	require.Contains(t, main, "namespace scene {")
	require.Contains(t, main, "class Node {")
	require.Contains(t, main, "class Shape : public Node {")
	require.Contains(t, main, "Node();")
	require.Contains(t, main, "void Update(float dt);")
	require.Contains(t, main, "float Area() const;")
	require.Contains(t, main, "public:")
}

func TestPlainMembersArePrivate(t *testing.T) {
	main := generateHeaders(t, "")["main.h"]

	require.Contains(t, main, "private:")
	require.Contains(t, main, "float x;")

	// A plain field is storage only. The class body must close after the
	// private section, with no accessor generated for it.
	require.NotContains(t, main, "float x() const")
}

func TestAccessorGeneration(t *testing.T) {
	main := generateHeaders(t, "")["main.h"]

	// The member keeps its declared spelling; only the accessors take the
	// lower_case names.
	require.Contains(t, main, "int frameCount;")
	require.Contains(t, main, "int frame_count() const { return frameCount; }")
	require.Contains(t, main, "void set_frame_count(int value) { frameCount = value; }")
}

func TestEnumAndTypedef(t *testing.T) {
	main := generateHeaders(t, "")["main.h"]

	require.Contains(t, main, "enum Mode {")
	require.Contains(t, main, "MODE_A,")
	require.Contains(t, main, "MODE_B = 4,")
	require.Contains(t, main, "typedef float Real;")
}

func TestVerbatimAndDocs(t *testing.T) {
	main := generateHeaders(t, "")["main.h"]

	require.Contains(t, main, "#include <cmath>")
	require.Contains(t, main, "/*! ")
	require.Contains(t, main, "* A scene node.")
	require.Contains(t, main, "*/")
	// The doc block attaches right before the class it names.
	require.Less(t, strings.Index(main, "* A scene node."), strings.Index(main, "class Node {"))
}

func TestCrossFileReferences(t *testing.T) {
	other := generateHeaders(t, "")["other.h"]

	// A pointer member only needs the class declared, so the other file's
	// class becomes a forward declaration rather than an include.
	require.Contains(t, other, "class Node;")
	require.Contains(t, other, "scene::Node* node;")

	// The typedef needs the underlying type's full definition.
	require.Contains(t, other, `#include "main.h"`)
}

func TestForwardDeclRejectsInnerTypes(t *testing.T) {
	loc := idl.Location{}
	ns := idl.NewNamespace(loc, nil, "app", nil)
	inner := idl.NewClass(loc, nil, "Inner", nil, nil)
	inner.Parent = idl.NewClass(loc, nil, "Outer", nil, nil)
	inner.Parent.Parent = ns

	var fdErr *BadForwardDeclarationError
	err := forwardDecl(nil, inner)
	require.ErrorAs(t, err, &fdErr)
	require.Same(t, inner, fdErr.Type)

	fn := idl.NewFunction(loc, nil, "Run", nil, nil)
	fn.Parent = ns
	require.ErrorAs(t, forwardDecl(nil, fn), &fdErr)
}
