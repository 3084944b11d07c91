package cppwriter

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/crander/idlglue/internal/idl"
)

func TestSectionOrderingAndReuse(t *testing.T) {
	w := NewWriter("out.cc", false)
	first := w.CreateSection("First")
	w.EmitCode("// between")
	second := w.CreateSection("Second")

	second.EmitCode("int b;")
	first.EmitCode("int a;")
	// Re-requesting a section appends to it instead of forking a new one.
	require.Same(t, first, w.CreateSection("First"))
	w.CreateSection("First").EmitCode("int c;")

	want := []string{"int a;", "int c;", "// between", "int b;"}
	if diff := cmp.Diff(want, w.main.Lines()); diff != "" {
		t.Errorf("section order mismatch (-want +got):\n%s", diff)
	}
}

func TestLazyNamespaces(t *testing.T) {
	w := NewWriter("out.cc", false)
	w.PushNamespace("a")
	w.PushNamespace("b")
	w.EmitCode("int x;")
	w.PopNamespace()
	// Pushing b again right after popping it must not close and reopen it.
	w.PushNamespace("b")
	w.EmitCode("int y;")
	w.PopNamespace()
	w.PushNamespace("c")
	w.EmitCode("int z;")

	want := []string{
		"namespace a {",
		"namespace b {",
		"int x;",
		"int y;",
		"}  // namespace b",
		"namespace c {",
		"int z;",
		"}  // namespace c",
		"}  // namespace a",
	}
	if diff := cmp.Diff(want, w.main.Lines()); diff != "" {
		t.Errorf("namespace churn mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitCodeReindents(t *testing.T) {
	w := NewWriter("out.cc", false)
	w.EmitCode(`class A {
     public:
      if (x) {
   return;
        }
     };
namespace a {
int q;`)
	want := []string{
		"class A {",
		" public:",
		"  if (x) {",
		"    return;",
		"  }",
		"};",
		"namespace a {",
		"int q;",
	}
	if diff := cmp.Diff(want, w.main.Lines()); diff != "" {
		t.Errorf("reindent mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitTemplateCreatesSections(t *testing.T) {
	w := NewWriter("out.cc", false)
	w.EmitTemplate(`void F() {
  ${#Body}
}`)
	body := w.GetSection("Body")
	require.NotNil(t, body)
	body.EmitCode("return;")

	want := []string{
		"void F() {",
		"  return;",
		"}",
	}
	if diff := cmp.Diff(want, w.main.Lines()); diff != "" {
		t.Errorf("template section mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaderGuard(t *testing.T) {
	w := NewWriter("glue/core.h", true)
	w.EmitCode("class A;")
	content := w.Content()
	require.True(t, strings.HasPrefix(content, "#ifndef GLUE_CORE_H__\n#define GLUE_CORE_H__\n"))
	require.Contains(t, content, "#endif  // GLUE_CORE_H__")

	cc := NewWriter("glue/core.cc", false)
	cc.EmitCode("int x;")
	require.NotContains(t, cc.Content(), "#ifndef")
}

func TestIncludesDeduplicate(t *testing.T) {
	w := NewWriter("out.cc", false)
	w.AddInclude("core.h", false)
	w.AddInclude("core.h", false)
	w.AddInclude("vector", true)
	content := w.Content()
	require.Equal(t, 1, strings.Count(content, `#include "core.h"`))
	require.Contains(t, content, "#include <vector>")
}

func TestResolveNeeds(t *testing.T) {
	fileA := idl.NewSourceFile("a.idl")
	fileB := idl.NewSourceFile("b.idl")
	classA := idl.NewClass(idl.Location{File: fileA}, nil, "A", nil, nil)
	classB := idl.NewClass(idl.Location{File: fileB}, nil, "B", nil, nil)
	classOwn := idl.NewClass(idl.Location{File: fileA}, nil, "Own", nil, nil)

	w := NewWriter("out.cc", false)
	w.NeedDefinition(classA)
	w.NeedDeclaration(classB)
	w.NeedDeclaration(classOwn)
	// A definition request wins over an earlier declaration request.
	w.NeedDefinition(classOwn)

	decls := w.ResolveNeeds("")
	require.Equal(t, []*idl.Definition{classB}, decls)
	content := w.Content()
	require.Contains(t, content, `#include "a.h"`)
	require.NotContains(t, content, `#include "b.h"`)
}

func TestWriteSkipsUnchangedContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter("gen/out.cc", false)
	w.EmitCode("int x;")
	require.NoError(t, fs.MkdirAll("gen", 0o755))
	require.NoError(t, w.Write(fs))

	data, err := afero.ReadFile(fs, "gen/out.cc")
	require.NoError(t, err)
	require.Equal(t, w.Content(), string(data))

	// A matching file is left alone; a read-only filesystem proves no write
	// happens.
	require.NoError(t, w.Write(afero.NewReadOnlyFs(fs)))

	changed := NewWriter("gen/out.cc", false)
	changed.EmitCode("int y;")
	require.Error(t, changed.Write(afero.NewReadOnlyFs(fs)))
}
