package frontend

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/crander/idlglue/internal/idl"
)

const mathDoc = `decls:
  - kind: typename
    name: float
    attributes:
      podtype: float
  - kind: namespace
    name: math
    members:
      - kind: class
        name: Vector
        base: Tuple
        attributes:
          doc: a 3d vector
        members:
          - kind: variable
            name: x
            type: float
          - kind: function
            name: Dot
            type: float
            params:
              - name: other
                type: Vector
      - kind: enum
        name: Mode
        values:
          - name: MODE_A
          - name: MODE_B
            value: 4
      - kind: typedef
        name: Real
        type: float
  - kind: verbatim
    attributes:
      verbatim: cpp_header
    text: "#include <cmath>"
`

func writeInput(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeInput(t, fs, "defs/math.idl", mathDoc)

	file, decls, err := LoadFile(fs, "defs/math.idl")
	require.NoError(t, err)

	require.Equal(t, "defs/math.idl", file.Source)
	require.Equal(t, "math", file.Basename)
	require.Equal(t, "math.h", file.Header)
	require.Equal(t, "npapi_math_glue.h", file.GlueHeader)
	require.Equal(t, "npapi_math_glue.cc", file.GlueCpp)

	require.Len(t, decls, 3)
	require.Equal(t, idl.KindTypename, decls[0].Kind)
	require.Equal(t, "float", decls[0].Attr("podtype"))

	ns := decls[1]
	require.Equal(t, idl.KindNamespace, ns.Kind)
	require.Equal(t, "math", ns.Name)
	require.Len(t, ns.Members, 3)

	class := ns.Members[0]
	require.Equal(t, idl.KindClass, class.Kind)
	require.Equal(t, "Vector", class.Name)
	require.Equal(t, "a 3d vector", class.Attr("doc"))
	require.Equal(t, "Tuple", class.BaseRef.String())
	require.Same(t, class, class.Members[0].Parent)

	field := class.Members[0]
	require.Equal(t, idl.KindVariable, field.Kind)
	require.Equal(t, "float", field.Ref.String())

	method := class.Members[1]
	require.Equal(t, idl.KindFunction, method.Kind)
	require.Len(t, method.Params, 1)
	require.Equal(t, "other", method.Params[0].Name)
	require.Equal(t, "Vector", method.Params[0].Ref.String())

	enum := ns.Members[1]
	want := []idl.EnumValue{
		{Name: "MODE_A"},
		{Name: "MODE_B", Value: "4", HasValue: true},
	}
	if diff := cmp.Diff(want, enum.Values); diff != "" {
		t.Errorf("enum values mismatch (-want +got):\n%s", diff)
	}

	verbatim := decls[2]
	require.Equal(t, idl.KindVerbatim, verbatim.Kind)
	require.Equal(t, "#include <cmath>", verbatim.Text)
	require.Equal(t, "cpp_header", verbatim.Attr("verbatim"))

	require.Equal(t, 2, decls[0].Source.Line, "locations should track the declaration's line")
	require.Same(t, file, decls[0].Source.File)
}

func TestLoadConcatenatesFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeInput(t, fs, "a.idl", "decls:\n  - kind: typename\n    name: A\n")
	writeInput(t, fs, "b.idl", "decls:\n  - kind: typename\n    name: B\n")

	forest, files, err := Load(fs, []string{"a.idl", "b.idl"})
	require.NoError(t, err)
	require.Len(t, forest, 2)
	require.Len(t, files, 2)
	require.Equal(t, "A", forest[0].Name)
	require.Equal(t, "B", forest[1].Name)
	require.Equal(t, "a", files[0].Basename)
	require.Equal(t, "b", files[1].Basename)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		syntax  bool
	}{
		{
			name:    "not yaml",
			content: "decls: [",
		},
		{
			name:    "missing kind",
			content: "decls:\n  - name: Thing\n",
			syntax:  true,
		},
		{
			name:    "unknown kind",
			content: "decls:\n  - kind: struct\n    name: Thing\n",
			syntax:  true,
		},
		{
			name:    "bad member type",
			content: "decls:\n  - kind: variable\n    name: x\n    type: \"9bad\"\n",
			syntax:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeInput(t, fs, "in.idl", tt.content)
			_, _, err := LoadFile(fs, "in.idl")
			require.Error(t, err)
			if tt.syntax {
				var synErr *SyntaxError
				require.ErrorAs(t, err, &synErr)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadFile(afero.NewMemMapFs(), "nope.idl")
		require.Error(t, err)
	})
}

func TestParseTypeRef(t *testing.T) {
	loc := idl.Location{}
	tests := []struct {
		name string
		spec string
		want idl.TypeRef
	}{
		{
			name: "bare name",
			spec: "Foo",
			want: &idl.NameRef{Name: "Foo"},
		},
		{
			name: "spaced builtin name",
			spec: "unsigned int",
			want: &idl.NameRef{Name: "unsigned int"},
		},
		{
			name: "scoped",
			spec: "math::Vector",
			want: &idl.ScopedRef{Scope: "math", Ref: &idl.NameRef{Name: "Vector"}},
		},
		{
			name: "deeply scoped",
			spec: "a::b::C",
			want: &idl.ScopedRef{Scope: "a", Ref: &idl.ScopedRef{Scope: "b", Ref: &idl.NameRef{Name: "C"}}},
		},
		{
			name: "unsized array",
			spec: "Foo[]",
			want: &idl.ArrayRef{Ref: &idl.NameRef{Name: "Foo"}, Size: idl.UnsizedArray},
		},
		{
			name: "sized array",
			spec: "Foo[8]",
			want: &idl.ArrayRef{Ref: &idl.NameRef{Name: "Foo"}, Size: 8},
		},
		{
			name: "nullable",
			spec: "nullable Foo",
			want: &idl.QualifiedRef{Qualifier: "nullable", Ref: &idl.NameRef{Name: "Foo"}},
		},
		{
			name: "nullable binds loosest",
			spec: "nullable Foo[]",
			want: &idl.QualifiedRef{
				Qualifier: "nullable",
				Ref:       &idl.ArrayRef{Ref: &idl.NameRef{Name: "Foo"}, Size: idl.UnsizedArray},
			},
		},
		{
			name: "const qualifier",
			spec: "const String",
			want: &idl.QualifiedRef{Qualifier: "const", Ref: &idl.NameRef{Name: "String"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTypeRef(tt.spec, loc)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseTypeRef(%q) mismatch (-want +got):\n%s", tt.spec, diff)
			}
		})
	}
}

func TestParseTypeRefErrors(t *testing.T) {
	specs := []string{
		"",
		"   ",
		"[]",
		"Foo[x]",
		"Foo[-1]",
		"9abc",
		"::Foo",
		"math::",
	}
	for _, spec := range specs {
		t.Run("spec "+spec, func(t *testing.T) {
			_, err := ParseTypeRef(spec, idl.Location{})
			var synErr *SyntaxError
			require.ErrorAs(t, err, &synErr, "spec %q should be rejected", spec)
		})
	}
}
