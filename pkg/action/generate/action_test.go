package generate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/crander/idlglue/internal/cache"
	"github.com/crander/idlglue/internal/frontend"
)

const sceneInput = `decls:
  - kind: typename
    name: void
    attributes:
      podtype: void
  - kind: typename
    name: float
    attributes:
      podtype: float
  - kind: namespace
    name: scene
    members:
      - kind: class
        name: Node
        members:
          - kind: variable
            name: x
            type: float
          - kind: function
            name: Translate
            type: void
            params:
              - name: dx
                type: float
`

func sceneFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "scene.idl", []byte(sceneInput), 0o644))
	return fs
}

func readAll(t *testing.T, fs afero.Fs, paths []string) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, p := range paths {
		data, err := afero.ReadFile(fs, p)
		require.NoError(t, err)
		out[p] = string(data)
	}
	return out
}

func TestRunWritesArtifactsAndManifest(t *testing.T) {
	fs := sceneFs(t)
	opts := &Options{
		Inputs:      []string{"scene.idl"},
		OutputDir:   "gen",
		EmitHeaders: true,
		EmitGlue:    true,
	}
	require.NoError(t, Run(fs, opts))

	m, err := cache.Load(fs, "gen/"+ManifestName)
	require.NoError(t, err)
	want := []string{
		"gen/scene.h",
		"gen/npapi_scene_glue.h",
		"gen/npapi_scene_glue.cc",
	}
	if diff := cmp.Diff(want, m.Artifacts); diff != "" {
		t.Errorf("manifest artifacts mismatch (-want +got):\n%s", diff)
	}

	key, err := CacheKey(fs, opts)
	require.NoError(t, err)
	require.Equal(t, key, m.Key)

	files := readAll(t, fs, m.Artifacts)
	require.Contains(t, files["gen/scene.h"], "class Node {")
	require.Contains(t, files["gen/npapi_scene_glue.cc"], "object->Translate(param_dx);")
}

func TestRunSkipsWhenUpToDate(t *testing.T) {
	fs := sceneFs(t)
	opts := &Options{Inputs: []string{"scene.idl"}, OutputDir: "gen", EmitHeaders: true}
	require.NoError(t, Run(fs, opts))

	// A second run against a read-only filesystem must be a pure cache hit:
	// anything it tried to write would error.
	require.NoError(t, Run(afero.NewReadOnlyFs(fs), opts))
}

func TestRunRegeneratesWhenInputChanges(t *testing.T) {
	fs := sceneFs(t)
	opts := &Options{Inputs: []string{"scene.idl"}, OutputDir: "gen", EmitHeaders: true}
	require.NoError(t, Run(fs, opts))
	before, err := cache.Load(fs, "gen/"+ManifestName)
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, "scene.idl",
		[]byte(sceneInput+"          - kind: variable\n            name: y\n            type: float\n"), 0o644))
	require.NoError(t, Run(fs, opts))
	after, err := cache.Load(fs, "gen/"+ManifestName)
	require.NoError(t, err)
	require.NotEqual(t, before.Key, after.Key)

	header, err := afero.ReadFile(fs, "gen/scene.h")
	require.NoError(t, err)
	require.Contains(t, string(header), "float y;")
}

func TestRunForceBypassesCache(t *testing.T) {
	fs := sceneFs(t)
	opts := &Options{Inputs: []string{"scene.idl"}, OutputDir: "gen", EmitHeaders: true}
	require.NoError(t, Run(fs, opts))

	// Force re-runs the generators even though the key still matches.
	require.NoError(t, fs.Remove("gen/scene.h"))
	require.NoError(t, Run(fs, &Options{
		Inputs: []string{"scene.idl"}, OutputDir: "gen", EmitHeaders: true, Force: true,
	}))
	exists, err := afero.Exists(fs, "gen/scene.h")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestOptionsChangeTheKey(t *testing.T) {
	fs := sceneFs(t)
	headers := &Options{Inputs: []string{"scene.idl"}, EmitHeaders: true}
	both := &Options{Inputs: []string{"scene.idl"}, EmitHeaders: true, EmitGlue: true}

	k1, err := CacheKey(fs, headers)
	require.NoError(t, err)
	k2, err := CacheKey(fs, both)
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)

	// OutputDir moves the artifacts but does not change what is generated.
	relocated := &Options{Inputs: []string{"scene.idl"}, OutputDir: "elsewhere", EmitHeaders: true}
	k3, err := CacheKey(fs, relocated)
	require.NoError(t, err)
	require.Equal(t, k1, k3)
}

func TestRunPropagatesErrors(t *testing.T) {
	fs := sceneFs(t)

	err := Run(fs, &Options{Inputs: []string{"missing.idl"}, EmitHeaders: true})
	require.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "broken.idl", []byte("decls:\n  - kind: teapot\n"), 0o644))
	var synErr *frontend.SyntaxError
	err = Run(fs, &Options{Inputs: []string{"broken.idl"}, EmitHeaders: true})
	require.ErrorAs(t, err, &synErr)
}
