// Package generate is the orchestration entry point: it loads the declaration
// files, finalizes the definition graph, runs the header and glue generators
// and writes the artifacts, skipping the whole run when the incremental cache
// says nothing changed.
package generate

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/crander/idlglue/internal/binding"
	"github.com/crander/idlglue/internal/cache"
	"github.com/crander/idlglue/internal/cppwriter"
	"github.com/crander/idlglue/internal/frontend"
	"github.com/crander/idlglue/internal/glue"
	"github.com/crander/idlglue/internal/header"
	"github.com/crander/idlglue/internal/idl"
)

// ManifestName is the cache manifest written beside the outputs.
const ManifestName = "idlglue_manifest.yaml"

// Options selects what one run generates.
type Options struct {
	// Inputs are the declaration files, in command-line order. The order is
	// part of the output: it decides dispatch guard order and the cache key.
	Inputs []string
	// OutputDir receives every artifact and the manifest.
	OutputDir string
	// EmitHeaders generates the declaration headers.
	EmitHeaders bool
	// EmitGlue generates the NPAPI glue.
	EmitGlue bool
	// StrictDocs makes a missing doc attribute on an exposed member an error.
	StrictDocs bool
	// Force regenerates even when the cache key matches.
	Force bool
}

// keyMaterial serializes the options that affect generated output into the
// cache key.
func (o *Options) keyMaterial() string {
	return fmt.Sprintf("inputs=%s;headers=%t;glue=%t;strictdocs=%t",
		strings.Join(o.Inputs, ","), o.EmitHeaders, o.EmitGlue, o.StrictDocs)
}

// CacheKey computes the incremental cache key for the run.
func CacheKey(fs afero.Fs, opts *Options) (string, error) {
	return cache.Key(fs, opts.Inputs, opts.keyMaterial())
}

// Run executes one generation run. A cache hit is a normal success: nothing
// is written and no error is returned.
func Run(fs afero.Fs, opts *Options) error {
	key, err := CacheKey(fs, opts)
	if err != nil {
		return err
	}
	manifestPath := path.Join(opts.OutputDir, ManifestName)
	if !opts.Force && cache.UpToDate(fs, manifestPath, key) {
		slog.Info("outputs up to date, nothing to generate", "manifest", manifestPath)
		return nil
	}

	var forest []*idl.Definition
	var files []*idl.SourceFile
	var perFile [][]*idl.Definition
	for _, input := range opts.Inputs {
		file, decls, err := frontend.LoadFile(fs, input)
		if err != nil {
			return err
		}
		files = append(files, file)
		perFile = append(perFile, decls)
		forest = append(forest, decls...)
	}

	global := idl.NewGlobalNamespace(forest)
	if err := idl.Finalize(global, binding.NewRegistry()); err != nil {
		return err
	}

	var writers []*cppwriter.Writer
	if opts.EmitHeaders {
		ws, err := header.Process(global, files, perFile, opts.OutputDir)
		if err != nil {
			return err
		}
		writers = append(writers, ws...)
	}
	if opts.EmitGlue {
		ws, err := glue.Process(global, files, perFile, glue.Options{
			OutputDir:  opts.OutputDir,
			StrictDocs: opts.StrictDocs,
		})
		if err != nil {
			return err
		}
		writers = append(writers, ws...)
	}

	if opts.OutputDir != "" {
		if err := fs.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	artifacts := make([]string, 0, len(writers))
	for _, w := range writers {
		if err := w.Write(fs); err != nil {
			return fmt.Errorf("write %s: %w", w.Filename(), err)
		}
		artifacts = append(artifacts, w.Filename())
	}

	m := &cache.Manifest{Key: key, Artifacts: artifacts}
	if err := m.Save(fs, manifestPath); err != nil {
		return err
	}
	slog.Info("generation complete", "artifacts", len(artifacts))
	return nil
}
