// Package glue generates the NPAPI glue: per exposed class or namespace, the
// identifier tables, the five-function dispatch protocol plus enumeration,
// and the object lifecycle functions, with namespace fragments from different
// input files merged into one logical object.
//
// Generation runs in two passes. Pass 1 visits every file's members in
// declaration order and emits the dispatch guards into accumulating sections;
// pass 2 runs the deferred per-object finalizers, which can only emit the
// identifier tables and lifecycle functions once the complete member list is
// known.
package glue

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/crander/idlglue/internal/binding"
	"github.com/crander/idlglue/internal/cpputil"
	"github.com/crander/idlglue/internal/cppwriter"
	"github.com/crander/idlglue/internal/idl"
)

// SupportHeader is the runtime support header every generated implementation
// file includes. It carries the NPAPI includes, RunCallback, the string
// conversion helpers and the glue_support fallback lookups.
const SupportHeader = "npapi_glue_support.h"

// Options configures a generation run.
type Options struct {
	// OutputDir is prepended to every artifact filename.
	OutputDir string
	// StrictDocs makes a missing 'doc' attribute on an exposed member a
	// generation error.
	StrictDocs bool
}

// MissingDocError reports an exposed member without a doc attribute under
// strict documentation policy.
type MissingDocError struct {
	Member *idl.Definition
}

func (e *MissingDocError) Error() string {
	return fmt.Sprintf("%s: missing doc attribute on %s", e.Member.Source, e.Member.Name)
}

// Generator holds the cross-file generation state: the context map keyed by
// stable namespace identity and the ordered finalizer list.
type Generator struct {
	global *idl.Definition
	opts   Options

	contexts  map[any]*objectContext
	order     []*objectContext
	callbacks map[*idl.Definition]bool

	// writers of the file currently being visited
	headerW *cppwriter.Writer
	cppW    *cppwriter.Writer
}

// Process generates the glue for all input files and returns the writers, one
// header and one implementation per file, in file order. decls holds each
// file's top-level definitions, already finalized into the global namespace.
func Process(global *idl.Definition, files []*idl.SourceFile, decls [][]*idl.Definition, opts Options) ([]*cppwriter.Writer, error) {
	gen := &Generator{
		global:    global,
		opts:      opts,
		contexts:  map[any]*objectContext{},
		callbacks: map[*idl.Definition]bool{},
	}

	var writers []*cppwriter.Writer
	for i, file := range files {
		headerW, cppW := gen.fileWriters(file, files)
		writers = append(writers, headerW, cppW)
		gen.headerW, gen.cppW = headerW, cppW

		ctx, err := gen.namespaceContext(global)
		if err != nil {
			return nil, err
		}
		slog.Debug("generating glue", "file", file.Source)
		if err := gen.visitMembers(ctx, decls[i]); err != nil {
			return nil, err
		}
	}

	for _, ctx := range gen.order {
		if err := ctx.finalize(); err != nil {
			return nil, err
		}
	}
	if len(writers) > 0 {
		if err := gen.emitBootstrap(writers[0], writers[1]); err != nil {
			return nil, err
		}
	}
	for _, w := range writers {
		emitForwardDecls(w)
	}
	return writers, nil
}

func (g *Generator) fileWriters(file *idl.SourceFile, all []*idl.SourceFile) (*cppwriter.Writer, *cppwriter.Writer) {
	headerW := cppwriter.NewWriter(path.Join(g.opts.OutputDir, file.GlueHeader), true)
	headerW.AddInclude("npapi.h", false)
	headerW.AddInclude("npruntime.h", false)
	headerW.AddInclude("string", true)
	headerW.AddInclude("vector", true)
	headerW.CreateSection("ForwardDecls")

	cppW := cppwriter.NewWriter(path.Join(g.opts.OutputDir, file.GlueCpp), false)
	cppW.AddInclude(file.GlueHeader, false)
	cppW.AddInclude(SupportHeader, false)
	for _, f := range all {
		cppW.AddInclude(f.GlueHeader, false)
	}
	cppW.CreateSection("ForwardDecls")
	return headerW, cppW
}

// namespaceContext returns the shared context for a logical namespace,
// creating it and registering its deferred finalizer on first sight.
func (g *Generator) namespaceContext(ns *idl.Definition) (*objectContext, error) {
	key := ns.NamespaceKey()
	if ctx, ok := g.contexts[key]; ok {
		return ctx, nil
	}
	ctx, err := newObjectContext(g.global, ns, g.headerW, g.cppW)
	if err != nil {
		return nil, err
	}
	g.contexts[key] = ctx
	g.order = append(g.order, ctx)
	return ctx, nil
}

// classContext builds a fresh context for a class. Classes are declared in
// one place, so their contexts are never shared.
func (g *Generator) classContext(class *idl.Definition) (*objectContext, error) {
	ctx, err := newObjectContext(g.global, class, g.headerW, g.cppW)
	if err != nil {
		return nil, err
	}
	g.order = append(g.order, ctx)
	return ctx, nil
}

// skipMember reports whether the member is excluded from host-facing output.
func skipMember(d *idl.Definition) bool {
	return d.HasAttr("nojs") || d.HasAttr("private") || d.HasAttr("protected") || d.IsDestructor()
}

func (g *Generator) checkDoc(d *idl.Definition) error {
	if g.opts.StrictDocs && !d.HasAttr("doc") {
		return &MissingDocError{Member: d}
	}
	return nil
}

func (g *Generator) visitMembers(ctx *objectContext, members []*idl.Definition) error {
	for _, m := range members {
		if err := g.visitMember(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) visitMember(ctx *objectContext, m *idl.Definition) error {
	if m.Kind == idl.KindVerbatim {
		switch m.Attr("verbatim") {
		case "glue_cpp":
			g.cppW.EmitCode(m.Text)
		case "glue_header":
			g.headerW.EmitCode(m.Text)
		}
		return nil
	}
	if skipMember(m) {
		return nil
	}
	switch m.Kind {
	case idl.KindFunction:
		if err := g.checkDoc(m); err != nil {
			return err
		}
		if m.IsConstructor() {
			return ctx.emitConstructor(m)
		}
		return ctx.emitMethod(m)
	case idl.KindVariable:
		if err := g.checkDoc(m); err != nil {
			return err
		}
		return ctx.emitField(m)
	case idl.KindEnum:
		return ctx.emitEnum(m)
	case idl.KindClass:
		child, err := g.classContext(m)
		if err != nil {
			return err
		}
		if err := ctx.emitChildObject(m); err != nil {
			return err
		}
		return g.visitMembers(child, m.Members)
	case idl.KindNamespace:
		key := m.NamespaceKey()
		_, seen := g.contexts[key]
		child, err := g.namespaceContext(m)
		if err != nil {
			return err
		}
		if !seen {
			if err := ctx.emitChildObject(m); err != nil {
				return err
			}
		}
		return g.visitMembers(child, m.Members)
	case idl.KindCallback:
		return g.emitCallbackGlue(m)
	}
	return nil
}

// emitCallbackGlue emits the callback glue class wrapping a host function
// object behind the callback's native interface.
func (g *Generator) emitCallbackGlue(cb *idl.Definition) error {
	if g.callbacks[cb] {
		return nil
	}
	g.callbacks[cb] = true
	model, err := binding.Of(cb)
	if err != nil {
		return err
	}
	headerText, err := model.NpapiBindingGlueHeader(g.global, cb)
	if err != nil {
		return err
	}
	cppText, err := model.NpapiBindingGlueCpp(g.global, cb)
	if err != nil {
		return err
	}
	fullNS := cpputil.GlueFullNamespace(cb)
	headerSec := g.headerW.CreateSection(fullNS)
	for _, part := range cpputil.GlueNamespaceParts(cb) {
		headerSec.PushNamespace(part)
	}
	headerSec.NeedDefinition(cb)
	for _, p := range cb.Params {
		headerSec.NeedDefinition(p.Type)
	}
	headerSec.EmitCode(headerText)

	cppSec := g.cppW.CreateSection(fullNS)
	for _, part := range cpputil.GlueNamespaceParts(cb) {
		cppSec.PushNamespace(part)
	}
	cppSec.EmitCode(cppText)
	return nil
}

// emitBootstrap emits the two per-unit entry points into the first file's
// writers: one constructing every static object and one wiring base links
// against the root, in that order so the natural recursion is broken.
func (g *Generator) emitBootstrap(headerW, cppW *cppwriter.Writer) error {
	decls, err := renderTemplate(tmplBootstrapDecls, nil)
	if err != nil {
		return err
	}
	headerSec := headerW.CreateSection("Bootstrap")
	headerSec.PushNamespace("glue")
	headerSec.EmitCode(decls)

	namespaces := make([]string, 0, len(g.order))
	for _, ctx := range g.order {
		namespaces = append(namespaces, "::"+ctx.fullNS)
	}
	defs, err := renderTemplate(tmplBootstrapDefs, map[string]any{
		"Namespaces": namespaces,
		"Root":       "::glue",
	})
	if err != nil {
		return err
	}
	cppSec := cppW.CreateSection("Bootstrap")
	cppSec.PushNamespace("glue")
	cppSec.EmitCode(defs)
	return nil
}

// emitForwardDecls settles the writer's needed-type sets: full definitions
// become includes, declaration-only class types become one-line forward
// declarations at the top of the file.
func emitForwardDecls(w *cppwriter.Writer) {
	sec := w.GetSection("ForwardDecls")
	for _, t := range w.ResolveNeeds("") {
		sec.EmitCode(forwardDeclLine(t))
	}
}

func forwardDeclLine(t *idl.Definition) string {
	line := "class " + t.Name + ";"
	stack := t.ParentScopeStack()
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Name != "" {
			line = "namespace " + stack[i].Name + " { " + line + " }"
		}
	}
	return line
}
