// Package header generates the C++ declaration headers for the native types
// declared in the input files: classes with access sections, typedefs, enums,
// fields with their accessors, and verbatim cpp_header blocks, with includes
// and forward declarations computed from the types each file references.
package header

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/crander/idlglue/internal/binding"
	"github.com/crander/idlglue/internal/cpputil"
	"github.com/crander/idlglue/internal/cppwriter"
	"github.com/crander/idlglue/internal/idl"
)

// BadForwardDeclarationError reports a forward declaration that C++ cannot
// express: an inner type or a non-class.
type BadForwardDeclarationError struct {
	Type *idl.Definition
}

func (e *BadForwardDeclarationError) Error() string {
	return fmt.Sprintf("%s: type %s cannot be forward-declared", e.Type.Source, e.Type.Name)
}

// typeSet is an insertion-ordered set of definitions, so generated includes
// and forward declarations come out in first-reference order.
type typeSet struct {
	order []*idl.Definition
	seen  map[*idl.Definition]bool
}

func newTypeSet() *typeSet {
	return &typeSet{seen: map[*idl.Definition]bool{}}
}

func (s *typeSet) add(t *idl.Definition) {
	if !s.seen[t] {
		s.seen[t] = true
		s.order = append(s.order, t)
	}
}

func (s *typeSet) has(t *idl.Definition) bool { return s.seen[t] }

// Generator emits one header per input file. The per-file needed/emitted
// bookkeeping decides which referenced types turn into includes and which
// into forward declarations.
type Generator struct {
	outputDir string

	emitted    map[*idl.Definition]bool
	neededDecl *typeSet
	neededDefn *typeSet
}

// NewGenerator returns a header generator writing under outputDir.
func NewGenerator(outputDir string) *Generator {
	return &Generator{outputDir: outputDir}
}

// Process generates the headers for all input files, in file order.
func Process(global *idl.Definition, files []*idl.SourceFile, decls [][]*idl.Definition, outputDir string) ([]*cppwriter.Writer, error) {
	gen := NewGenerator(outputDir)
	var writers []*cppwriter.Writer
	for i, file := range files {
		w, err := gen.Generate(file, global, decls[i])
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	return writers, nil
}

// Generate builds the header writer for one input file.
func (g *Generator) Generate(file *idl.SourceFile, global *idl.Definition, decls []*idl.Definition) (*cppwriter.Writer, error) {
	g.emitted = map[*idl.Definition]bool{}
	g.neededDecl = newTypeSet()
	g.neededDefn = newTypeSet()

	w := cppwriter.NewWriter(path.Join(g.outputDir, file.Header), true)
	declSection := w.CreateSection("decls")
	codeSection := w.CreateSection("defns")

	if err := g.definitionList(codeSection, global, decls); err != nil {
		return nil, err
	}

	for _, t := range g.neededDecl.order {
		if g.neededDefn.has(t) {
			continue
		}
		if err := forwardDecl(declSection, t); err != nil {
			return nil, err
		}
	}
	for _, t := range g.neededDefn.order {
		if inc := t.DefinitionInclude(); inc != "" && inc != file.Header {
			w.AddInclude(inc, false)
		}
	}
	return w, nil
}

// forwardDecl emits the forward declaration of a class. Inner types cannot be
// forward-declared in C++.
func forwardDecl(section *cppwriter.Section, t *idl.Definition) error {
	if t.Kind != idl.KindClass || (t.Parent != nil && t.Parent.Kind != idl.KindNamespace) {
		return &BadForwardDeclarationError{Type: t}
	}
	stack := t.ParentScopeStack()
	for _, scope := range stack {
		if scope.Name != "" {
			section.PushNamespace(scope.Name)
		}
	}
	section.EmitCode("class " + t.Name + ";")
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Name != "" {
			section.PopNamespace()
		}
	}
	return nil
}

// sectionFromAttributes picks the access section for a class member based on
// its attributes; members of namespaces use the parent section directly.
func sectionFromAttributes(parent *cppwriter.Section, d *idl.Definition) *cppwriter.Section {
	if d.Parent == nil || d.Parent.Kind != idl.KindClass {
		return parent
	}
	label := "public:"
	if d.HasAttr("private") {
		label = "private:"
	} else if d.HasAttr("protected") {
		label = "protected:"
	}
	if s := parent.GetSection(label); s != nil {
		return s
	}
	return parent
}

func (g *Generator) definitionList(section *cppwriter.Section, scope *idl.Definition, list []*idl.Definition) error {
	for _, d := range list {
		g.emitted[d] = true
		if err := g.definition(section, scope, d); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) definition(section *cppwriter.Section, scope, d *idl.Definition) error {
	switch d.Kind {
	case idl.KindNamespace:
		g.documentation(section, scope, d)
		section.PushNamespace(d.Name)
		if err := g.definitionList(section, d, d.Members); err != nil {
			return err
		}
		section.PopNamespace()
		return nil
	case idl.KindClass:
		return g.class(section, scope, d)
	case idl.KindFunction:
		return g.function(section, scope, d)
	case idl.KindVariable:
		return g.variable(section, scope, d)
	case idl.KindEnum:
		g.enum(section, scope, d)
		return nil
	case idl.KindTypedef:
		return g.typedef(section, scope, d)
	case idl.KindVerbatim:
		g.verbatim(section, d)
		return nil
	case idl.KindTypename, idl.KindCallback:
		// Opaque types have no C++ rendition; callback interfaces are
		// declared by the user's support code.
		return nil
	}
	return nil
}

func (g *Generator) class(parent *cppwriter.Section, scope, d *idl.Definition) error {
	g.documentation(parent, scope, d)
	section := sectionFromAttributes(parent, d).CreateSection(d.Name)
	base, err := d.BaseSafe()
	if err != nil {
		return err
	}
	if base != nil {
		model, err := binding.Of(base)
		if err != nil {
			return err
		}
		baseString, _, err := model.CppBaseClassString(scope, base)
		if err != nil {
			return err
		}
		section.EmitCode(fmt.Sprintf("class %s : public %s {", d.Name, baseString))
		g.checkType(true, base)
	} else {
		section.EmitCode("class " + d.Name + " {")
	}
	public := section.CreateSection("public:")
	protected := section.CreateSection("protected:")
	private := section.CreateSection("private:")
	if err := g.definitionList(section, d, d.Members); err != nil {
		return err
	}
	if !public.IsEmpty() {
		public.AddPrefix("public:")
	}
	if !protected.IsEmpty() {
		protected.AddPrefix("protected:")
	}
	if !private.IsEmpty() {
		private.AddPrefix("private:")
	}
	section.EmitCode("};")
	return nil
}

func (g *Generator) function(parent *cppwriter.Section, scope, d *idl.Definition) error {
	section := sectionFromAttributes(parent, d)
	g.documentation(section, scope, d)
	prototype, needs, err := binding.FunctionPrototype(scope, d, "")
	if err != nil {
		return err
	}
	section.EmitCode(prototype + ";")
	for _, n := range needs {
		g.checkType(n.NeedsDefinition, n.Type)
	}
	return nil
}

// variable emits the member declaration plus inline accessors when the
// getter/setter attributes ask for them. The member keeps its declared name
// so generated call sites and the header agree.
func (g *Generator) variable(parent *cppwriter.Section, scope, d *idl.Definition) error {
	memberSection := parent
	if d.Parent != nil && d.Parent.Kind == idl.KindClass {
		label := "private:"
		if access := d.Attr("field_access"); access != "" {
			label = access + ":"
		}
		if s := parent.GetSection(label); s != nil {
			memberSection = s
		}
	}
	accessorSection := sectionFromAttributes(parent, d)

	model, err := binding.Of(d.Type)
	if err != nil {
		return err
	}
	typeString, needDefn, err := model.CppMemberString(scope, d.Type)
	if err != nil {
		return err
	}
	g.checkType(needDefn, d.Type)

	static := ""
	if d.HasAttr("static") {
		static = "static "
	}
	g.documentation(memberSection, scope, d)
	memberSection.EmitCode(fmt.Sprintf("%s%s %s;", static, typeString, d.Name))

	if d.HasAttr("getter") {
		returnType, needDefn, err := model.CppReturnValueString(scope, d.Type)
		if err != nil {
			return err
		}
		g.checkType(needDefn, d.Type)
		g.accessorDocumentation(accessorSection, "Accessor", typeString, d.Name)
		accessorSection.EmitCode(fmt.Sprintf("%s%s %s() const { return %s; }",
			static, returnType, cpputil.GetterName(d), d.Name))
	}
	if d.HasAttr("setter") {
		paramType, needDefn, err := model.CppParameterString(scope, d.Type)
		if err != nil {
			return err
		}
		g.checkType(needDefn, d.Type)
		g.accessorDocumentation(accessorSection, "Mutator", typeString, d.Name)
		accessorSection.EmitCode(fmt.Sprintf("%svoid %s(%s value) { %s = value; }",
			static, cpputil.SetterName(d), paramType, d.Name))
	}
	return nil
}

func (g *Generator) enum(parent *cppwriter.Section, scope, d *idl.Definition) {
	section := sectionFromAttributes(parent, d)
	g.documentation(parent, scope, d)
	section.EmitCode("enum " + d.Name + " {")
	for _, v := range d.Values {
		if v.HasValue {
			section.EmitCode(fmt.Sprintf("%s = %s,", v.Name, v.Value))
		} else {
			section.EmitCode(v.Name + ",")
		}
	}
	section.EmitCode("};")
}

func (g *Generator) typedef(parent *cppwriter.Section, scope, d *idl.Definition) error {
	section := sectionFromAttributes(parent, d)
	model, err := binding.Of(d.Type)
	if err != nil {
		return err
	}
	typeString, _, err := model.CppTypedefString(scope, d.Type)
	if err != nil {
		return err
	}
	section.EmitCode(fmt.Sprintf("typedef %s %s;", typeString, d.Name))
	g.checkType(true, d.Type)
	return nil
}

func (g *Generator) verbatim(parent *cppwriter.Section, d *idl.Definition) {
	verb, ok := d.Attributes["verbatim"]
	if !ok {
		slog.Warn("ignoring verbatim with no verbatim attribute", "source", d.Source.String())
		return
	}
	if verb == "cpp_header" {
		sectionFromAttributes(parent, d).EmitCode(d.Text)
	}
}

// documentation emits the doc-comment block attached to a definition through
// a sibling Verbatim carrying verbatim=docs and a matching name.
func (g *Generator) documentation(parent *cppwriter.Section, scope, d *idl.Definition) {
	for _, sibling := range scope.Members {
		if sibling.Kind != idl.KindVerbatim || sibling.Attr("verbatim") != "docs" {
			continue
		}
		if sibling.Attr("name") != d.Name {
			continue
		}
		matched := false
		if id, ok := sibling.Attributes["id"]; ok {
			matched = d.HasAttr("id") && d.Attr("id") == id
		} else {
			matched = sibling.Attr("type") == d.Kind.String()
		}
		if !matched {
			continue
		}
		section := sectionFromAttributes(parent, sibling)
		section.EmitCode("/*! ")
		for _, line := range splitLines(sibling.Text) {
			section.EmitCode("* " + line)
		}
		section.EmitCode("*/")
	}
}

func (g *Generator) accessorDocumentation(section *cppwriter.Section, description, typeString, name string) {
	section.EmitCode("/*!")
	section.EmitCode(fmt.Sprintf("* %s for %s %s", description, typeString, name))
	section.EmitCode("*/")
}

// checkType records a type the emitted code depends on. Arrays are implicitly
// defined with their element type; inner types pull in their parent's
// definition; only classes can stay forward declarations.
func (g *Generator) checkType(needDefn bool, t *idl.Definition) {
	for t.Kind == idl.KindArray || t.Kind == idl.KindNullable {
		t = t.Elem
	}
	if needDefn {
		if !g.emitted[t] {
			g.neededDefn.add(t)
		}
		return
	}
	if g.emitted[t] {
		return
	}
	if t.Parent != nil && t.Parent.Kind != idl.KindNamespace {
		g.checkType(true, t.Parent)
		return
	}
	if t.Kind == idl.KindClass {
		g.neededDecl.add(t)
	} else {
		g.neededDefn.add(t)
	}
}

func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			line := text[start:i]
			for len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
				line = line[1:]
			}
			for len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\r' || line[len(line)-1] == '\t') {
				line = line[:len(line)-1]
			}
			lines = append(lines, line)
			start = i + 1
		}
	}
	return lines
}
