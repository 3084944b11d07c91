// Package cppwriter builds C++ source files out of named sections that can be
// created ahead of time and filled as generation proceeds, with lazy namespace
// tracking, include management and a simple re-indentation pass.
package cppwriter

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/crander/idlglue/internal/cpputil"
	"github.com/crander/idlglue/internal/idl"
)

// node is one positional element of a section body: either a literal line or
// an embedded child section, never both.
type node struct {
	line    string
	section *Section
}

// needSet accumulates the types a file's code references, recording for each
// whether a forward declaration suffices (false) or the full definition is
// required (true). Definition wins when both are requested.
type needSet struct {
	order []*idl.Definition
	defn  map[*idl.Definition]bool
}

func newNeedSet() *needSet {
	return &needSet{defn: map[*idl.Definition]bool{}}
}

func (n *needSet) add(t *idl.Definition, needsDefinition bool) {
	if _, seen := n.defn[t]; !seen {
		n.order = append(n.order, t)
	}
	n.defn[t] = n.defn[t] || needsDefinition
}

// Section is a region of a file under construction. Code and child sections
// are emitted in order; named children can be retrieved and appended to later,
// so a forward-declaration block can keep growing while the rest of the file
// is written. All sections of one file share the file's needed-type set.
type Section struct {
	indentString string
	indent       int
	code         []node
	feNamespaces []string
	beNamespaces []string
	sections     map[string]*Section
	needValidate bool
	needs        *needSet
}

func newSection(indentString string, indent int, needs *needSet) *Section {
	if needs == nil {
		needs = newNeedSet()
	}
	return &Section{
		indentString: indentString,
		indent:       indent,
		sections:     map[string]*Section{},
		needs:        needs,
	}
}

// CreateUnlinkedSection creates a named child section without emitting it.
// Its code only appears in the output after EmitSection links it somewhere.
func (s *Section) CreateUnlinkedSection(name string) *Section {
	child := newSection(s.indentString, s.indent, s.needs)
	s.sections[name] = child
	return child
}

// NeedDefinition records that the emitted code requires the full definition
// of t. The requirement propagates to the root writer.
func (s *Section) NeedDefinition(t *idl.Definition) {
	s.needs.add(t, true)
}

// NeedDeclaration records that the emitted code requires at least a forward
// declaration of t.
func (s *Section) NeedDeclaration(t *idl.Definition) {
	s.needs.add(t, false)
}

// NeedType records a requirement on t, full definition or declaration only.
func (s *Section) NeedType(t *idl.Definition, needsDefinition bool) {
	s.needs.add(t, needsDefinition)
}

// EmitSection links a section at the current position.
func (s *Section) EmitSection(child *Section) {
	s.validateNamespace()
	s.code = append(s.code, node{section: child})
}

// CreateSection returns the named child section, creating and emitting it at
// the current position on first use. Repeated calls with the same name return
// the same section object, so fragments of one logical block accumulate
// instead of forking.
func (s *Section) CreateSection(name string) *Section {
	if child := s.sections[name]; child != nil {
		return child
	}
	s.validateNamespace()
	child := s.CreateUnlinkedSection(name)
	s.EmitSection(child)
	return child
}

// GetSection returns the named child section, or nil.
func (s *Section) GetSection(name string) *Section {
	return s.sections[name]
}

// PushNamespace opens a namespace at the current position. The opening brace
// is emitted lazily, so pushing, popping and pushing the same namespace again
// produces no close/reopen churn.
func (s *Section) PushNamespace(name string) {
	s.needValidate = true
	s.feNamespaces = append(s.feNamespaces, name)
}

// PopNamespace closes the innermost namespace and returns its name. Like
// PushNamespace, the closing brace is emitted lazily.
func (s *Section) PopNamespace() string {
	s.needValidate = true
	name := s.feNamespaces[len(s.feNamespaces)-1]
	s.feNamespaces = s.feNamespaces[:len(s.feNamespaces)-1]
	return name
}

func (s *Section) validateNamespace() {
	if !s.needValidate {
		return
	}
	s.needValidate = false
	common := cpputil.CommonPrefixLen(s.feNamespaces, s.beNamespaces)
	for len(s.beNamespaces) > common {
		name := s.beNamespaces[len(s.beNamespaces)-1]
		s.beNamespaces = s.beNamespaces[:len(s.beNamespaces)-1]
		s.code = append(s.code, node{line: "}  // namespace " + name})
	}
	for _, name := range s.feNamespaces[common:] {
		s.beNamespaces = append(s.beNamespaces, name)
		s.code = append(s.code, node{line: "namespace " + name + " {"})
	}
}

var namespaceWordRe = regexp.MustCompile(`\bnamespace\b`)

// EmitCode emits code at the current position. Lines are stripped of their
// incoming indentation and re-indented to the section depth, adjusting for
// closing braces and 'label:' lines, with brace counts tracking the depth.
func (s *Section) EmitCode(code string) {
	s.validateNamespace()
	for _, line := range strings.Split(code, "\n") {
		line = strings.Trim(line, "\t\r ")
		if line == "" {
			s.code = append(s.code, node{line: ""})
		} else {
			adjust := 0
			adjustChars := ""
			if line[0] == '}' {
				adjust--
			}
			if line[len(line)-1] == ':' {
				adjust--
				adjustChars = " "
			}
			indented := strings.Repeat(s.indentString, s.indent+adjust) + adjustChars + line
			s.code = append(s.code, node{line: indented})
		}
		if !namespaceWordRe.MatchString(line) {
			s.indent += strings.Count(line, "{") - strings.Count(line, "}")
		}
	}
}

var sectionTagRe = regexp.MustCompile(`^\$\{#([_A-Za-z0-9]*)\}$`)

// EmitTemplate emits a template at the current position. Lines consisting of
// a '${#SectionName}' escape create (or re-emit) the named section there; all
// other lines go through EmitCode. For example:
//
//	void MyFunction() {
//	  ${#MyFunctionBody}
//	}
//
// creates a MyFunctionBody section between the braces that can be filled in
// afterwards.
func (s *Section) EmitTemplate(tmpl string) {
	for _, line := range strings.Split(tmpl, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := sectionTagRe.FindStringSubmatch(trimmed); m != nil {
			if child := s.sections[m[1]]; child != nil {
				s.EmitSection(child)
			} else {
				s.CreateSection(m[1])
			}
		} else {
			s.EmitCode(trimmed)
		}
	}
}

// IsEmpty reports whether nothing has been emitted into the section.
func (s *Section) IsEmpty() bool {
	return len(s.code) == 0
}

// AddPrefix inserts a raw line at the very beginning of the section.
func (s *Section) AddPrefix(line string) {
	s.code = append([]node{{line: line}}, s.code...)
}

// Lines returns the section contents, recursively flattening child sections
// and closing any namespace still open.
func (s *Section) Lines() []string {
	s.feNamespaces = nil
	s.needValidate = true
	s.validateNamespace()
	var lines []string
	for _, n := range s.code {
		if n.section != nil {
			lines = append(lines, n.section.Lines()...)
		} else {
			lines = append(lines, n.line)
		}
	}
	return lines
}

// Writer produces one C++ file. It owns a main section for the body plus an
// include block, and adds the header guard for header files.
type Writer struct {
	filename    string
	isHeader    bool
	headerToken string
	seen        map[string]bool
	includes    *Section
	main        *Section
}

// NewWriter returns a writer for the named file. Header files get a guard
// derived from the filename.
func NewWriter(filename string, isHeader bool) *Writer {
	needs := newNeedSet()
	return &Writer{
		filename:    filename,
		isHeader:    isHeader,
		headerToken: cpputil.HeaderToken(filename),
		seen:        map[string]bool{},
		includes:    newSection("  ", 0, needs),
		main:        newSection("  ", 0, needs),
	}
}

// Filename returns the file the writer will produce.
func (w *Writer) Filename() string { return w.filename }

// AddInclude adds an #include line, once per distinct name. System includes
// use the angle-bracket form.
func (w *Writer) AddInclude(name string, system bool) {
	if w.seen[name] {
		return
	}
	w.seen[name] = true
	if system {
		w.includes.EmitCode("#include <" + name + ">")
	} else {
		w.includes.EmitCode(`#include "` + name + `"`)
	}
}

// CreateSection creates a named section in the main section.
func (w *Writer) CreateSection(name string) *Section {
	return w.main.CreateSection(name)
}

// GetSection returns a named section of the main section, or nil.
func (w *Writer) GetSection(name string) *Section {
	return w.main.GetSection(name)
}

// PushNamespace opens a namespace in the main section.
func (w *Writer) PushNamespace(name string) {
	w.main.PushNamespace(name)
}

// PopNamespace closes the current namespace in the main section.
func (w *Writer) PopNamespace() string {
	return w.main.PopNamespace()
}

// EmitCode emits code at the current position in the main section.
func (w *Writer) EmitCode(code string) {
	w.main.EmitCode(code)
}

// EmitTemplate emits a template at the current position in the main section.
func (w *Writer) EmitTemplate(tmpl string) {
	w.main.EmitTemplate(tmpl)
}

// NeedDefinition records, at the file level, that the full definition of t is
// required.
func (w *Writer) NeedDefinition(t *idl.Definition) {
	w.main.NeedDefinition(t)
}

// NeedDeclaration records, at the file level, that a forward declaration of t
// is required.
func (w *Writer) NeedDeclaration(t *idl.Definition) {
	w.main.NeedDeclaration(t)
}

// NeedType records a requirement on t, full definition or declaration only.
func (w *Writer) NeedType(t *idl.Definition, needsDefinition bool) {
	w.main.NeedType(t, needsDefinition)
}

// ResolveNeeds settles the accumulated needed types: every type requiring its
// full definition gets its owning header added to the include block; the
// class types for which a forward declaration suffices are returned, in first
// reference order, for the caller to declare. Types declared by skip are
// ignored (their include is empty).
func (w *Writer) ResolveNeeds(skip string) []*idl.Definition {
	var decls []*idl.Definition
	for _, t := range w.main.needs.order {
		if w.main.needs.defn[t] {
			if inc := t.DefinitionInclude(); inc != "" && inc != skip {
				w.AddInclude(inc, false)
			}
		} else if t.FinalType().Kind == idl.KindClass {
			decls = append(decls, t)
		}
	}
	return decls
}

// Lines returns the complete file contents as lines.
func (w *Writer) Lines() []string {
	var lines []string
	if w.isHeader {
		lines = append(lines, "#ifndef "+w.headerToken, "#define "+w.headerToken)
	}
	if includeLines := w.includes.Lines(); len(includeLines) > 0 {
		lines = append(lines, "")
		lines = append(lines, includeLines...)
	}
	if mainLines := w.main.Lines(); len(mainLines) > 0 {
		lines = append(lines, "")
		lines = append(lines, mainLines...)
	}
	if w.isHeader {
		lines = append(lines, "", "#endif  // "+w.headerToken)
	}
	return lines
}

// Content returns the complete file contents.
func (w *Writer) Content() string {
	return strings.Join(w.Lines(), "\n") + "\n"
}

// Write writes the file, skipping the write when the on-disk contents already
// match so downstream build tools see unchanged timestamps.
func (w *Writer) Write(fs afero.Fs) error {
	content := []byte(w.Content())
	if old, err := afero.ReadFile(fs, w.filename); err == nil && string(old) == string(content) {
		return nil
	}
	slog.Info("writing generated file", "file", w.filename)
	return afero.WriteFile(fs, w.filename, content, 0o644)
}
