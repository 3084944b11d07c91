package idl

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceFile describes one input declaration file and the output artifacts
// derived from it.
type SourceFile struct {
	Source     string // path as given on the command line
	Basename   string // filename without directory or extension
	Header     string // C++ header that declares the types from this file
	GlueHeader string // generated glue header
	GlueCpp    string // generated glue implementation
}

// NewSourceFile derives the artifact names from the input filename.
func NewSourceFile(filename string) *SourceFile {
	base := filepath.Base(filename)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return &SourceFile{
		Source:     filename,
		Basename:   base,
		Header:     base + ".h",
		GlueHeader: "npapi_" + base + "_glue.h",
		GlueCpp:    "npapi_" + base + "_glue.cc",
	}
}

// Location identifies a position in an input file, for error reporting.
type Location struct {
	File *SourceFile
	Line int
}

func (l Location) String() string {
	if l.File == nil {
		return fmt.Sprintf("<builtin>:%d", l.Line)
	}
	return fmt.Sprintf("%s:%d", l.File.Source, l.Line)
}
