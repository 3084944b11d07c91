// Package frontend loads structured declaration files into the unresolved
// definition graph. Declarations are YAML documents with a 'decls' list; each
// entry names its kind and the kind-specific fields, with type references
// written as strings in the reference grammar of ParseTypeRef.
package frontend

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/crander/idlglue/internal/idl"
)

// SyntaxError reports a malformed declaration, with its source location.
type SyntaxError struct {
	Location idl.Location
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Msg)
}

type document struct {
	Decls []yaml.Node `yaml:"decls"`
}

type rawDecl struct {
	Kind       string            `yaml:"kind"`
	Name       string            `yaml:"name"`
	Attributes map[string]string `yaml:"attributes"`
	Base       string            `yaml:"base"`
	Type       string            `yaml:"type"`
	Members    []yaml.Node       `yaml:"members"`
	Params     []rawParam        `yaml:"params"`
	Values     []rawValue        `yaml:"values"`
	Text       string            `yaml:"text"`
}

type rawParam struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Mutable bool   `yaml:"mutable"`
}

type rawValue struct {
	Name  string     `yaml:"name"`
	Value *rawScalar `yaml:"value"`
}

// rawScalar keeps a scalar's source text, so enum values can be written
// unquoted ('value: 4' or 'value: 0x10') and still land in the graph as the
// literal to emit.
type rawScalar string

func (s *rawScalar) UnmarshalYAML(node *yaml.Node) error {
	*s = rawScalar(node.Value)
	return nil
}

// Load reads every input file in order and returns the concatenated top-level
// definition forest plus the per-file metadata, parallel to paths.
func Load(fs afero.Fs, paths []string) ([]*idl.Definition, []*idl.SourceFile, error) {
	var forest []*idl.Definition
	var files []*idl.SourceFile
	for _, path := range paths {
		file, decls, err := LoadFile(fs, path)
		if err != nil {
			return nil, nil, err
		}
		forest = append(forest, decls...)
		files = append(files, file)
	}
	return forest, files, nil
}

// LoadFile reads one declaration file and returns the derived artifact names
// together with its top-level definitions, in declaration order.
func LoadFile(fs afero.Fs, path string) (*idl.SourceFile, []*idl.Definition, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	file := idl.NewSourceFile(path)
	decls := make([]*idl.Definition, 0, len(doc.Decls))
	for i := range doc.Decls {
		d, err := decodeDecl(file, &doc.Decls[i])
		if err != nil {
			return nil, nil, err
		}
		decls = append(decls, d)
	}
	return file, decls, nil
}

func decodeDecl(file *idl.SourceFile, node *yaml.Node) (*idl.Definition, error) {
	loc := idl.Location{File: file, Line: node.Line}
	var raw rawDecl
	if err := node.Decode(&raw); err != nil {
		return nil, &SyntaxError{Location: loc, Msg: err.Error()}
	}
	if raw.Attributes == nil {
		raw.Attributes = map[string]string{}
	}
	switch raw.Kind {
	case "namespace":
		members, err := decodeMembers(file, raw.Members)
		if err != nil {
			return nil, err
		}
		return idl.NewNamespace(loc, raw.Attributes, raw.Name, members), nil
	case "class":
		members, err := decodeMembers(file, raw.Members)
		if err != nil {
			return nil, err
		}
		var base idl.TypeRef
		if raw.Base != "" {
			var err error
			base, err = ParseTypeRef(raw.Base, loc)
			if err != nil {
				return nil, err
			}
		}
		return idl.NewClass(loc, raw.Attributes, raw.Name, base, members), nil
	case "function", "callback":
		ret, err := decodeReturn(raw.Type, loc)
		if err != nil {
			return nil, err
		}
		params, err := decodeParams(raw.Params, loc)
		if err != nil {
			return nil, err
		}
		if raw.Kind == "callback" {
			return idl.NewCallback(loc, raw.Attributes, raw.Name, ret, params), nil
		}
		return idl.NewFunction(loc, raw.Attributes, raw.Name, ret, params), nil
	case "variable":
		ref, err := ParseTypeRef(raw.Type, loc)
		if err != nil {
			return nil, err
		}
		return idl.NewVariable(loc, raw.Attributes, raw.Name, ref), nil
	case "enum":
		values := make([]idl.EnumValue, len(raw.Values))
		for i, v := range raw.Values {
			values[i] = idl.EnumValue{Name: v.Name}
			if v.Value != nil {
				values[i].Value = string(*v.Value)
				values[i].HasValue = true
			}
		}
		return idl.NewEnum(loc, raw.Attributes, raw.Name, values), nil
	case "typedef":
		ref, err := ParseTypeRef(raw.Type, loc)
		if err != nil {
			return nil, err
		}
		return idl.NewTypedef(loc, raw.Attributes, raw.Name, ref), nil
	case "typename":
		return idl.NewTypename(loc, raw.Attributes, raw.Name), nil
	case "verbatim":
		return idl.NewVerbatim(loc, raw.Attributes, raw.Text), nil
	case "":
		return nil, &SyntaxError{Location: loc, Msg: "declaration is missing a kind"}
	default:
		return nil, &SyntaxError{Location: loc, Msg: fmt.Sprintf("unknown declaration kind %q", raw.Kind)}
	}
}

func decodeMembers(file *idl.SourceFile, nodes []yaml.Node) ([]*idl.Definition, error) {
	members := make([]*idl.Definition, 0, len(nodes))
	for i := range nodes {
		m, err := decodeDecl(file, &nodes[i])
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

// decodeReturn maps the declared return type. Constructors and destructors
// declare none; the finalizer validates that everything else has one.
func decodeReturn(spec string, loc idl.Location) (idl.TypeRef, error) {
	if spec == "" {
		return nil, nil
	}
	return ParseTypeRef(spec, loc)
}

func decodeParams(raws []rawParam, loc idl.Location) ([]*idl.Param, error) {
	params := make([]*idl.Param, len(raws))
	for i, p := range raws {
		ref, err := ParseTypeRef(p.Type, loc)
		if err != nil {
			return nil, err
		}
		params[i] = &idl.Param{Name: p.Name, Ref: ref, Mutable: p.Mutable}
	}
	return params, nil
}
