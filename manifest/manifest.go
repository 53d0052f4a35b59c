// Package manifest parses YAML template manifests into macrodex templates.
//
// A manifest describes one template: its name, the parents it extends, the
// macro files it imports under a namespace, and the macros it declares.
//
//	name: page.html
//	extends: base.html
//	imports:
//	  - file: forms.html
//	    as: forms
//	macros:
//	  title:
//	    params: [text, {name: level, default: 1}]
//	    body: "<h{{ level }}>{{ text }}</h{{ level }}>"
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/skosovsky/macrodex"

	"gopkg.in/yaml.v3"
)

// fileManifest is the YAML manifest shape.
type fileManifest struct {
	Name    string               `yaml:"name"`
	Extends stringList           `yaml:"extends"`
	Imports []importSpec         `yaml:"imports"`
	Macros  map[string]macroSpec `yaml:"macros"`
}

type importSpec struct {
	File string `yaml:"file"`
	As   string `yaml:"as"`
}

type macroSpec struct {
	Params []paramSpec `yaml:"params"`
	Body   string      `yaml:"body"`
}

// stringList accepts either a single scalar or a sequence of scalars.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = stringList{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}

// paramSpec accepts "name" or {name: ..., default: ...}.
type paramSpec struct {
	macrodex.MacroParam
}

func (p *paramSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		p.Name = node.Value
		return nil
	case yaml.MappingNode:
		var def *yaml.Node
		seen := make(map[string]bool, 2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if seen[key.Value] {
				return fmt.Errorf("line %d: macro param: duplicate key %q", key.Line, key.Value)
			}
			seen[key.Value] = true
			switch key.Value {
			case "name":
				if err := val.Decode(&p.Name); err != nil {
					return err
				}
			case "default":
				def = val
			default:
				return fmt.Errorf("line %d: macro param: unknown field %q", key.Line, key.Value)
			}
		}
		if def != nil {
			if def.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: default of param %q must be a scalar", def.Line, p.Name)
			}
			p.Default = def.Value
			p.HasDefault = true
		}
		return nil
	default:
		return fmt.Errorf("line %d: macro param must be a name or a mapping", node.Line)
	}
}

// ParseBytes parses a YAML manifest and returns a Template.
// Unknown fields and duplicate keys are rejected.
func ParseBytes(data []byte) (*macrodex.Template, error) {
	var m fileManifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", macrodex.ErrInvalidManifest)
		}
		return nil, fmt.Errorf("%w: %w", macrodex.ErrInvalidManifest, err)
	}
	return buildTemplate(&m)
}

// ParseFile reads and parses a manifest file.
func ParseFile(path string) (*macrodex.Template, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is validated by caller
	if err != nil {
		return nil, fmt.Errorf("manifest: read file: %w", err)
	}
	return ParseBytes(data)
}

// ParseFS reads and parses a manifest from fs.FS (e.g. embed.FS).
func ParseFS(fsys fs.FS, name string) (*macrodex.Template, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("manifest: read fs: %w", err)
	}
	return ParseBytes(data)
}

func buildTemplate(m *fileManifest) (*macrodex.Template, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("%w: missing name", macrodex.ErrInvalidManifest)
	}
	macros := make(macrodex.MacroSet, len(m.Macros))
	for name, spec := range m.Macros {
		def := &macrodex.MacroDefinition{Name: name, Body: spec.Body}
		seen := make(map[string]bool, len(spec.Params))
		for i, p := range spec.Params {
			if p.Name == "" {
				return nil, fmt.Errorf("%w: macro %q: param %d: missing name", macrodex.ErrInvalidManifest, name, i)
			}
			if seen[p.Name] {
				return nil, fmt.Errorf("%w: macro %q: duplicate param %q", macrodex.ErrInvalidManifest, name, p.Name)
			}
			seen[p.Name] = true
			def.Params = append(def.Params, p.MacroParam)
		}
		macros[name] = def
	}
	imports := make([]macrodex.MacroImport, 0, len(m.Imports))
	for _, imp := range m.Imports {
		imports = append(imports, macrodex.MacroImport{File: imp.File, Namespace: imp.As})
	}
	tpl, err := macrodex.NewTemplate(m.Name,
		macrodex.WithMacros(macros),
		macrodex.WithImports(imports...),
		macrodex.WithParents(m.Extends...),
	)
	if err != nil {
		if errors.Is(err, macrodex.ErrInvalidManifest) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", macrodex.ErrInvalidManifest, err)
	}
	return tpl, nil
}
