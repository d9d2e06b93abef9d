// Package config loads section-keyed dictionaries of string values. Two
// syntaxes are supported: INI files
//
//	[eq]
//	library=builtin
//	label=gain
//	input_0={in}
//
// and HCL files, where every section is a plugin block
//
//	plugin "eq" {
//	  library = "builtin"
//	  label   = "gain"
//	  input_0 = "{in}"
//	}
//
// Both forms result in the same Dictionary.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrFormat is returned when dictionary source can't be parsed.
var ErrFormat = errors.New("invalid config format")

type (
	// Dictionary is an ordered set of sections.
	Dictionary struct {
		Sections []*Section
	}

	// Section is a named set of key/value pairs. Keys keep their order
	// of declaration.
	Section struct {
		Name   string
		keys   []string
		values map[string]string
	}
)

// NewSection creates an empty section.
func NewSection(name string) *Section {
	return &Section{
		Name:   name,
		values: make(map[string]string),
	}
}

// Set adds or replaces the value of key.
func (s *Section) Set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Lookup returns the value of key.
func (s *Section) Lookup(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns keys in order of declaration.
func (s *Section) Keys() []string {
	return s.keys
}

// Section returns the section with provided name.
func (d *Dictionary) Section(name string) (*Section, bool) {
	for _, s := range d.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Load reads the dictionary from file. Files with .hcl extension are
// parsed as HCL, everything else as INI.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return ParseHCL(data, path)
	default:
		return ParseINI(data)
	}
}
