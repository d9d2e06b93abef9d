package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// ParseINI parses INI text. The unnamed default section is ignored if
// it's empty.
func ParseINI(data []byte) (*Dictionary, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		// expressions use '#' for booleans.
		IgnoreInlineComment: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	d := &Dictionary{}
	for _, s := range f.Sections() {
		if s.Name() == ini.DefaultSection && len(s.Keys()) == 0 {
			continue
		}
		section := NewSection(s.Name())
		for _, k := range s.Keys() {
			section.Set(k.Name(), k.String())
		}
		d.Sections = append(d.Sections, section)
	}
	return d, nil
}
