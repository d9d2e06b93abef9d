package config

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

var hclSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "plugin", LabelNames: []string{"name"}},
	},
}

// ParseHCL parses HCL text. Every plugin block becomes a section, block
// label is the section name.
func ParseHCL(data []byte, filename string) (*Dictionary, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %v", ErrFormat, diags)
	}
	content, diags := file.Body.Content(hclSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %v", ErrFormat, diags)
	}
	d := &Dictionary{}
	for _, block := range content.Blocks {
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: plugin %s: %v", ErrFormat, block.Labels[0], diags)
		}
		ordered := make([]*hcl.Attribute, 0, len(attrs))
		for _, attr := range attrs {
			ordered = append(ordered, attr)
		}
		sort.Slice(ordered, func(i, j int) bool {
			return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
		})

		section := NewSection(block.Labels[0])
		for _, attr := range ordered {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("%w: plugin %s: %v", ErrFormat, section.Name, diags)
			}
			s, err := ctyString(val)
			if err != nil {
				return nil, fmt.Errorf("%w: plugin %s attribute %s: %v", ErrFormat, section.Name, attr.Name, err)
			}
			section.Set(attr.Name, s)
		}
		d.Sections = append(d.Sections, section)
	}
	return d, nil
}

// ctyString converts primitive value to its dictionary text.
func ctyString(val cty.Value) (string, error) {
	if val.IsNull() || !val.IsKnown() {
		return "", fmt.Errorf("value must be known and not null")
	}
	switch val.Type() {
	case cty.String:
		return val.AsString(), nil
	case cty.Number:
		return val.AsBigFloat().Text('g', -1), nil
	case cty.Bool:
		if val.True() {
			return "#t", nil
		}
		return "#f", nil
	}
	return "", fmt.Errorf("unsupported type %s", val.Type().FriendlyName())
}
