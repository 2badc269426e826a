package manifest

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/manifestd/internal/tree"
	"gopkg.in/yaml.v3"
)

const (
	yamlAttrPrefix = "@"
	yamlTextKey    = "#text"
)

// DecodeYAML builds an unfrozen tree from a YAML document whose top level is a
// mapping with exactly one key, the root tag.
func DecodeYAML(r io.Reader) (*tree.Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("manifest: yaml: %w", err)
	}
	top := &doc
	if top.Kind == yaml.DocumentNode {
		if len(top.Content) == 0 {
			return nil, ErrEmptyDocument
		}
		top = top.Content[0]
	}
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping, line %d", ErrInvalidShape, top.Line)
	}
	switch len(top.Content) {
	case 0:
		return nil, ErrEmptyDocument
	case 2:
	default:
		return nil, ErrMultipleRoots
	}
	nodes, err := yamlNodes(top.Content[0].Value, top.Content[1])
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, ErrMultipleRoots
	}
	return nodes[0], nil
}

// yamlNodes converts the value under one mapping key. A sequence yields one
// node per item, everything else exactly one node.
func yamlNodes(tag string, v *yaml.Node) ([]*tree.Node, error) {
	if !tree.ValidTag(tag) {
		return nil, fmt.Errorf("%w: key %q, line %d", ErrInvalidTag, tag, v.Line)
	}
	if v.Kind == yaml.AliasNode {
		v = v.Alias
	}
	switch v.Kind {
	case yaml.ScalarNode:
		return []*tree.Node{tree.NewNode(tag, scalarValue(v))}, nil
	case yaml.MappingNode:
		n, err := yamlMapping(tag, v)
		if err != nil {
			return nil, err
		}
		return []*tree.Node{n}, nil
	case yaml.SequenceNode:
		out := make([]*tree.Node, 0, len(v.Content))
		for _, item := range v.Content {
			if item.Kind == yaml.SequenceNode {
				return nil, fmt.Errorf("%w: nested sequence under %q, line %d", ErrInvalidShape, tag, item.Line)
			}
			nodes, err := yamlNodes(tag, item)
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q, line %d", ErrInvalidShape, tag, v.Line)
	}
}

func yamlMapping(tag string, m *yaml.Node) (*tree.Node, error) {
	n := tree.NewNode(tag, "")
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i].Value, m.Content[i+1]
		switch {
		case key == yamlTextKey:
			if val.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: %s of %q must be a scalar, line %d", ErrInvalidShape, yamlTextKey, tag, val.Line)
			}
			if err := n.SetValue(scalarValue(val)); err != nil {
				return nil, err
			}
		case strings.HasPrefix(key, yamlAttrPrefix):
			if val.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: attribute %q of %q must be a scalar, line %d", ErrInvalidShape, key, tag, val.Line)
			}
			if err := addAttribute(n, strings.TrimPrefix(key, yamlAttrPrefix), scalarValue(val)); err != nil {
				return nil, err
			}
		default:
			children, err := yamlNodes(key, val)
			if err != nil {
				return nil, err
			}
			for _, c := range children {
				if err := n.AddChild(c); err != nil {
					return nil, err
				}
			}
		}
	}
	return n, nil
}

// scalarValue keeps the source text of a scalar; null becomes "".
func scalarValue(v *yaml.Node) string {
	if v.Tag == "!!null" {
		return ""
	}
	return v.Value
}
