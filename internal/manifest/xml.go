package manifest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/manifestd/internal/tree"
)

// DecodeXML builds an unfrozen tree from an XML document. Element text is
// trimmed of surrounding whitespace; comments and processing instructions are
// ignored.
func DecodeXML(r io.Reader) (*tree.Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	var (
		root  *tree.Node
		stack []*tree.Node
		texts []*strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("manifest: xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n, err := elementNode(t)
			if err != nil {
				return nil, err
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, ErrMultipleRoots
				}
				root = n
			} else if err := stack[len(stack)-1].AddChild(n); err != nil {
				return nil, err
			}
			stack = append(stack, n)
			texts = append(texts, &strings.Builder{})
		case xml.CharData:
			if len(texts) > 0 {
				texts[len(texts)-1].Write(t)
			}
		case xml.EndElement:
			n := stack[len(stack)-1]
			if err := n.SetValue(strings.TrimSpace(texts[len(texts)-1].String())); err != nil {
				return nil, err
			}
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]
		}
	}
	if root == nil {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

func elementNode(el xml.StartElement) (*tree.Node, error) {
	if !tree.ValidTag(el.Name.Local) {
		return nil, fmt.Errorf("%w: element %q", ErrInvalidTag, el.Name.Local)
	}
	n := tree.NewNode(el.Name.Local, "")
	for _, a := range el.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		if err := addAttribute(n, a.Name.Local, a.Value); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// addAttribute records key=value as an attribute of n and as a leaf child.
func addAttribute(n *tree.Node, key, value string) error {
	if !tree.ValidTag(key) {
		return fmt.Errorf("%w: attribute %q on %q", ErrInvalidTag, key, n.Tag())
	}
	if err := n.SetAttr(key, value); err != nil {
		return err
	}
	return n.AddChild(tree.NewNode(key, value))
}
