package tree

import (
	"bytes"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Load reads an annotation tree from a YAML file.
func Load(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "tree: read file")
	}
	root, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "tree: parse %s", path)
	}
	return root, nil
}

// Parse decodes a YAML document into a tree. Keys and string scalars are
// NFC-normalized so Hebrew and Greek content compares stably.
func Parse(data []byte) (*Node, error) {
	root := NewNode()
	if err := yaml.Unmarshal(data, root); err != nil {
		return nil, eris.Wrap(err, "tree: decode yaml")
	}
	return root, nil
}

// Save writes an annotation tree to a YAML file.
func Save(path string, root *Node) error {
	data, err := Encode(root)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "tree: write file")
	}
	return nil
}

// Encode renders a tree as YAML, preserving key order.
func Encode(root *Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, eris.Wrap(err, "tree: encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, eris.Wrap(err, "tree: close encoder")
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a mapping node, preserving key order.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.AliasNode {
		return n.UnmarshalYAML(value.Alias)
	}
	if value.Kind != yaml.MappingNode {
		return eris.Errorf("tree: expected mapping at line %d", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return eris.Errorf("tree: non-scalar key at line %d", keyNode.Line)
		}
		v, err := decodeValue(valNode)
		if err != nil {
			return err
		}
		n.Set(norm.NFC.String(keyNode.Value), v)
	}
	return nil
}

// MarshalYAML encodes the node as an order-preserving mapping.
func (n *Node) MarshalYAML() (any, error) {
	return n.yamlNode()
}

func decodeValue(yn *yaml.Node) (Value, error) {
	switch yn.Kind {
	case yaml.AliasNode:
		return decodeValue(yn.Alias)
	case yaml.MappingNode:
		child := NewNode()
		if err := child.UnmarshalYAML(yn); err != nil {
			return Value{}, err
		}
		return Nested(child), nil
	case yaml.SequenceNode:
		vals := make([]Value, 0, len(yn.Content))
		for _, c := range yn.Content {
			v, err := decodeValue(c)
			if err != nil {
				return Value{}, err
			}
			vals = append(vals, v)
		}
		return List(vals...), nil
	case yaml.ScalarNode:
		return decodeScalar(yn)
	default:
		return Value{}, eris.Errorf("tree: unsupported node kind at line %d", yn.Line)
	}
}

func decodeScalar(yn *yaml.Node) (Value, error) {
	switch yn.Tag {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := yn.Decode(&b); err != nil {
			return Value{}, eris.Wrap(err, "tree: decode bool")
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := yn.Decode(&i); err != nil {
			return Value{}, eris.Wrap(err, "tree: decode int")
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := yn.Decode(&f); err != nil {
			return Value{}, eris.Wrap(err, "tree: decode float")
		}
		return Float(f), nil
	default:
		// Strings, timestamps, and anything custom-tagged keep their
		// literal text.
		return String(norm.NFC.String(yn.Value)), nil
	}
}

func (n *Node) yamlNode() (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range n.keys {
		kn := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		vn, err := n.vals[k].yamlNode()
		if err != nil {
			return nil, err
		}
		m.Content = append(m.Content, kn, vn)
	}
	return m, nil
}

func (v Value) yamlNode() (*yaml.Node, error) {
	switch v.kind {
	case KindNode:
		return v.node.yamlNode()
	case KindList:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.list {
			c, err := item.yamlNode()
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, c)
		}
		return seq, nil
	default:
		if v.scalar == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
		}
		yn := &yaml.Node{}
		if err := yn.Encode(v.scalar); err != nil {
			return nil, eris.Wrap(err, "tree: encode scalar")
		}
		return yn, nil
	}
}
