package plesk

import (
	"encoding/xml"
	"strings"
)

const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>`

// DataNode is one element of a request packet body. A nil *DataNode is a
// valid "absent" node and renders to nothing, so optional fields can be
// passed through unconditionally.
type DataNode struct {
	Name     string
	Value    string
	Children []*DataNode
}

// Node creates a leaf data node.
func Node(name, value string) *DataNode {
	return &DataNode{Name: name, Value: value}
}

// OptionalNode creates a leaf data node, or nothing when the value is
// empty. The wire format treats an empty tag and an omitted tag
// differently, so unset optionals must never be emitted.
func OptionalNode(name, value string) *DataNode {
	if value == "" {
		return nil
	}
	return Node(name, value)
}

// GroupNode creates a node wrapping child nodes. When every child is
// absent the group itself is omitted.
func GroupNode(name string, children ...*DataNode) *DataNode {
	any := false
	for _, c := range children {
		if c != nil {
			any = true
			break
		}
	}
	if !any {
		return nil
	}
	return &DataNode{Name: name, Children: children}
}

func (n *DataNode) render(b *strings.Builder) {
	if n == nil {
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Name)
	b.WriteByte('>')
	if len(n.Children) > 0 {
		for _, c := range n.Children {
			c.render(b)
		}
	} else {
		xml.EscapeText(b, []byte(n.Value))
	}
	b.WriteString("</")
	b.WriteString(n.Name)
	b.WriteByte('>')
}

// BuildPacket serializes a request as
// packet > operator > operation > data nodes, with no whitespace-only
// nodes anywhere in the tree.
func BuildPacket(operator, operation string, nodes []*DataNode) string {
	b := strings.Builder{}
	b.WriteString(xmlHeader)
	root := &DataNode{
		Name: "packet",
		Children: []*DataNode{{
			Name:     operator,
			Children: []*DataNode{{Name: operation, Children: nodes}},
		}},
	}
	root.render(&b)
	return b.String()
}

// ResultNode is a generic element of a parsed response packet. Operators
// walk it instead of declaring per-operation response structs since the
// remote schema nests the same name/value shapes everywhere.
type ResultNode struct {
	XMLName  xml.Name
	Chardata string       `xml:",chardata"`
	Children []ResultNode `xml:",any"`
}

// Child returns the first child element with the given name, or nil.
func (n *ResultNode) Child(name string) *ResultNode {
	if n == nil {
		return nil
	}
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

// Each returns every child element with the given name.
func (n *ResultNode) Each(name string) []*ResultNode {
	if n == nil {
		return nil
	}
	var out []*ResultNode
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

// Text returns the trimmed character data of the node. Nil nodes yield
// the empty string so lookups can be chained without nil checks.
func (n *ResultNode) Text() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Chardata)
}

// Get descends through a path of child names, returning nil as soon as
// any segment is missing.
func (n *ResultNode) Get(path ...string) *ResultNode {
	cur := n
	for _, name := range path {
		cur = cur.Child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Property reads a name/value property list ("property" siblings each
// holding a name and a value child) and returns the value for the given
// property name.
func (n *ResultNode) Property(name string) string {
	for _, prop := range n.Each("property") {
		if prop.Get("name").Text() == name {
			return prop.Get("value").Text()
		}
	}
	return ""
}

func parsePacket(body []byte) (*ResultNode, error) {
	var root ResultNode
	err := xml.Unmarshal(body, &root)
	if err != nil {
		return nil, err
	}
	if root.XMLName.Local != "packet" {
		return nil, &TransportError{Cause: errMalformedResponse}
	}
	return &root, nil
}
