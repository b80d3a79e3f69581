package form4

import (
	"encoding/xml"
	"errors"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"
)

// node is an element of the payload tree. Only elements are kept as
// children; text is accumulated on the enclosing element.
type node struct {
	name     string
	attrs    []xml.Attr
	text     strings.Builder
	children []*node
}

// parseTree reads a whole XML document into a tree using a strict pull
// parser. Any syntax error is reported as ErrMalformedXML.
func parseTree(doc string) (*node, error) {
	p := xpp.NewXMLPullParser(strings.NewReader(doc), true, charset.NewReaderLabel)

	root := &node{}
	stack := []*node{root}
	for {
		event, err := p.Next()
		if err != nil {
			return nil, &ErrMalformedXML{Err: err}
		}
		switch event {
		case xpp.StartTag:
			n := &node{name: p.Name, attrs: p.Attrs}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
			stack = append(stack, n)
		case xpp.EndTag:
			if len(stack) == 1 {
				return nil, &ErrMalformedXML{Err: errors.New("unexpected end tag " + p.Name)}
			}
			stack = stack[:len(stack)-1]
		case xpp.Text:
			stack[len(stack)-1].text.WriteString(p.Text)
		case xpp.EndDocument:
			if len(stack) != 1 {
				return nil, &ErrMalformedXML{Err: errors.New("unexpected end of document")}
			}
			if len(root.children) != 1 {
				return nil, &ErrMalformedXML{Err: errors.New("document must have exactly one root element")}
			}
			return root.children[0], nil
		}
	}
}

// child returns the first direct child element with the given local name.
func (n *node) child(name string) *node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// descendant returns the first element below n, in document order, with
// the given local name.
func (n *node) descendant(name string) *node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
		if d := c.descendant(name); d != nil {
			return d
		}
	}
	return nil
}

// descendants returns every element below n with the given local name,
// in document order.
func (n *node) descendants(name string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
		out = append(out, c.descendants(name)...)
	}
	return out
}

// path follows a chain of direct children.
func (n *node) path(names ...string) *node {
	for _, name := range names {
		n = n.child(name)
	}
	return n
}

// ownText returns the trimmed text directly inside n.
func (n *node) ownText() (string, bool) {
	if n == nil {
		return "", false
	}
	s := strings.TrimSpace(n.text.String())
	return s, s != ""
}

// value returns the first nested value of a data group: the text of its
// <value> child, else of its first child element, else its own text.
func (n *node) value() (string, bool) {
	if n == nil {
		return "", false
	}
	if v := n.child("value"); v != nil {
		return v.ownText()
	}
	if len(n.children) > 0 {
		return n.children[0].ownText()
	}
	return n.ownText()
}
