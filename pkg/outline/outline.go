// Package outline parses Markdown into a mind-map tree and renders it with
// Graphviz.
//
// It backs the graphviz render engine, which needs neither Node.js nor a
// browser. Headings nest by level; list items nest under the nearest
// preceding heading and under each other. Paragraphs, code blocks and other
// block content are ignored, matching what a mind map shows.
package outline

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Node is one branch of the mind map.
type Node struct {
	Title    string
	Children []*Node
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	c := 1
	for _, ch := range n.Children {
		c += ch.Count()
	}
	return c
}

// Depth returns the number of levels in the subtree rooted at n.
func (n *Node) Depth() int {
	d := 0
	for _, ch := range n.Children {
		d = max(d, ch.Depth())
	}
	return d + 1
}

// Parse builds the tree for src. When the document has a single top-level
// branch it becomes the root; otherwise a root titled fallback holds all
// top-level branches.
func Parse(src []byte, fallback string) *Node {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	holder := &Node{Title: fallback}
	type frame struct {
		level int
		node  *Node
	}
	var stack []frame

	parent := func() *Node {
		if len(stack) == 0 {
			return holder
		}
		return stack[len(stack)-1].node
	}

	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Heading:
			for len(stack) > 0 && stack[len(stack)-1].level >= n.Level {
				stack = stack[:len(stack)-1]
			}
			node := &Node{Title: inlineText(n, src)}
			p := parent()
			p.Children = append(p.Children, node)
			stack = append(stack, frame{level: n.Level, node: node})
		case *ast.List:
			addList(parent(), n, src)
		}
	}

	if len(holder.Children) == 1 {
		return holder.Children[0]
	}
	return holder
}

func addList(parent *Node, list *ast.List, src []byte) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		li, ok := item.(*ast.ListItem)
		if !ok {
			continue
		}
		node := &Node{}
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			switch b := c.(type) {
			case *ast.List:
				addList(node, b, src)
			case *ast.Paragraph, *ast.TextBlock:
				if node.Title == "" {
					node.Title = inlineText(b, src)
				}
			}
		}
		parent.Children = append(parent.Children, node)
	}
}

// FirstHeading returns the text of the first heading in src, or "".
func FirstHeading(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		if h, ok := c.(*ast.Heading); ok {
			return inlineText(h, src)
		}
	}
	return ""
}

// inlineText concatenates the text content below n.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
