// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package htmldoc wraps x/net/html with the query surface the scraper
// needs: find by tag and attribute pattern, trimmed text extraction and
// text-before/text-after a matched node. Missing nodes yield empty
// results, never errors; structural absence is for the caller to decide.
package htmldoc

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed HTML tree.
type Document struct {
	root *html.Node
}

// Parse builds a Document from raw markup. x/net/html tolerates malformed
// input, so this only fails on reader errors.
func Parse(data []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

// Node is one matched element.
type Node struct {
	n *html.Node
}

// NodeList is an ordered set of matches. A nil/empty list is safe to query.
type NodeList []*Node

// Find returns all elements under the document matching the tag (several
// alternatives separated by "|", case-insensitive) whose attributes match
// the given patterns. Attribute patterns are regular expressions anchored at
// both ends; a plain string therefore matches exactly.
func (d *Document) Find(tag string, attrs map[string]string) NodeList {
	if d == nil || d.root == nil {
		return nil
	}
	return find(d.root, tag, attrs)
}

// Text returns the text content of the whole document.
func (d *Document) Text() string {
	if d == nil || d.root == nil {
		return ""
	}
	var sb strings.Builder
	collectText(d.root, &sb)
	return sb.String()
}

// Contains reports whether the document text contains the given substring.
func (d *Document) Contains(s string) bool {
	return strings.Contains(d.Text(), s)
}

func find(root *html.Node, tag string, attrs map[string]string) NodeList {
	tags := make(map[string]bool)
	for _, t := range strings.Split(tag, "|") {
		tags[strings.ToLower(t)] = true
	}

	patterns := make(map[string]*regexp.Regexp, len(attrs))
	for name, pattern := range attrs {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			// Treat an uncompilable pattern as a literal value.
			re = regexp.MustCompile("^" + regexp.QuoteMeta(pattern) + "$")
		}
		patterns[strings.ToLower(name)] = re
	}

	var res NodeList
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && tags[strings.ToLower(n.Data)] && matches(n, patterns) {
			res = append(res, &Node{n: n})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	// The root itself is never included; Find searches the subtree.
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return res
}

func matches(n *html.Node, patterns map[string]*regexp.Regexp) bool {
	for name, re := range patterns {
		val, ok := attrValue(n, name)
		if !ok || !re.MatchString(val) {
			return false
		}
	}
	return true
}

func attrValue(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// Find searches the subtree of this node.
func (n *Node) Find(tag string, attrs map[string]string) NodeList {
	if n == nil || n.n == nil {
		return nil
	}
	return find(n.n, tag, attrs)
}

// Text returns the trimmed text content of the node.
func (n *Node) Text() string {
	if n == nil || n.n == nil {
		return ""
	}
	var sb strings.Builder
	collectText(n.n, &sb)
	return clean(sb.String())
}

// Attr returns the named attribute value, empty when absent.
func (n *Node) Attr(name string) string {
	if n == nil || n.n == nil {
		return ""
	}
	val, _ := attrValue(n.n, name)
	return val
}

// Classes returns the node's class list.
func (n *Node) Classes() []string {
	return strings.Fields(n.Attr("class"))
}

// HasClass reports whether the node carries the given class.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// BeforeText returns the text immediately preceding the node's first child
// element: preceding text siblings plus the node's own leading text.
func (n *Node) BeforeText() string {
	if n == nil || n.n == nil {
		return ""
	}
	var pre []string
	for sib := n.n.PrevSibling; sib != nil && sib.Type == html.TextNode; sib = sib.PrevSibling {
		pre = append([]string{sib.Data}, pre...)
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(pre, ""))
	for c := n.n.FirstChild; c != nil && c.Type == html.TextNode; c = c.NextSibling {
		sb.WriteString(c.Data)
	}
	return clean(sb.String())
}

// AfterText returns the text immediately following the node's last child
// element: the node's own trailing text plus following text siblings.
func (n *Node) AfterText() string {
	if n == nil || n.n == nil {
		return ""
	}
	var own []string
	for c := n.n.LastChild; c != nil && c.Type == html.TextNode; c = c.PrevSibling {
		own = append([]string{c.Data}, own...)
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(own, ""))
	for sib := n.n.NextSibling; sib != nil && sib.Type == html.TextNode; sib = sib.NextSibling {
		sb.WriteString(sib.Data)
	}
	return clean(sb.String())
}

// First returns the first match or nil.
func (l NodeList) First() *Node {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

// Last returns the last match or nil.
func (l NodeList) Last() *Node {
	if len(l) == 0 {
		return nil
	}
	return l[len(l)-1]
}

// At returns the i-th match or nil when out of range.
func (l NodeList) At(i int) *Node {
	if i < 0 || i >= len(l) {
		return nil
	}
	return l[i]
}

// Empty reports whether the list holds no matches.
func (l NodeList) Empty() bool { return len(l) == 0 }

// Find searches the subtrees of every node in the list.
func (l NodeList) Find(tag string, attrs map[string]string) NodeList {
	var res NodeList
	for _, n := range l {
		res = append(res, n.Find(tag, attrs)...)
	}
	return res
}

// Text returns the trimmed text of the first match.
func (l NodeList) Text() string { return l.First().Text() }

// Attr returns the named attribute of the first match.
func (l NodeList) Attr(name string) string {
	if n := l.First(); n != nil {
		return n.Attr(name)
	}
	return ""
}

// Attrs collects the named attribute across all matches, skipping absences.
func (l NodeList) Attrs(name string) []string {
	var res []string
	for _, n := range l {
		if v := n.Attr(name); v != "" {
			res = append(res, v)
		}
	}
	return res
}

// Strings collects the trimmed text of every match, skipping empties.
func (l NodeList) Strings() []string {
	var res []string
	for _, n := range l {
		if t := n.Text(); t != "" {
			res = append(res, t)
		}
	}
	return res
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// clean trims whitespace including non-breaking spaces.
func clean(s string) string {
	return strings.Trim(s, " \t\r\n ")
}
