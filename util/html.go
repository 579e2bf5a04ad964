package util

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var ErrNilNode = errors.New("HTML node is nil")

// ParseFragment parses an HTML fragment and returns a body node which contains it.
func ParseFragment(r io.Reader) (*html.Node, error) {
	parsed, err := html.ParseFragment(
		io.MultiReader(
			strings.NewReader("<body>"),
			r,
			strings.NewReader("</body>"),
		),
		&html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Html,
			Data:     "html",
		},
	)
	if err != nil {
		return nil, err
	}
	return parsed[1], nil // [0] is head, [1] is body
}

// RenderChildren renders the children of root, but not root itself.
func RenderChildren(root *html.Node) (string, error) {
	if root == nil {
		return "", nil
	}
	var buf = &bytes.Buffer{}
	for node := root.FirstChild; node != nil; node = node.NextSibling {
		if err := html.Render(buf, node); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Walk calls task for root and its descendants in pre-order.
// It descends into a node if and only if the task returns true.
// The task may remove the node from its parent.
func Walk(root *html.Node, task func(*html.Node) bool) error {
	if root == nil {
		return ErrNilNode
	}
	if !task(root) {
		return nil
	}
	for child := root.FirstChild; child != nil; {
		next := child.NextSibling // task might unlink child
		if err := Walk(child, task); err != nil {
			return err
		}
		child = next
	}
	return nil
}

var allowedTags = map[atom.Atom][]string{
	atom.A:          {"href", "title", "target", "rel"},
	atom.B:          nil,
	atom.Blockquote: nil,
	atom.Br:         nil,
	atom.Code:       nil,
	atom.Em:         nil,
	atom.H1:         nil,
	atom.H2:         nil,
	atom.H3:         nil,
	atom.H4:         nil,
	atom.H5:         nil,
	atom.H6:         nil,
	atom.Hr:         nil,
	atom.I:          nil,
	atom.Img:        {"src", "alt", "title", "width", "height"},
	atom.Li:         nil,
	atom.Ol:         nil,
	atom.P:          nil,
	atom.Pre:        nil,
	atom.S:          nil,
	atom.Span:       nil,
	atom.Strong:     nil,
	atom.Sub:        nil,
	atom.Sup:        nil,
	atom.Table:      nil,
	atom.Tbody:      nil,
	atom.Td:         {"colspan", "rowspan"},
	atom.Th:         {"colspan", "rowspan"},
	atom.Thead:      nil,
	atom.Tr:         nil,
	atom.U:          nil,
	atom.Ul:         nil,
}

// dropped together with their content
var droppedTags = map[atom.Atom]struct{}{
	atom.Iframe:   {},
	atom.Object:   {},
	atom.Script:   {},
	atom.Style:    {},
	atom.Template: {},
}

// SanitizeHTML removes all elements and attributes which are not allowed in rich text.
// Unknown elements are replaced by their children. Links with a "javascript:" scheme are removed.
func SanitizeHTML(input string) (string, error) {
	body, err := ParseFragment(strings.NewReader(input))
	if err != nil {
		return "", err
	}
	var clean func(*html.Node) bool
	clean = func(node *html.Node) bool {
		if node.Type == html.CommentNode {
			node.Parent.RemoveChild(node)
			return false
		}
		if node.Type != html.ElementNode || node == body {
			return true
		}
		if _, drop := droppedTags[node.DataAtom]; drop {
			node.Parent.RemoveChild(node)
			return false
		}
		attrs, ok := allowedTags[node.DataAtom]
		if !ok {
			for child := node.FirstChild; child != nil; {
				next := child.NextSibling
				_ = Walk(child, clean)
				child = next
			}
			unwrap(node)
			return false
		}
		node.Attr = filterAttrs(node.Attr, attrs)
		return true
	}
	if err := Walk(body, clean); err != nil {
		return "", err
	}
	return RenderChildren(body)
}

// unwrap replaces node by its children.
func unwrap(node *html.Node) {
	var parent = node.Parent
	for child := node.FirstChild; child != nil; {
		next := child.NextSibling
		node.RemoveChild(child)
		parent.InsertBefore(child, node)
		child = next
	}
	parent.RemoveChild(node)
}

func filterAttrs(attrs []html.Attribute, allowed []string) []html.Attribute {
	var result []html.Attribute
	for _, attr := range attrs {
		if attr.Namespace != "" {
			continue
		}
		var ok bool
		for _, a := range allowed {
			if attr.Key == a {
				ok = true
				break
			}
		}
		if !ok {
			continue
		}
		if attr.Key == "href" || attr.Key == "src" {
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(attr.Val)), "javascript:") {
				continue
			}
		}
		result = append(result, attr)
	}
	return result
}

// Heading returns the text of the first heading (h1 to h4), if any is found within the first 4000 bytes.
func Heading(input io.Reader) string {

	tokenizer := html.NewTokenizerFragment(input, "body")
	tokenizer.SetMaxBuf(4096)

	var offset = 0
	var inHeading bool
	var text strings.Builder

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break // assuming io.EOF
		}

		tagNameBytes, _ := tokenizer.TagName()
		tagName := string(tagNameBytes)
		isHeading := tagName == "h1" || tagName == "h2" || tagName == "h3" || tagName == "h4"

		switch {
		case tt == html.StartTagToken && isHeading:
			inHeading = true
		case tt == html.EndTagToken && isHeading && inHeading:
			return strings.TrimSpace(text.String())
		case tt == html.TextToken && inHeading:
			text.Write(tokenizer.Text())
		}

		offset += len(tokenizer.Raw())
		if offset > 4000 && !inHeading {
			break
		}
	}

	return strings.TrimSpace(text.String())
}
