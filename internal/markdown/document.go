// Package markdown turns article drafts into a flat block model that the
// audit rules, format budget and auto-fix code can inspect without
// re-parsing markdown themselves.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// BlockKind classifies a top-level block.
type BlockKind string

const (
	BlockHeading     BlockKind = "heading"
	BlockParagraph   BlockKind = "paragraph"
	BlockList        BlockKind = "list"
	BlockOrderedList BlockKind = "ordered_list"
	BlockTable       BlockKind = "table"
	BlockImage       BlockKind = "image"
	BlockCode        BlockKind = "code"
	BlockQuote       BlockKind = "quote"
	BlockBreak       BlockKind = "thematic_break"
	BlockHTML        BlockKind = "html"
)

// Link is an inline link found in the draft.
type Link struct {
	Text   string
	URL    string
	Offset int
}

// Image is an inline image or an [IMAGE: ...] placeholder.
type Image struct {
	Alt    string
	URL    string
	Offset int
}

// Block is one top-level element of the document.
type Block struct {
	Kind    BlockKind
	Level   int
	Start   int
	End     int
	Text    string
	Items   []string
	Columns int
	Rows    int
	Links   []Link
	Images  []Image
}

// IsStructured reports whether the block counts as structured (non-prose) content.
func (b Block) IsStructured() bool {
	switch b.Kind {
	case BlockList, BlockOrderedList, BlockTable:
		return true
	}
	return false
}

// Document is a parsed draft.
type Document struct {
	Source string
	Blocks []Block
}

var parser = goldmark.New(goldmark.WithExtensions(extension.Table)).Parser()

var placeholderImage = regexp.MustCompile(`(?i)^\[(image|afbeelding|visual)\s*:\s*([^\]]*)\]$`)

// Parse builds the block model for src.
func Parse(src string) *Document {
	source := []byte(src)
	root := parser.Parse(text.NewReader(source))
	doc := &Document{Source: src}

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		block, ok := convertBlock(node, source)
		if !ok {
			continue
		}
		doc.Blocks = append(doc.Blocks, block)
	}
	return doc
}

func convertBlock(node ast.Node, source []byte) (Block, bool) {
	start, end, ok := span(node, source)
	if !ok {
		return Block{}, false
	}
	block := Block{Start: lineStart(source, start), End: end}

	switch n := node.(type) {
	case *ast.Heading:
		block.Kind = BlockHeading
		block.Level = n.Level
		block.Text = inlineText(n, source)
	case *ast.Paragraph:
		block.Kind = BlockParagraph
		block.Text = inlineText(n, source)
		if onlyImage(n, source) {
			block.Kind = BlockImage
		} else if m := placeholderImage.FindStringSubmatch(strings.TrimSpace(block.Text)); m != nil {
			block.Kind = BlockImage
			block.Images = append(block.Images, Image{Alt: strings.TrimSpace(m[2]), Offset: block.Start})
		}
	case *ast.List:
		block.Kind = BlockList
		if n.IsOrdered() {
			block.Kind = BlockOrderedList
		}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			block.Items = append(block.Items, inlineText(item, source))
		}
		block.Text = strings.Join(block.Items, "\n")
	case *extast.Table:
		block.Kind = BlockTable
		block.Columns = len(n.Alignments)
		var rows []string
		for row := n.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, inlineText(cell, source))
			}
			if len(cells) > block.Columns {
				block.Columns = len(cells)
			}
			rows = append(rows, strings.Join(cells, " | "))
		}
		block.Rows = len(rows)
		block.Text = strings.Join(rows, "\n")
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		block.Kind = BlockCode
		block.Text = rawLines(node, source)
	case *ast.Blockquote:
		block.Kind = BlockQuote
		block.Text = inlineText(n, source)
	case *ast.ThematicBreak:
		block.Kind = BlockBreak
	case *ast.HTMLBlock:
		block.Kind = BlockHTML
		block.Text = rawLines(node, source)
	default:
		block.Kind = BlockParagraph
		block.Text = inlineText(node, source)
	}

	collectInline(node, source, &block)
	return block, true
}

// span returns the byte range covered by node's own lines and its descendants.
func span(node ast.Node, source []byte) (int, int, bool) {
	start, end, found := 0, 0, false
	visit := func(s, e int) {
		if !found || s < start {
			start = s
		}
		if !found || e > end {
			end = e
		}
		found = true
	}
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				visit(seg.Start, seg.Stop)
			}
		}
		if t, ok := n.(*ast.Text); ok {
			visit(t.Segment.Start, t.Segment.Stop)
		}
		return ast.WalkContinue, nil
	})
	if _, isBreak := node.(*ast.ThematicBreak); isBreak && !found {
		// Thematic breaks carry no lines; locate them by the previous sibling.
		if prev := node.PreviousSibling(); prev != nil {
			if _, e, ok := span(prev, source); ok {
				return e, e, true
			}
		}
		return 0, 0, true
	}
	return start, end, found
}

func lineStart(source []byte, pos int) int {
	if pos > len(source) {
		pos = len(source)
	}
	if i := bytes.LastIndexByte(source[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

func rawLines(node ast.Node, source []byte) string {
	var buf strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// inlineText flattens node into plain text: markup removed, line breaks as spaces.
func inlineText(node ast.Node, source []byte) string {
	var buf strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n != node && buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			buf.Write(t.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.List:
			if n != node {
				return ast.WalkSkipChildren, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(buf.String()), " ")
}

func onlyImage(p *ast.Paragraph, source []byte) bool {
	sawImage := false
	for c := p.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Image:
			sawImage = true
		case *ast.Text:
			if len(bytes.TrimSpace(t.Segment.Value(source))) > 0 {
				return false
			}
		default:
			return false
		}
	}
	return sawImage
}

func collectInline(node ast.Node, source []byte, block *Block) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Link:
			block.Links = append(block.Links, Link{
				Text:   inlineText(t, source),
				URL:    string(t.Destination),
				Offset: firstOffset(t, block.Start),
			})
		case *ast.AutoLink:
			url := string(t.URL(source))
			block.Links = append(block.Links, Link{Text: url, URL: url, Offset: firstOffset(t, block.Start)})
		case *ast.Image:
			block.Images = append(block.Images, Image{
				Alt:    inlineText(t, source),
				URL:    string(t.Destination),
				Offset: firstOffset(t, block.Start),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}

func firstOffset(node ast.Node, fallback int) int {
	offset := -1
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			offset = t.Segment.Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if offset < 0 {
		return fallback
	}
	return offset
}
