package markdown

import "strings"

// Section is an H2-delimited slice of the document. The preamble between the
// title and the first H2 is returned with Level 0 when it carries content.
type Section struct {
	Heading string
	Level   int
	Blocks  []Block
	Start   int
	End     int
}

// Body joins the text of every non-heading block.
func (s Section) Body() string {
	var parts []string
	for _, b := range s.Blocks {
		if b.Kind == BlockHeading || b.Text == "" {
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Prose joins the text of paragraph blocks only.
func (s Section) Prose() string {
	var parts []string
	for _, b := range s.Blocks {
		if b.Kind == BlockParagraph {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// FirstParagraph returns the first paragraph of the section, or "".
func (s Section) FirstParagraph() string {
	for _, b := range s.Blocks {
		if b.Kind == BlockParagraph {
			return b.Text
		}
	}
	return ""
}

// Links returns every link in the section in document order.
func (s Section) Links() []Link {
	var out []Link
	for _, b := range s.Blocks {
		out = append(out, b.Links...)
	}
	return out
}

// WordCount counts words in the section body.
func (s Section) WordCount() int {
	return len(Words(s.Body()))
}

// Title returns the first H1, or "".
func (d *Document) Title() string {
	for _, b := range d.Blocks {
		if b.Kind == BlockHeading && b.Level == 1 {
			return b.Text
		}
	}
	return ""
}

// Headings returns every heading block in order.
func (d *Document) Headings() []Block {
	var out []Block
	for _, b := range d.Blocks {
		if b.Kind == BlockHeading {
			out = append(out, b)
		}
	}
	return out
}

// BlocksOf returns the blocks of the given kinds.
func (d *Document) BlocksOf(kinds ...BlockKind) []Block {
	var out []Block
	for _, b := range d.Blocks {
		for _, k := range kinds {
			if b.Kind == k {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

// Links returns every link in document order.
func (d *Document) Links() []Link {
	var out []Link
	for _, b := range d.Blocks {
		out = append(out, b.Links...)
	}
	return out
}

// Images returns every image and image placeholder.
func (d *Document) Images() []Image {
	var out []Image
	for _, b := range d.Blocks {
		out = append(out, b.Images...)
	}
	return out
}

// PlainText joins the text of every block except code.
func (d *Document) PlainText() string {
	var parts []string
	for _, b := range d.Blocks {
		if b.Kind == BlockCode || b.Kind == BlockHTML || b.Text == "" {
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n\n")
}

// ProseText joins paragraph text, skipping headings and structured blocks.
func (d *Document) ProseText() string {
	var parts []string
	for _, b := range d.Blocks {
		if b.Kind == BlockParagraph {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Sections splits the document at H2 headings. H1 titles are dropped and
// deeper headings stay inside their parent section.
func (d *Document) Sections() []Section {
	var (
		out     []Section
		current *Section
	)
	flush := func() {
		if current != nil && (current.Level > 0 || len(current.Blocks) > 0) {
			out = append(out, *current)
		}
	}
	for _, b := range d.Blocks {
		if b.Kind == BlockHeading && b.Level == 1 {
			continue
		}
		if b.Kind == BlockHeading && b.Level == 2 {
			flush()
			current = &Section{Heading: b.Text, Level: 2, Start: b.Start, End: b.End}
			continue
		}
		if current == nil {
			current = &Section{Start: b.Start}
		}
		current.Blocks = append(current.Blocks, b)
		current.End = b.End
	}
	flush()
	return out
}
