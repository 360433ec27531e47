package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDraft = `# Solar Panels

## Introduction

Solar panels are devices that convert sunlight into electricity. See [the guide](https://example.com/guide) for details.

## Types of Solar Panels

The three types are:

- Monocrystalline panels
- Polycrystalline panels
- Thin-film panels

![Panel rows on a roof](roof.png)

| Type | Efficiency | Cost |
|------|------------|------|
| Mono | 22% | High |
| Poly | 17% | Medium |

### Installation steps

1. Survey the roof
2. Mount the rails

[IMAGE: installer fixing a rail]
`

func TestParseBlocks(t *testing.T) {
	doc := Parse(sampleDraft)

	require.NotEmpty(t, doc.Blocks)
	assert.Equal(t, "Solar Panels", doc.Title())

	headings := doc.Headings()
	require.Len(t, headings, 4)
	assert.Equal(t, 1, headings[0].Level)
	assert.Equal(t, "Types of Solar Panels", headings[2].Text)
	assert.Equal(t, 3, headings[3].Level)

	lists := doc.BlocksOf(BlockList)
	require.Len(t, lists, 1)
	assert.Equal(t, []string{"Monocrystalline panels", "Polycrystalline panels", "Thin-film panels"}, lists[0].Items)

	ordered := doc.BlocksOf(BlockOrderedList)
	require.Len(t, ordered, 1)
	assert.Len(t, ordered[0].Items, 2)

	tables := doc.BlocksOf(BlockTable)
	require.Len(t, tables, 1)
	assert.Equal(t, 3, tables[0].Columns)
	assert.Equal(t, 3, tables[0].Rows)

	images := doc.BlocksOf(BlockImage)
	require.Len(t, images, 2)
	assert.Equal(t, "roof.png", images[0].Images[0].URL)
	assert.Equal(t, "installer fixing a rail", images[1].Images[0].Alt)
}

func TestParseLinks(t *testing.T) {
	doc := Parse(sampleDraft)
	links := doc.Links()
	require.Len(t, links, 1)
	assert.Equal(t, "the guide", links[0].Text)
	assert.Equal(t, "https://example.com/guide", links[0].URL)
	assert.Equal(t, "the guide", sampleDraft[links[0].Offset:links[0].Offset+len("the guide")])
}

func TestBlockOffsetsPointAtSource(t *testing.T) {
	doc := Parse(sampleDraft)
	for _, b := range doc.Blocks {
		require.LessOrEqual(t, b.Start, b.End)
		require.LessOrEqual(t, b.End, len(sampleDraft))
	}
	heading := doc.Headings()[1]
	assert.Equal(t, "## Introduction", sampleDraft[heading.Start:heading.Start+len("## Introduction")])
}

func TestSections(t *testing.T) {
	doc := Parse(sampleDraft)
	sections := doc.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "Introduction", sections[0].Heading)
	assert.Contains(t, sections[0].FirstParagraph(), "Solar panels are devices")
	assert.Len(t, sections[0].Links(), 1)

	types := sections[1]
	assert.Equal(t, "Types of Solar Panels", types.Heading)
	assert.Equal(t, "The three types are:", types.Prose())
	assert.Greater(t, types.WordCount(), 10)
}

func TestSectionsPreamble(t *testing.T) {
	doc := Parse("# Title\n\nOpening words before any section.\n\n## First\n\nBody.\n")
	sections := doc.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, 0, sections[0].Level)
	assert.Equal(t, "Opening words before any section.", sections[0].Body())
	assert.Equal(t, "First", sections[1].Heading)
}

func TestProseText(t *testing.T) {
	doc := Parse("Intro with **bold** and `code`.\n\n- item one\n- item two\n")
	assert.Equal(t, "Intro with bold and code.", doc.ProseText())
	assert.Contains(t, doc.PlainText(), "item one")
}
