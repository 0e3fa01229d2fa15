package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SingleRequirement(t *testing.T) {
	res := Parse(":::requirement{#R1}\nThe system shall log events.\n:::", ParseContext{})

	require.Len(t, res.Requirements, 1)
	assert.Equal(t, Requirement{
		ID:   "R1",
		Text: "The system shall log events.",
		Line: 1,
	}, res.Requirements[0])
}

func TestParse_FrontmatterAndSections(t *testing.T) {
	res := Parse("---\nauthor: Jane\n---\n# Title", ParseContext{})

	assert.Equal(t, Metadata{"author": "Jane"}, res.Metadata)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, Section{Name: "Title", Level: 1, Line: 4}, res.Sections[0])
}

func TestParse_PatternAndVerification(t *testing.T) {
	content := `:::requirement{#R1 title="Audit log"}
The system shall log events.
**Pattern:** ubiquitous
**Verification:** Test
:::`

	res := Parse(content, ParseContext{})
	require.Len(t, res.Requirements, 1)

	req := res.Requirements[0]
	assert.Equal(t, "Audit log", req.Title)
	assert.Equal(t, "The system shall log events.", req.Text)
	assert.Equal(t, "ubiquitous", req.Pattern)
	assert.Equal(t, "Test", req.Verification)
}

func TestParse_MultiLineTextJoinedWithSpaces(t *testing.T) {
	content := ":::requirement{#R1}\nThe system shall log\n\nall security events\nwithin 100ms.\n:::"

	res := Parse(content, ParseContext{})
	require.Len(t, res.Requirements, 1)
	assert.Equal(t, "The system shall log all security events within 100ms.", res.Requirements[0].Text)
}

func TestParse_EmptyBlockDropped(t *testing.T) {
	res := Parse(":::requirement{#R1}\n\n\n:::", ParseContext{})
	assert.Empty(t, res.Requirements)
}

func TestParse_UnclosedBlockDropped(t *testing.T) {
	res := Parse(":::requirement{#R1}\nThe system shall log events.", ParseContext{})
	assert.Empty(t, res.Requirements)
}

func TestParse_DuplicateIDsBothExtracted(t *testing.T) {
	content := ":::requirement{#R1}\nFirst statement.\n:::\n:::requirement{#R1}\nSecond statement.\n:::"

	res := Parse(content, ParseContext{})
	require.Len(t, res.Requirements, 2)
	assert.Equal(t, "First statement.", res.Requirements[0].Text)
	assert.Equal(t, "Second statement.", res.Requirements[1].Text)
}

func TestParse_NestedStartBecomesBodyText(t *testing.T) {
	content := ":::requirement{#R1}\nOuter text.\n:::requirement{#R2}\n:::"

	res := Parse(content, ParseContext{})
	require.Len(t, res.Requirements, 1)
	assert.Equal(t, "R1", res.Requirements[0].ID)
	assert.Equal(t, "Outer text. :::requirement{#R2}", res.Requirements[0].Text)
}

func TestParse_RequirementsInEncounterOrder(t *testing.T) {
	content := ":::requirement{#B}\nFirst statement.\n:::\n:::requirement{#A}\nSecond statement.\n:::"

	res := Parse(content, ParseContext{})
	require.Len(t, res.Requirements, 2)
	assert.Equal(t, "B", res.Requirements[0].ID)
	assert.Equal(t, "A", res.Requirements[1].ID)
}

func TestParse_Idempotent(t *testing.T) {
	content := "---\nauthor: Jane\n---\n# [SYS] System\n:::requirement{#R1}\nThe system shall log events.\n:::\n"

	first := Parse(content, ParseContext{Tenant: "acme", ProjectKey: "CORE", DocumentSlug: "reqs"})
	second := Parse(content, ParseContext{Tenant: "acme", ProjectKey: "CORE", DocumentSlug: "reqs"})
	assert.Equal(t, first, second)
}

func TestParse_EmptyDocument(t *testing.T) {
	res := Parse("", ParseContext{})

	assert.Empty(t, res.Requirements)
	assert.Empty(t, res.Sections)
	assert.Empty(t, res.Metadata)
}
