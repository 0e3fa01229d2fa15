package document

import "strings"

// In-block metadata line prefixes.
const (
	patternPrefix      = "**Pattern:**"
	verificationPrefix = "**Verification:**"
)

// Parse extracts requirements, sections, and frontmatter metadata from
// document content. Parsing is best-effort and silent: malformed or
// incomplete blocks are omitted from the output, never reported. Run
// Validate to get the authoritative list of structural problems.
//
// Parse is a pure function; identical input yields identical output.
func Parse(content string, _ ParseContext) *ParseResult {
	res := &ParseResult{
		Requirements: []Requirement{},
		Sections:     []Section{},
		Metadata:     Metadata{},
	}

	var block *Requirement
	for _, ev := range scan(content) {
		switch ev.kind {
		case eventFrontmatter:
			res.Metadata = ev.metadata
		case eventSection:
			res.Sections = append(res.Sections, ev.section)
		case eventBlockOpened:
			block = &Requirement{ID: ev.id, Title: ev.title, Line: ev.line}
		case eventBlockLine:
			assembleLine(block, ev.text)
		case eventBlockClosed:
			// Blocks that never acquired text are dropped.
			if block != nil && block.Text != "" {
				res.Requirements = append(res.Requirements, *block)
			}
			block = nil
		case eventBlockUnclosedAtEOF:
			block = nil
		}
	}

	return res
}

// assembleLine applies the in-block accumulation rules to one body line.
// Rules, in order: **Pattern:** and **Verification:** set metadata, the
// first non-blank line starts the text, later non-blank lines join it
// with a single space, blank lines are ignored.
func assembleLine(block *Requirement, raw string) {
	if block == nil {
		return
	}

	trimmed := trimLine(raw)
	switch {
	case strings.HasPrefix(trimmed, patternPrefix):
		block.Pattern = trimLine(strings.TrimPrefix(trimmed, patternPrefix))
	case strings.HasPrefix(trimmed, verificationPrefix):
		block.Verification = trimLine(strings.TrimPrefix(trimmed, verificationPrefix))
	case trimmed == "":
	case block.Text == "":
		block.Text = trimmed
	default:
		block.Text += " " + trimmed
	}
}
