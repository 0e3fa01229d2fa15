package document

import (
	"regexp"
	"strings"
)

// Directive grammar markers.
const (
	frontmatterDelimiter = "---"
	blockStartPrefix     = ":::requirement"
	blockEndMarker       = ":::"
)

var (
	// Headers: 1-6 #'s, optional [SHORTCODE], then a name.
	headerPattern = regexp.MustCompile(`^(#{1,6})\s+(?:\[([^\]]+)\]\s+)?(.+)$`)

	// Frontmatter entries: key: value, flat only.
	metadataPattern = regexp.MustCompile(`^(\w+):\s*(.+)$`)

	// Block-start attribute payload, searched independently inside {...}.
	idAttrPattern    = regexp.MustCompile(`#([\w.-]+)`)
	titleAttrPattern = regexp.MustCompile(`title="([^"]*)"`)
)

// eventKind enumerates scanner observations.
type eventKind int

const (
	eventFrontmatter eventKind = iota
	eventSection
	eventBlockOpened
	eventNestedBlockStart
	eventBlockLine
	eventBlockClosed
	eventBlockUnclosedAtEOF
)

// event is one scanner observation. Which fields are set depends on kind.
type event struct {
	kind eventKind
	line int

	metadata Metadata // eventFrontmatter
	section  Section  // eventSection
	id       string   // eventBlockOpened
	title    string   // eventBlockOpened
	text     string   // eventBlockLine, raw line content
}

// scan runs the directive grammar over content and returns the event
// stream. Parse and Validate are projections over this stream so the
// two traversals cannot diverge.
//
// Input is split on \n only. CRLF input is not normalized: a trailing
// \r stays part of the line and defeats the exact-match tests below.
func scan(content string) []event {
	lines := strings.Split(content, "\n")
	var events []event

	start := 0
	if meta, next, ok := extractFrontmatter(lines); ok {
		events = append(events, event{kind: eventFrontmatter, line: 1, metadata: meta})
		start = next
	}

	inBlock := false
	blockStart := 0

	for i := start; i < len(lines); i++ {
		line := lines[i]
		trimmed := trimLine(line)
		num := i + 1

		if inBlock {
			switch {
			case strings.HasPrefix(trimmed, blockStartPrefix):
				// Blocks never nest: the marker does not open a new
				// block, and the outer block keeps accumulating the
				// line as ordinary content.
				events = append(events, event{kind: eventNestedBlockStart, line: num})
				events = append(events, event{kind: eventBlockLine, line: num, text: line})
			case trimmed == blockEndMarker:
				events = append(events, event{kind: eventBlockClosed, line: num})
				inBlock = false
			default:
				events = append(events, event{kind: eventBlockLine, line: num, text: line})
			}
			continue
		}

		if m := headerPattern.FindStringSubmatch(line); m != nil {
			events = append(events, event{kind: eventSection, line: num, section: Section{
				Name:      trimLine(m[3]),
				ShortCode: m[2],
				Level:     len(m[1]),
				Line:      num,
			}})
			continue
		}

		if strings.HasPrefix(trimmed, blockStartPrefix) {
			id, title := parseBlockAttributes(trimmed)
			events = append(events, event{kind: eventBlockOpened, line: num, id: id, title: title})
			inBlock = true
			blockStart = num
		}
	}

	if inBlock {
		events = append(events, event{kind: eventBlockUnclosedAtEOF, line: blockStart})
	}

	return events
}

// parseBlockAttributes extracts #id and title="..." from the optional
// {...} payload on a block-start line. Either, neither, or both may be
// present; anything else inside the braces is ignored.
func parseBlockAttributes(line string) (id, title string) {
	open := strings.Index(line, "{")
	if open == -1 {
		return "", ""
	}
	closing := strings.Index(line[open:], "}")
	if closing == -1 {
		return "", ""
	}
	attrs := line[open+1 : open+closing]

	if m := idAttrPattern.FindStringSubmatch(attrs); m != nil {
		id = m[1]
	}
	if m := titleAttrPattern.FindStringSubmatch(attrs); m != nil {
		title = m[1]
	}
	return id, title
}

// trimLine trims spaces and tabs only. A trailing \r from CRLF input is
// deliberately kept: the directive markers are matched against \n-split
// lines exactly as authored.
func trimLine(s string) string {
	return strings.Trim(s, " \t")
}
