package document

// extractFrontmatter consumes an optional leading metadata block
// delimited by --- lines. It returns the collected metadata, the index
// of the first line after the closing delimiter, and whether a block
// was consumed.
//
// If no closing delimiter exists before end of input, extraction is
// abandoned and the whole document is rescanned from the top as
// ordinary content. Lines inside the block that do not match
// `key: value` are silently skipped.
func extractFrontmatter(lines []string) (Metadata, int, bool) {
	if len(lines) == 0 || trimLine(lines[0]) != frontmatterDelimiter {
		return nil, 0, false
	}

	for i := 1; i < len(lines); i++ {
		if trimLine(lines[i]) != frontmatterDelimiter {
			continue
		}

		meta := make(Metadata)
		for _, raw := range lines[1:i] {
			if m := metadataPattern.FindStringSubmatch(raw); m != nil {
				meta[m[1]] = trimLine(m[2])
			}
		}
		return meta, i + 1, true
	}

	return nil, 0, false
}
