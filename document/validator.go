package document

import (
	"context"
	"fmt"
)

// QAScoreThreshold is the analyzer score below which a closed block
// gets a LOW_QA_SCORE warning.
const QAScoreThreshold = 70

// Validate runs the directive grammar in diagnostic mode, producing
// structural errors and advisory warnings instead of records. It is the
// authoritative gate callers should run before trusting Parse output.
//
// The analyzer is invoked once per closed non-empty block, sequentially
// and in document order; diagnostic ordering is part of the contract.
// A nil analyzer disables the quality gate. An analyzer failure is not
// absorbed per block: it fails the whole call.
func Validate(ctx context.Context, content string, analyzer Analyzer) (*ValidationResult, error) {
	res := &ValidationResult{
		Errors:   []Diagnostic{},
		Warnings: []Diagnostic{},
	}

	// IDs seen so far, recorded at block-open time. Scoped to this call.
	seen := make(map[string]bool)
	var block *Requirement

	for _, ev := range scan(content) {
		switch ev.kind {
		case eventBlockOpened:
			block = &Requirement{ID: ev.id, Line: ev.line}
			switch {
			case ev.id == "":
				res.Warnings = append(res.Warnings, Diagnostic{
					Line:     ev.line,
					Severity: SeverityWarning,
					Code:     CodeMissingID,
					Message:  "requirement block has no ID",
				})
			case seen[ev.id]:
				res.Errors = append(res.Errors, Diagnostic{
					Line:     ev.line,
					Severity: SeverityError,
					Code:     CodeDuplicateID,
					Message:  fmt.Sprintf("duplicate requirement ID %q", ev.id),
				})
			default:
				seen[ev.id] = true
			}

		case eventNestedBlockStart:
			res.Errors = append(res.Errors, Diagnostic{
				Line:     ev.line,
				Severity: SeverityError,
				Code:     CodeNestedRequirement,
				Message:  "requirement block opened inside another requirement block",
			})

		case eventBlockLine:
			assembleLine(block, ev.text)

		case eventBlockClosed:
			if block == nil {
				break
			}
			if block.Text == "" {
				res.Errors = append(res.Errors, Diagnostic{
					Line:     block.Line,
					Severity: SeverityError,
					Code:     CodeEmptyRequirement,
					Message:  "requirement block has no body text",
				})
			} else if analyzer != nil {
				analysis, err := analyzer.Analyze(ctx, block.Text)
				if err != nil {
					return nil, fmt.Errorf("analyze requirement at line %d: %w", block.Line, err)
				}
				if analysis.Score < QAScoreThreshold {
					res.Warnings = append(res.Warnings, Diagnostic{
						Line:     block.Line,
						Severity: SeverityWarning,
						Code:     CodeLowQAScore,
						Message:  fmt.Sprintf("quality score %d (%s) is below threshold %d", analysis.Score, analysis.Verdict, QAScoreThreshold),
					})
				}
			}
			block = nil

		case eventBlockUnclosedAtEOF:
			res.Errors = append(res.Errors, Diagnostic{
				Line:     ev.line,
				Severity: SeverityError,
				Code:     CodeUnclosedBlock,
				Message:  "requirement block is never closed",
			})
			block = nil
		}
	}

	res.Valid = len(res.Errors) == 0
	return res, nil
}
