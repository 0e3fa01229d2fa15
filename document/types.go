// Package document implements the directive grammar that embeds
// machine-readable requirement records inside markdown documents.
// It provides two entry points over the same line-oriented grammar:
// Parse, a best-effort extraction of requirements, sections, and
// frontmatter metadata, and Validate, a diagnostic pass that reports
// structural errors and advisory warnings.
package document

import "context"

// ParseContext identifies the document being parsed.
// The grammar does not consume it; it is carried for callers and telemetry.
type ParseContext struct {
	Tenant       string `json:"tenant"`
	ProjectKey   string `json:"project_key"`
	DocumentSlug string `json:"document_slug"`
}

// Metadata holds flat key/value pairs extracted from frontmatter.
type Metadata map[string]string

// Section represents a markdown header with an optional short code.
type Section struct {
	// Name is the header text with the level markers and short code removed.
	Name string `json:"name"`

	// ShortCode is the optional [CODE] prefix, without brackets.
	ShortCode string `json:"short_code,omitempty"`

	// Level is the header depth, 1-6.
	Level int `json:"level"`

	// Line is the 1-based line number of the header.
	Line int `json:"line"`
}

// Requirement is a parsed requirement block.
// Text is always non-empty in Parse output; blocks that never acquire
// text are dropped rather than emitted.
type Requirement struct {
	// ID is the #token from the block's attribute payload, if present.
	ID string `json:"id,omitempty"`

	// Title is the title="..." attribute, if present.
	Title string `json:"title,omitempty"`

	// Text is the requirement statement, with body lines joined by
	// single spaces.
	Text string `json:"text"`

	// Pattern is the **Pattern:** metadata value, if present.
	Pattern string `json:"pattern,omitempty"`

	// Verification is the **Verification:** metadata value, if present.
	Verification string `json:"verification,omitempty"`

	// Line is the 1-based line number where the block opened.
	Line int `json:"line"`
}

// ParseResult is the output of Parse.
type ParseResult struct {
	Requirements []Requirement `json:"requirements"`
	Sections     []Section     `json:"sections"`
	Metadata     Metadata      `json:"metadata"`
}

// Severity classifies a diagnostic.
type Severity string

// Diagnostic severity levels.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// DiagnosticCode is a machine-readable diagnostic type.
type DiagnosticCode string

// Diagnostic codes emitted by Validate.
const (
	// CodeNestedRequirement: a block-start marker appeared while a block
	// was already open. The outer block keeps accumulating.
	CodeNestedRequirement DiagnosticCode = "NESTED_REQUIREMENT"

	// CodeMissingID: a block opened with no #token in its attributes.
	CodeMissingID DiagnosticCode = "MISSING_ID"

	// CodeDuplicateID: a block's ID was already seen earlier in the
	// document. Recorded at block-open time, case-sensitive.
	CodeDuplicateID DiagnosticCode = "DUPLICATE_ID"

	// CodeEmptyRequirement: a block closed with no body text.
	CodeEmptyRequirement DiagnosticCode = "EMPTY_REQUIREMENT"

	// CodeLowQAScore: the quality analyzer scored a block's text below
	// the threshold.
	CodeLowQAScore DiagnosticCode = "LOW_QA_SCORE"

	// CodeUnclosedBlock: a block was still open at end of input.
	CodeUnclosedBlock DiagnosticCode = "UNCLOSED_BLOCK"
)

// Diagnostic is a single structural error or warning.
type Diagnostic struct {
	Line     int            `json:"line"`
	Column   int            `json:"column,omitempty"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Code     DiagnosticCode `json:"type"`
}

// ValidationResult is the output of Validate.
// Valid holds iff Errors is empty; warnings never affect validity.
type ValidationResult struct {
	Valid    bool         `json:"valid"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
}

// Analysis is the quality analyzer's verdict on a requirement's text.
type Analysis struct {
	// Score is the quality score, 0-100.
	Score int `json:"score"`

	// Verdict is a human-readable quality label.
	Verdict string `json:"verdict"`

	// Suggestions are improvement hints. Not consumed by Validate.
	Suggestions []string `json:"suggestions,omitempty"`
}

// Analyzer scores a single requirement's text for quality.
// Validate calls it once per closed non-empty block, in document order.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
}
