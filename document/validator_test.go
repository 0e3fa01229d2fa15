package document

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAnalyzer returns canned scores keyed by requirement text, and
// records call order.
type fakeAnalyzer struct {
	scores  map[string]int
	verdict string
	err     error
	calls   []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, text string) (*Analysis, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	score, ok := f.scores[text]
	if !ok {
		score = 90
	}
	verdict := f.verdict
	if verdict == "" {
		verdict = "acceptable"
	}
	return &Analysis{Score: score, Verdict: verdict}, nil
}

func TestValidate_WellFormedDocumentIsValid(t *testing.T) {
	content := `---
author: Jane
---
# [SYS] System

:::requirement{#R1}
The system shall log events.
:::

:::requirement{#R2}
The system shall retain logs for 90 days.
:::
`

	res, err := Validate(context.Background(), content, &fakeAnalyzer{})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidate_MissingID(t *testing.T) {
	res, err := Validate(context.Background(), ":::requirement\nSome text.\n:::", &fakeAnalyzer{})
	require.NoError(t, err)

	assert.True(t, res.Valid, "MISSING_ID is advisory")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, CodeMissingID, res.Warnings[0].Code)
	assert.Equal(t, 1, res.Warnings[0].Line)
	assert.Equal(t, SeverityWarning, res.Warnings[0].Severity)
}

func TestValidate_DuplicateID(t *testing.T) {
	content := ":::requirement{#R1}\nFirst.\n:::\n:::requirement{#R1}\nSecond.\n:::"

	res, err := Validate(context.Background(), content, &fakeAnalyzer{})
	require.NoError(t, err)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeDuplicateID, res.Errors[0].Code)
	assert.Equal(t, 4, res.Errors[0].Line, "reported at the second occurrence")
	assert.Contains(t, res.Errors[0].Message, "R1")
}

func TestValidate_DuplicateIDIsCaseSensitive(t *testing.T) {
	content := ":::requirement{#R1}\nFirst.\n:::\n:::requirement{#r1}\nSecond.\n:::"

	res, err := Validate(context.Background(), content, &fakeAnalyzer{})
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
}

func TestValidate_NestedRequirement(t *testing.T) {
	content := ":::requirement{#R1}\nOuter.\n:::requirement{#R2}\n:::"

	res, err := Validate(context.Background(), content, &fakeAnalyzer{})
	require.NoError(t, err)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeNestedRequirement, res.Errors[0].Code)
	assert.Equal(t, 3, res.Errors[0].Line)
}

func TestValidate_EmptyRequirement(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	res, err := Validate(context.Background(), ":::requirement{#R1}\n\n\n:::", analyzer)
	require.NoError(t, err)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeEmptyRequirement, res.Errors[0].Code)
	assert.Empty(t, analyzer.calls, "empty blocks are not analyzed")
}

func TestValidate_UnclosedBlock(t *testing.T) {
	content := "# Title\n:::requirement{#R1}\nSome text."

	res, err := Validate(context.Background(), content, &fakeAnalyzer{})
	require.NoError(t, err)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeUnclosedBlock, res.Errors[0].Code)
	assert.Equal(t, 2, res.Errors[0].Line, "reported at the block start line")
}

func TestValidate_LowQAScore(t *testing.T) {
	analyzer := &fakeAnalyzer{
		scores:  map[string]int{"The system works.": 55},
		verdict: "needs work",
	}

	res, err := Validate(context.Background(), ":::requirement{#R1}\nThe system works.\n:::", analyzer)
	require.NoError(t, err)

	assert.True(t, res.Valid, "LOW_QA_SCORE is advisory")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, CodeLowQAScore, res.Warnings[0].Code)
	assert.Contains(t, res.Warnings[0].Message, "55")
	assert.Contains(t, res.Warnings[0].Message, "needs work")
}

func TestValidate_ScoreAtThresholdIsNotFlagged(t *testing.T) {
	analyzer := &fakeAnalyzer{scores: map[string]int{"The system works.": QAScoreThreshold}}

	res, err := Validate(context.Background(), ":::requirement{#R1}\nThe system works.\n:::", analyzer)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestValidate_AnalyzerCalledInDocumentOrder(t *testing.T) {
	content := ":::requirement{#R1}\nFirst.\n:::\n:::requirement{#R2}\nSecond.\n:::\n:::requirement{#R3}\nThird.\n:::"

	analyzer := &fakeAnalyzer{}
	_, err := Validate(context.Background(), content, analyzer)
	require.NoError(t, err)
	assert.Equal(t, []string{"First.", "Second.", "Third."}, analyzer.calls)
}

func TestValidate_AnalyzerFailurePropagates(t *testing.T) {
	analyzer := &fakeAnalyzer{err: fmt.Errorf("analyzer unavailable")}

	res, err := Validate(context.Background(), ":::requirement{#R1}\nSome text.\n:::", analyzer)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorContains(t, err, "analyzer unavailable")
}

func TestValidate_NilAnalyzerSkipsQualityGate(t *testing.T) {
	res, err := Validate(context.Background(), ":::requirement{#R1}\nSome text.\n:::", nil)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Warnings)
}

func TestValidate_UnclosedBlockIsNotAlsoEmpty(t *testing.T) {
	// A block either closes empty or never closes; the two diagnostics
	// are mutually exclusive for the same block.
	res, err := Validate(context.Background(), ":::requirement{#R1}\n\n", &fakeAnalyzer{})
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeUnclosedBlock, res.Errors[0].Code)
}

func TestValidate_IDSeenSetIsPerCall(t *testing.T) {
	content := ":::requirement{#R1}\nSome text.\n:::"

	first, err := Validate(context.Background(), content, &fakeAnalyzer{})
	require.NoError(t, err)
	second, err := Validate(context.Background(), content, &fakeAnalyzer{})
	require.NoError(t, err)

	assert.True(t, first.Valid)
	assert.True(t, second.Valid, "IDs from an earlier call must not leak")
}
