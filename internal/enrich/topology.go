package enrich

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Mode selects the stage topology of a batch.
type Mode string

const (
	// ModeFlat runs three independent stages per row.
	ModeFlat Mode = "flat"
	// ModeChained runs stages 1 and 2 per row, then stage 3 on their answers.
	ModeChained Mode = "chained"
	// ModeGrouped runs stages 1 and 2 per row, then one stage-3 summary per
	// partition of rows.
	ModeGrouped Mode = "grouped"
)

// ParseMode validates a mode name. Empty means flat.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFlat:
		return ModeFlat, nil
	case ModeChained:
		return ModeChained, nil
	case ModeGrouped:
		return ModeGrouped, nil
	default:
		return "", eris.Errorf("enrich: unknown mode %q (want flat, chained or grouped)", s)
	}
}

// Stage names.
const (
	StagePrompt1 = "prompt1"
	StagePrompt2 = "prompt2"
	StagePrompt3 = "prompt3"
)

// DefaultChainFormat builds the stage-3 subject in chained mode from the
// stage-1 and stage-2 answers.
const DefaultChainFormat = "The first answer was: '%s'. The second answer was: '%s'."

// FlatStages returns three independent stages over the row subject.
func FlatStages(t Templates) []Stage {
	return []Stage{
		{Name: StagePrompt1, Template: t.Prompt1},
		{Name: StagePrompt2, Template: t.Prompt2},
		{Name: StagePrompt3, Template: t.Prompt3},
	}
}

// ChainedStages returns stages 1 and 2 over the row subject and stage 3 over
// their answers formatted with chainFormat.
func ChainedStages(t Templates, chainFormat string) []Stage {
	if chainFormat == "" {
		chainFormat = DefaultChainFormat
	}
	return []Stage{
		{Name: StagePrompt1, Template: t.Prompt1},
		{Name: StagePrompt2, Template: t.Prompt2},
		{
			Name:      StagePrompt3,
			Template:  t.Prompt3,
			DependsOn: []string{StagePrompt1, StagePrompt2},
			Input: func(_ Unit, deps map[string]Result) Subject {
				return NewSubject(fmt.Sprintf(chainFormat, deps[StagePrompt1].Cell(), deps[StagePrompt2].Cell()))
			},
		},
	}
}

// RowStages returns the per-row stages of grouped mode.
func RowStages(t Templates) []Stage {
	return []Stage{
		{Name: StagePrompt1, Template: t.Prompt1},
		{Name: StagePrompt2, Template: t.Prompt2},
	}
}

// SummaryStages returns the per-partition stage of grouped mode.
func SummaryStages(t Templates) []Stage {
	return []Stage{
		{Name: StagePrompt3, Template: t.Prompt3},
	}
}
