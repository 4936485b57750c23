package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pavelanni/quizsmith/internal/model"
)

// optionLetter formats a zero-based option index as its display letter.
func optionLetter(i int) string {
	if i < 0 || i > 25 {
		return strconv.Itoa(i + 1)
	}
	return string(rune('A' + i))
}

// optionAt returns the option text at i, or empty when i is out of range.
func optionAt(options []string, i int) string {
	if i < 0 || i >= len(options) {
		return ""
	}
	return options[i]
}

// optionsText renders the option bank of a question for tabular output.
func optionsText(q model.Question) string {
	switch q.Kind {
	case model.KindMultipleChoice, model.KindSelectAll, model.KindTrueFalse:
		parts := make([]string, 0, len(q.Options))
		for i, opt := range q.Options {
			parts = append(parts, optionLetter(i)+") "+opt)
		}
		return strings.Join(parts, "; ")
	case model.KindOrdering:
		return strings.Join(q.Items, "; ")
	case model.KindMatching:
		defs := make([]string, 0, len(q.Pairs))
		for _, p := range q.Pairs {
			defs = append(defs, p.Definition)
		}
		return strings.Join(defs, "; ")
	}
	return ""
}

// answerText renders the resolved correct answer of a question as one
// human-readable string, used by the tabular encoders and the answer-key
// sections of the document encoders.
func answerText(q model.Question) string {
	switch q.Kind {
	case model.KindMultipleChoice:
		if opt := optionAt(q.Options, q.CorrectIndex); opt != "" {
			return optionLetter(q.CorrectIndex) + ") " + opt
		}
		return optionLetter(q.CorrectIndex)
	case model.KindSelectAll:
		parts := make([]string, 0, len(q.CorrectIndices))
		for _, i := range q.CorrectIndices {
			parts = append(parts, optionLetter(i))
		}
		return strings.Join(parts, ", ")
	case model.KindTrueFalse:
		if q.CorrectBool {
			return "True"
		}
		return "False"
	case model.KindFillInBlank, model.KindCloze:
		return q.CorrectText
	case model.KindShortAnswer:
		if len(q.AcceptableAnswers) == 0 {
			return q.CorrectText
		}
		return q.CorrectText + " (also: " + strings.Join(q.AcceptableAnswers, ", ") + ")"
	case model.KindMatching:
		parts := make([]string, 0, len(q.Pairs))
		for _, p := range q.Pairs {
			parts = append(parts, p.Term+" = "+p.Definition)
		}
		return strings.Join(parts, "; ")
	case model.KindOrdering:
		// Invert item -> position into the displayed correct sequence.
		seq := make([]string, len(q.Items))
		for i, pos := range q.CorrectOrder {
			if pos >= 0 && pos < len(seq) {
				seq[pos] = optionAt(q.Items, i)
			}
		}
		parts := make([]string, 0, len(seq))
		for pos, item := range seq {
			parts = append(parts, fmt.Sprintf("%d. %s", pos+1, item))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// acceptableAnswers returns the de-duplicated list of every answer string
// accepted for a fill-in or short-answer question, primary first.
func acceptableAnswers(q model.Question) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	add(q.CorrectText)
	for _, s := range q.AcceptableAnswers {
		add(s)
	}
	return out
}
