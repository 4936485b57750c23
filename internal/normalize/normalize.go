// Package normalize maps raw question records of arbitrary shape into the
// canonical model. Generated and imported questions arrive under several
// aliasing conventions (different prompt keys, option encodings, answer
// encodings, type vocabularies); everything funnels through Record so the
// rest of the system only ever sees canonical questions.
//
// Normalization never fails: missing or garbled fields resolve to safe
// defaults and the anomaly is logged, not raised.
package normalize

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/pavelanni/quizsmith/internal/model"
)

// Records normalizes a batch in storage order, assigning 1-based ordinals.
// Ordinals always come from position, never from the source data.
func Records(raws []map[string]any) []model.Question {
	questions := make([]model.Question, 0, len(raws))
	for i, raw := range raws {
		q := Record(raw)
		q.Ordinal = i + 1
		questions = append(questions, q)
	}
	return questions
}

// Record normalizes a single raw record into a canonical question.
func Record(raw map[string]any) model.Question {
	if raw == nil {
		raw = map[string]any{}
	}

	q := model.Question{
		Prompt:             stringField(raw, "prompt", "text", "stem", "body"),
		Points:             pointsField(raw),
		CognitiveLevel:     stringField(raw, "cognitive_level"),
		CognitiveFramework: stringField(raw, "cognitive_framework"),
		ImageRef:           stringField(raw, "image_ref", "image_url"),
		ImageDescription:   stringField(raw, "image_description"),
	}
	q.Kind = resolveKind(raw)

	switch q.Kind {
	case model.KindMultipleChoice:
		q.Options = parseOptions(raw)
		q.CorrectIndex = resolveChoiceIndex(raw, q.Options, q.Prompt)
	case model.KindSelectAll:
		q.Options = parseOptions(raw)
		q.CorrectIndices = resolveChoiceIndices(raw, q.Options, q.Prompt)
	case model.KindTrueFalse:
		q.Options = []string{"True", "False"}
		q.CorrectBool = resolveBool(raw, q.Prompt)
	case model.KindFillInBlank, model.KindCloze:
		q.CorrectText = stringField(raw, "correct_answer", "expected_answer", "correct_text", "answer")
	case model.KindShortAnswer:
		q.CorrectText = stringField(raw, "expected_answer", "correct_answer", "correct_text", "answer")
		q.AcceptableAnswers = stringListField(raw, "acceptable_answers")
	case model.KindMatching:
		q.Pairs = resolvePairs(raw)
	case model.KindOrdering:
		q.Items, q.CorrectOrder = resolveOrdering(raw)
	case model.KindEssay, model.KindStimulus:
		// Prompt only.
	}

	return q
}

// kindLabels maps lowercased, space-normalized source labels onto the closed
// kind set. Canonical names map to themselves so normalization is idempotent.
var kindLabels = map[string]model.Kind{
	"multiple choice":          model.KindMultipleChoice,
	"multiplechoice":           model.KindMultipleChoice,
	"mcq":                      model.KindMultipleChoice,
	"true/false":               model.KindTrueFalse,
	"true false":               model.KindTrueFalse,
	"true or false":            model.KindTrueFalse,
	"fill in blank":            model.KindFillInBlank,
	"fill in the blank":        model.KindFillInBlank,
	"fill-in-the-blank":        model.KindFillInBlank,
	"matching":                 model.KindMatching,
	"ordering":                 model.KindOrdering,
	"sequencing":               model.KindOrdering,
	"short answer":             model.KindShortAnswer,
	"essay":                    model.KindEssay,
	"select all":               model.KindSelectAll,
	"select all that apply":    model.KindSelectAll,
	"multiple select":          model.KindSelectAll,
	"cloze":                    model.KindCloze,
	"cloze passage":            model.KindCloze,
	"stimulus":                 model.KindStimulus,
	"passage":                  model.KindStimulus,
	"stimulus/passage":         model.KindStimulus,
	"reading passage":          model.KindStimulus,
}

func init() {
	for _, k := range model.Kinds() {
		kindLabels[strings.ReplaceAll(string(k), "_", " ")] = k
	}
}

func resolveKind(raw map[string]any) model.Kind {
	label := stringField(raw, "kind", "type", "question_type")
	key := strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(label, "_", " "))), " ")
	if k, ok := kindLabels[key]; ok {
		return k
	}

	// Best guess from shape when the label is missing or unknown.
	if _, ok := raw["pairs"]; ok {
		return model.KindMatching
	}
	if _, ok := raw["prompt_items"]; ok {
		return model.KindMatching
	}
	if _, ok := raw["correct_order"]; ok {
		return model.KindOrdering
	}
	if len(parseOptions(raw)) > 0 {
		return model.KindMultipleChoice
	}
	if label != "" {
		slog.Warn("unknown question type label", "label", label)
	}
	return model.KindShortAnswer
}

// parseOptions accepts the three option shapes the corpus produces: a list of
// strings, a list of {id, text} objects, or a dict keyed by letter (sorted by
// key so the order is deterministic).
func parseOptions(raw map[string]any) []string {
	v, ok := raw["options"]
	if !ok {
		v, ok = raw["choices"]
	}
	if !ok {
		return nil
	}

	switch opts := v.(type) {
	case []any:
		out := make([]string, 0, len(opts))
		for _, o := range opts {
			switch opt := o.(type) {
			case string:
				out = append(out, opt)
			case map[string]any:
				out = append(out, stringField(opt, "text", "label", "value"))
			default:
				out = append(out, "")
			}
		}
		return out
	case []string:
		return opts
	case map[string]any:
		keys := make([]string, 0, len(opts))
		for k := range opts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			s, _ := opts[k].(string)
			out = append(out, s)
		}
		return out
	}
	return nil
}

// resolveChoiceIndex applies the ordered guard ladder for single-answer
// choice questions: exact option text, then a single letter A-Z, then an
// explicit index, then index 0. The default-0 leg almost always means the
// generator produced an answer that matches nothing, so it is logged.
func resolveChoiceIndex(raw map[string]any, options []string, prompt string) int {
	if ans := stringField(raw, "correct_answer"); ans != "" {
		for i, opt := range options {
			if opt == ans {
				return i
			}
		}
		if idx, ok := letterIndex(ans); ok {
			return idx
		}
	}
	if idx, ok := intField(raw, "correct_index"); ok {
		return idx
	}
	if indices := intListField(raw, "correct_indices"); len(indices) > 0 {
		return indices[0]
	}
	slog.Warn("unresolvable correct answer, defaulting to first option", "prompt", snippet(prompt))
	return 0
}

func resolveChoiceIndices(raw map[string]any, options []string, prompt string) []int {
	if indices := intListField(raw, "correct_indices"); len(indices) > 0 {
		return indices
	}
	// A list of answer texts or letters.
	if list, ok := raw["correct_answers"].([]any); ok && len(list) > 0 {
		var out []int
		for _, v := range list {
			s, _ := v.(string)
			if idx, ok := resolveAnswerText(s, options); ok {
				out = append(out, idx)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	if ans := stringField(raw, "correct_answer"); ans != "" {
		if idx, ok := resolveAnswerText(ans, options); ok {
			return []int{idx}
		}
	}
	slog.Warn("unresolvable correct answers, defaulting to first option", "prompt", snippet(prompt))
	return []int{0}
}

func resolveAnswerText(ans string, options []string) (int, bool) {
	for i, opt := range options {
		if opt == ans {
			return i, true
		}
	}
	return letterIndex(ans)
}

// letterIndex maps a single letter A-Z (either case) to a zero-based index.
func letterIndex(s string) (int, bool) {
	if len(s) != 1 {
		return 0, false
	}
	c := s[0]
	switch {
	case c >= 'A' && c <= 'Z':
		return int(c - 'A'), true
	case c >= 'a' && c <= 'z':
		return int(c - 'a'), true
	}
	return 0, false
}

func resolveBool(raw map[string]any, prompt string) bool {
	switch v := raw["correct_answer"].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "t":
			return true
		case "false", "f":
			return false
		}
	}
	if v, ok := raw["correct_bool"].(bool); ok {
		return v
	}
	if idx, ok := intField(raw, "correct_index"); ok {
		return idx == 0
	}
	slog.Warn("unresolvable true/false answer, defaulting to true", "prompt", snippet(prompt))
	return true
}

// resolvePairs accepts either a list of {term, definition} objects or
// parallel prompt_items/response_items arrays with an optional index
// correspondence, and always produces an ordered pair list.
func resolvePairs(raw map[string]any) []model.MatchPair {
	if list, ok := raw["pairs"].([]any); ok {
		pairs := make([]model.MatchPair, 0, len(list))
		for _, v := range list {
			m, ok := v.(map[string]any)
			if !ok {
				continue
			}
			pairs = append(pairs, model.MatchPair{
				Term:       stringField(m, "term", "left", "prompt"),
				Definition: stringField(m, "definition", "right", "answer"),
			})
		}
		return pairs
	}

	terms := stringListField(raw, "prompt_items")
	defs := stringListField(raw, "response_items")
	if len(terms) == 0 {
		return nil
	}
	matches := intListField(raw, "correct_matches")
	if len(matches) == 0 {
		matches = intListField(raw, "matches")
	}

	pairs := make([]model.MatchPair, 0, len(terms))
	for i, term := range terms {
		j := i // positional pairing unless a correspondence is given
		if i < len(matches) {
			j = matches[i]
		}
		var def string
		if j >= 0 && j < len(defs) {
			def = defs[j]
		}
		pairs = append(pairs, model.MatchPair{Term: term, Definition: def})
	}
	return pairs
}

// resolveOrdering keeps items in their original (scrambled) order alongside
// the permutation, so encoders can render both the prompt and the answer key.
// An absent or malformed permutation degrades to identity.
func resolveOrdering(raw map[string]any) ([]string, []int) {
	items := stringListField(raw, "items")
	if len(items) == 0 {
		items = parseOptions(raw)
	}
	order := intListField(raw, "correct_order")
	if !validPermutation(order, len(items)) {
		if len(order) > 0 {
			slog.Warn("invalid correct_order, using original item order")
		}
		order = make([]int, len(items))
		for i := range order {
			order[i] = i
		}
	}
	return items, order
}

func validPermutation(order []int, n int) bool {
	if len(order) != n || n == 0 {
		return n == 0 && len(order) == 0
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

func stringField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringListField(raw map[string]any, key string) []string {
	switch list := raw[key].(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func intField(raw map[string]any, key string) (int, bool) {
	v, ok := raw[key]
	if !ok {
		return 0, false
	}
	return asInt(v)
}

func intListField(raw map[string]any, key string) []int {
	switch list := raw[key].(type) {
	case []int:
		return list
	case []any:
		out := make([]int, 0, len(list))
		for _, v := range list {
			if n, ok := asInt(v); ok {
				out = append(out, n)
			}
		}
		return out
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func pointsField(raw map[string]any) float64 {
	for _, k := range []string{"points", "max_points", "point_value"} {
		switch n := raw[k].(type) {
		case float64:
			if n > 0 {
				return n
			}
		case int:
			if n > 0 {
				return float64(n)
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && f > 0 {
				return f
			}
		}
	}
	return 0
}

func snippet(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
