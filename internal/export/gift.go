package export

import (
	"fmt"
	"strings"

	"github.com/pavelanni/quizsmith/internal/model"
)

// giftEscaper escapes the characters that carry syntax in the GIFT
// interchange format, anywhere they appear in prompt or answer text.
var giftEscaper = strings.NewReplacer(
	"~", `\~`,
	"=", `\=`,
	"#", `\#`,
	"{", `\{`,
	"}", `\}`,
	":", `\:`,
)

func giftEscape(s string) string {
	return giftEscaper.Replace(s)
}

// EncodeGIFT writes the plain-text interchange form. Each question becomes a
// `::name:: prompt { answers }` block; the answer block syntax is
// kind-specific.
func EncodeGIFT(a model.Assessment) (Result, error) {
	var b strings.Builder
	if a.Title != "" {
		fmt.Fprintf(&b, "// %s\n\n", a.Title)
	}

	for _, q := range a.Questions {
		fmt.Fprintf(&b, "::Q%d:: %s ", q.Ordinal, giftEscape(q.Prompt))
		b.WriteString(giftAnswerBlock(q))
		b.WriteString("\n\n")
	}

	return Result{
		Data:        []byte(b.String()),
		ContentType: "text/plain; charset=utf-8",
		Ext:         "txt",
		Rows:        len(a.Questions),
	}, nil
}

func giftAnswerBlock(q model.Question) string {
	switch q.Kind {
	case model.KindMultipleChoice:
		var b strings.Builder
		b.WriteString("{\n")
		for i, opt := range q.Options {
			marker := "~"
			if i == q.CorrectIndex {
				marker = "="
			}
			fmt.Fprintf(&b, "%s%s\n", marker, giftEscape(opt))
		}
		b.WriteString("}")
		return b.String()

	case model.KindSelectAll:
		correct := make(map[int]bool, len(q.CorrectIndices))
		for _, i := range q.CorrectIndices {
			correct[i] = true
		}
		var b strings.Builder
		b.WriteString("{\n")
		for i, opt := range q.Options {
			marker := "~"
			if correct[i] {
				marker = "="
			}
			fmt.Fprintf(&b, "%s%s\n", marker, giftEscape(opt))
		}
		b.WriteString("}")
		return b.String()

	case model.KindTrueFalse:
		if q.CorrectBool {
			return "{TRUE}"
		}
		return "{FALSE}"

	case model.KindFillInBlank, model.KindCloze, model.KindShortAnswer:
		var b strings.Builder
		b.WriteString("{")
		for _, ans := range acceptableAnswers(q) {
			b.WriteString("=" + giftEscape(ans) + " ")
		}
		return strings.TrimRight(b.String(), " ") + "}"

	case model.KindMatching:
		var b strings.Builder
		b.WriteString("{\n")
		for _, p := range q.Pairs {
			fmt.Fprintf(&b, "=%s -> %s\n", giftEscape(p.Term), giftEscape(p.Definition))
		}
		b.WriteString("}")
		return b.String()

	case model.KindOrdering:
		// The matching pair syntax reused with the 1-based rank of each item
		// under the correct order as the right-hand side.
		var b strings.Builder
		b.WriteString("{\n")
		for i, item := range q.Items {
			rank := i
			if i < len(q.CorrectOrder) {
				rank = q.CorrectOrder[i]
			}
			fmt.Fprintf(&b, "=%s -> %d\n", giftEscape(item), rank+1)
		}
		b.WriteString("}")
		return b.String()
	}

	// essay, stimulus: empty answer block keeps the question parseable.
	return "{}"
}
