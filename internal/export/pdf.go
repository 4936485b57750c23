package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/pavelanni/quizsmith/internal/i18n"
	"github.com/pavelanni/quizsmith/internal/model"
)

// Page geometry in millimeters (A4 portrait).
const (
	pdfLeftMargin  = 15.0
	pdfTopMargin   = 20.0
	pdfBottomLimit = 277.0 // cursor past this point triggers a page break
	pdfLineWidth   = 180.0 // maximum rendered line width
	pdfLineHeight  = 6.0
	pdfIndent      = 8.0
)

// pdfWriter owns the vertical cursor for one encoding call. All state is
// scoped to a single call; concurrent encodes never share a writer.
type pdfWriter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string // UTF-8 to cp1252 for the core fonts
	y   float64
}

// EncodePDF renders the paginated printable worksheet: questions first, then
// a separate answer-key section. A zero-question assessment still produces a
// minimal valid document.
func EncodePDF(a model.Assessment) (Result, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), y: pdfTopMargin}

	pdf.SetFont("Helvetica", "B", 14)
	w.write(0, a.Title)
	pdf.SetFont("Helvetica", "", 11)
	w.write(0, pdfLabel("export.name", nil)+": ____________________    "+pdfLabel("export.date", nil)+": __________")
	w.blank()

	for _, q := range a.Questions {
		w.question(q)
	}

	w.blank()
	pdf.SetFont("Helvetica", "B", 12)
	w.write(0, pdfLabel("export.answer_key", nil))
	pdf.SetFont("Helvetica", "", 11)
	for _, q := range a.Questions {
		ans := answerText(q)
		if ans == "" {
			ans = "-"
		}
		w.write(0, fmt.Sprintf("%d. %s", q.Ordinal, ans))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Result{}, fmt.Errorf("render pdf: %w", err)
	}
	return Result{
		Data:        buf.Bytes(),
		ContentType: "application/pdf",
		Ext:         "pdf",
		Rows:        len(a.Questions),
	}, nil
}

func (w *pdfWriter) question(q model.Question) {
	header := fmt.Sprintf("%d. %s", q.Ordinal, q.Prompt)
	if q.Points > 0 {
		header += "  (" + pdfLabel("export.points_n", map[string]any{"Points": formatPoints(q.Points)}) + ")"
	}
	w.write(0, header)

	switch q.Kind {
	case model.KindMultipleChoice, model.KindSelectAll, model.KindTrueFalse:
		for i, opt := range q.Options {
			w.write(pdfIndent, optionLetter(i)+") "+opt)
		}
	case model.KindMatching:
		w.write(pdfIndent, pdfLabel("export.match_instructions", nil))
		for i, p := range q.Pairs {
			w.write(pdfIndent, fmt.Sprintf("%d. %s    ____ %s) %s",
				i+1, p.Term, optionLetter(i), p.Definition))
		}
	case model.KindOrdering:
		w.write(pdfIndent, pdfLabel("export.order_instructions", nil))
		for _, item := range q.Items {
			w.write(pdfIndent, "____  "+item)
		}
	case model.KindFillInBlank, model.KindCloze, model.KindShortAnswer:
		w.write(pdfIndent, "________________________________________")
	case model.KindEssay:
		for i := 0; i < 4; i++ {
			w.write(pdfIndent, "________________________________________")
		}
	}
	w.blank()
}

// pdfLabel resolves a fixed label for the printable artifact. The core PDF
// fonts cover only the Latin-1 repertoire, so localized labels outside it
// fall back to their English form.
func pdfLabel(msgID string, data map[string]any) string {
	if s := i18n.Td(msgID, data); latin1(s) {
		return s
	}
	return i18n.TLang("en", msgID, data)
}

func latin1(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}

// write word-wraps text against the fixed line width (minus indent) and
// streams the lines through the cursor. Text is recoded to cp1252 up front
// so wrapping measures what the fonts will render.
func (w *pdfWriter) write(indent float64, text string) {
	for _, line := range w.wrap(w.tr(text), pdfLineWidth-indent) {
		w.line(indent, line)
	}
}

// line places one already-fitted line and advances the cursor, breaking to a
// new page when the cursor crosses the bottom limit.
func (w *pdfWriter) line(indent float64, s string) {
	if w.y > pdfBottomLimit {
		w.pdf.AddPage()
		w.y = pdfTopMargin
	}
	w.pdf.Text(pdfLeftMargin+indent, w.y, s)
	w.y += pdfLineHeight
}

func (w *pdfWriter) blank() {
	w.y += pdfLineHeight / 2
	if w.y > pdfBottomLimit {
		w.pdf.AddPage()
		w.y = pdfTopMargin
	}
}

// wrap splits text into lines no wider than the given width, measuring with
// the current font. A single word wider than a line is emitted as-is.
func (w *pdfWriter) wrap(text string, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if w.pdf.GetStringWidth(candidate) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}
