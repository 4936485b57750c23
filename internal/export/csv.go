package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/pavelanni/quizsmith/internal/model"
)

// EncodeCSV writes the generic tabular form: one row per question across all
// kinds. Every user-derived cell passes through the sanitizer; the fixed
// header row does not.
func EncodeCSV(a model.Assessment) (Result, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"Number", "Kind", "Prompt", "Options", "Correct Answer",
		"Points", "Cognitive Level", "Cognitive Framework",
	}
	if err := w.Write(header); err != nil {
		return Result{}, fmt.Errorf("write header: %w", err)
	}

	for _, q := range a.Questions {
		row := []string{
			strconv.Itoa(q.Ordinal),
			string(q.Kind),
			sanitizeCell(q.Prompt),
			sanitizeCell(optionsText(q)),
			sanitizeCell(answerText(q)),
			formatPoints(q.Points),
			sanitizeCell(q.CognitiveLevel),
			sanitizeCell(q.CognitiveFramework),
		}
		if err := w.Write(row); err != nil {
			return Result{}, fmt.Errorf("write row %d: %w", q.Ordinal, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Result{}, fmt.Errorf("flush csv: %w", err)
	}

	return Result{
		Data:        buf.Bytes(),
		ContentType: "text/csv; charset=utf-8",
		Ext:         "csv",
		Rows:        len(a.Questions),
	}, nil
}

// platformTime is the fixed per-question time limit column the platform
// template requires.
const platformTime = "30"

// EncodePlatformCSV writes the import template of a quiz platform with a
// fixed 10-column schema: prompt, type, five option slots, a 1-based correct
// option column, a time limit, and an image link. Kinds the schema cannot
// represent are skipped rather than emitted malformed; the header row is
// always present, and the skip count is reported on the Result.
func EncodePlatformCSV(a model.Assessment) (Result, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"Question Text", "Question Type",
		"Option 1", "Option 2", "Option 3", "Option 4", "Option 5",
		"Correct Answer", "Time in Seconds", "Image Link",
	}
	if err := w.Write(header); err != nil {
		return Result{}, fmt.Errorf("write header: %w", err)
	}

	rows, skipped := 0, 0
	for _, q := range a.Questions {
		row, ok := platformRow(q)
		if !ok {
			skipped++
			continue
		}
		if err := w.Write(row); err != nil {
			return Result{}, fmt.Errorf("write row %d: %w", q.Ordinal, err)
		}
		rows++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Result{}, fmt.Errorf("flush csv: %w", err)
	}

	return Result{
		Data:        buf.Bytes(),
		ContentType: "text/csv; charset=utf-8",
		Ext:         "csv",
		Rows:        rows,
		Skipped:     skipped,
	}, nil
}

func platformRow(q model.Question) ([]string, bool) {
	var qType, correct string
	options := make([]string, 5)

	fillOptions := func(src []string) {
		for i := 0; i < len(src) && i < 5; i++ {
			options[i] = sanitizeCell(src[i])
		}
	}

	switch q.Kind {
	case model.KindMultipleChoice:
		if q.CorrectIndex < 0 || q.CorrectIndex >= 5 {
			// the correct option has no column in the 5-slot schema
			return nil, false
		}
		qType = "Multiple Choice"
		fillOptions(q.Options)
		correct = strconv.Itoa(q.CorrectIndex + 1)
	case model.KindTrueFalse:
		qType = "Multiple Choice"
		fillOptions([]string{"True", "False"})
		if q.CorrectBool {
			correct = "1"
		} else {
			correct = "2"
		}
	case model.KindSelectAll:
		qType = "Checkbox"
		fillOptions(q.Options)
		parts := make([]string, 0, len(q.CorrectIndices))
		for _, i := range q.CorrectIndices {
			if i < 5 {
				parts = append(parts, strconv.Itoa(i+1))
			}
		}
		correct = strings.Join(parts, ",")
	case model.KindFillInBlank, model.KindShortAnswer:
		qType = "Fill-in-the-Blank"
		correct = sanitizeCell(strings.Join(acceptableAnswers(q), ","))
	default:
		// matching, ordering, essay, cloze, stimulus have no representation
		// in the fixed schema.
		return nil, false
	}

	row := []string{sanitizeCell(q.Prompt), qType}
	row = append(row, options...)
	row = append(row, correct, platformTime, sanitizeCell(q.ImageRef))
	return row, true
}

func formatPoints(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
