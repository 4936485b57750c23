// Package export renders canonical assessments into the supported output
// formats. Every encoder is a pure function over its input assessment:
// no I/O, no shared state, safe to run concurrently for distinct calls.
package export

import (
	"fmt"
	"sort"

	"github.com/pavelanni/quizsmith/internal/model"
)

// Result is one encoded artifact plus the bookkeeping callers need to
// observe skip/degrade behavior (rows written vs. questions supplied).
type Result struct {
	Data        []byte
	ContentType string
	Ext         string
	Rows        int // questions represented in the artifact
	Skipped     int // questions the format could not represent
}

// EncodeFunc is the fixed contract every format implements.
type EncodeFunc func(model.Assessment) (Result, error)

var formats = map[string]EncodeFunc{
	"csv":          EncodeCSV,
	"platform_csv": EncodePlatformCSV,
	"plaintext":    EncodeGIFT,
	"lms_package":  EncodeQTI,
	"document":     EncodeDOCX,
	"printable":    EncodePDF,
}

// Formats returns the supported format keys in sorted order.
func Formats() []string {
	keys := make([]string, 0, len(formats))
	for k := range formats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encode renders the assessment in the named format.
func Encode(format string, a model.Assessment) (Result, error) {
	fn, ok := formats[format]
	if !ok {
		return Result{}, fmt.Errorf("unknown export format %q", format)
	}
	return fn(a)
}
