package export

// Sanitize guards a value destined for a delimited tabular cell against
// spreadsheet formula injection. A leading single quote neutralizes the
// characters spreadsheet engines interpret as formula or command starts.
// Non-string values pass through unchanged, as do fixed header cells, which
// are never routed through here.
func Sanitize(value any) any {
	s, ok := value.(string)
	if !ok || s == "" {
		return value
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return value
}

// sanitizeCell is the string-in, string-out form used by the CSV encoders.
func sanitizeCell(s string) string {
	v, _ := Sanitize(s).(string)
	return v
}
