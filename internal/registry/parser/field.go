// Package parser turns raw registry lines into records: it splits a line into
// fields, decodes spreadsheet-escaped field values and maps fixed column
// positions onto models.Record.
package parser

import "strings"

// DecodeField returns the logical value of one raw CSV field.
//
// Spreadsheet exports wrap numeric-looking identifiers as ="value" so they are
// not reformatted; that wrapper is removed first, then one pair of plain
// surrounding quotes, then doubled quotes are unescaped.
func DecodeField(raw string) string {
	v := strings.TrimSpace(raw)
	if len(v) >= 3 && strings.HasPrefix(v, `="`) && strings.HasSuffix(v, `"`) {
		v = v[2 : len(v)-1]
	}
	if len(v) > 1 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	return strings.ReplaceAll(v, `""`, `"`)
}
