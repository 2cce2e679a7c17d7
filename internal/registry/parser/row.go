package parser

import "strings"

// Delimiter separates fields in the registry file.
const Delimiter = ';'

// SplitRow splits one line (without its terminator) into raw fields.
//
// The delimiter only separates fields outside double quotes. Quote characters
// are kept in the output so DecodeField can unwrap them; an escaped quote ("")
// inside a quoted segment is copied as-is and does not end the segment. The
// last field is always appended, so a trailing delimiter yields an empty field.
func SplitRow(line string, delim byte) []string {
	fields := make([]string, 0, strings.Count(line, string(delim))+1)
	var field strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(line) && line[i+1] == '"':
			field.WriteString(`""`)
			i++
		case c == '"':
			inQuotes = !inQuotes
			field.WriteByte(c)
		case c == delim && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	return append(fields, field.String())
}
