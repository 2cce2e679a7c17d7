package parser

import "intake/internal/registry/models"

// Columns maps registry file column positions onto record fields. The
// positions belong to the upstream file format; keep them in sync with the
// provider's schema here and nowhere else.
type Columns struct {
	RegistryNumber int
	Name           int
	City           int
}

// DefaultColumns matches the current RSPO export layout.
var DefaultColumns = Columns{
	RegistryNumber: 0,
	Name:           4,
	City:           12,
}

// required returns the number of fields a row needs to reach every
// mandatory column. City is optional.
func (c Columns) required() int {
	return max(c.RegistryNumber, c.Name) + 1
}

// Record decodes the mapped fields of one split row. The second result is
// empty when the row produced a valid record, otherwise it names why the
// row was rejected.
func (c Columns) Record(fields []string) (models.Record, models.SkipReason) {
	if len(fields) < c.required() {
		return models.Record{}, models.SkipShortRow
	}

	number := DecodeField(fields[c.RegistryNumber])
	if number == "" {
		return models.Record{}, models.SkipMissingRegistryNumber
	}
	name := DecodeField(fields[c.Name])
	if name == "" {
		return models.Record{}, models.SkipMissingName
	}

	var city string
	if c.City >= 0 && c.City < len(fields) {
		city = DecodeField(fields[c.City])
	}

	return models.Record{
		ID:             number,
		RegistryNumber: number,
		Name:           name,
		City:           city,
	}, ""
}

// ParseLine splits and maps one data line in a single step.
func (c Columns) ParseLine(line string) (models.Record, models.SkipReason) {
	return c.Record(SplitRow(line, Delimiter))
}
