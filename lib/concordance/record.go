package concordance

import (
	"strings"
)

// Header is the ordered list of column names shown above a results table.
type Header []string

// ParseHeader collapses the whitespace of a header caption and splits it
// into column names.
func ParseHeader(text string) Header {
	return Header(strings.Fields(text))
}

type Field struct {
	Name  string
	Value string
}

// Record is one concordance keyed by column name. Fields keep header order.
type Record []Field

// Assemble zips header names with values by position. Whichever side is
// shorter is padded with Placeholder, so the record always has
// max(len(header), len(values)) fields.
func Assemble(header Header, values []string) Record {
	n := max(len(header), len(values))
	record := make(Record, n)
	for i := 0; i < n; i++ {
		name, value := Placeholder, Placeholder
		if i < len(header) {
			name = header[i]
		}
		if i < len(values) {
			value = values[i]
		}
		record[i] = Field{Name: name, Value: value}
	}
	return record
}

// Get returns the value of the last field named name.
func (r Record) Get(name string) (string, bool) {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i].Name == name {
			return r[i].Value, true
		}
	}
	return "", false
}

// Map flattens the record, later fields win on repeated names.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r))
	for _, f := range r {
		out[f.Name] = f.Value
	}
	return out
}

// Names lists the column names in record order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Columns returns the union of field names across records in first-seen
// order.
func Columns(records []Record) []string {
	var columns []string
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, f := range r {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			columns = append(columns, f.Name)
		}
	}
	return columns
}
