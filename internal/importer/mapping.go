package importer

import "sort"

// PreviewRows is the number of mapped records shown to the operator
// before committing.
const PreviewRows = 10

// ApplyMapping shapes raw source records onto canonical field keys.
//
// For each record and each canonical field k with mapping[k] = f, the
// output record carries rows[i][f] under k when the source field f exists.
// Unmapped canonical fields and source fields absent from a record are
// omitted from that record rather than set to a sentinel value.
//
// The function is pure: same inputs always produce the same output, and
// output order equals input order. The commit path and the preview path
// both go through here, differing only in which slice of rows is passed.
func ApplyMapping(rows []RawRow, mapping Mapping) []MappedRow {
	out := make([]MappedRow, len(rows))
	for i, row := range rows {
		mapped := make(MappedRow, len(mapping))
		for key, src := range mapping {
			if src == "" {
				continue
			}
			if v, ok := row[src]; ok {
				mapped[key] = v
			}
		}
		out[i] = mapped
	}
	return out
}

// PreviewSlice maps the first PreviewRows records of rows.
func PreviewSlice(rows []RawRow, mapping Mapping) []MappedRow {
	if len(rows) > PreviewRows {
		rows = rows[:PreviewRows]
	}
	return ApplyMapping(rows, mapping)
}

// SourceFields returns the key set of the first record, sorted. These are
// the source-field choices the mapping editor offers for every canonical
// key. Empty when no rows were fetched.
func SourceFields(rows []RawRow) []string {
	if len(rows) == 0 {
		return nil
	}
	fields := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// NormalizeDomain restricts a mapping's domain to exactly the module's
// canonical field set: unknown keys are dropped and missing canonical
// keys are added unmapped. Values are not validated against any source
// key set; a dangling source field simply maps nothing at remap time.
func NormalizeDomain(m ImportModule, mapping Mapping) Mapping {
	out := make(Mapping, len(m.Fields))
	for _, f := range m.Fields {
		out[f.Key] = mapping[f.Key]
	}
	return out
}
