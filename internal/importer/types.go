// Package importer provides the domain logic for pulling external records
// into the fixed warehouse schema: the module registry, the field-mapping
// engine, mapping suggestion, and the shared error taxonomy.
// This package has no I/O dependencies and can be used by any frontend.
package importer

// RawRow is a single record as returned by the remote source: a mapping
// from external field name to value, shape unknown until fetch time.
type RawRow = map[string]any

// MappedRow is a record shaped onto canonical field keys.
type MappedRow = map[string]any

// Mapping relates canonical field keys to external source field names.
// An empty value means the canonical field is unmapped.
type Mapping map[string]string

// Field describes one canonical field of an import module.
type Field struct {
	Key     string   // canonical snake_case key, e.g. "order_id"
	Label   string   // display name shown in the mapping editor
	Aliases []string // known source header spellings across platforms
}

// ImportModule defines a logical import target. It scopes the canonical
// field set, the saved configurations, and the required-field rules.
type ImportModule struct {
	Key             string  // unique identifier: "orders", "stock", ...
	Label           string  // display name
	Fields          []Field // canonical field set, in display order
	RequirePlatform bool    // platform must be supplied on save/commit
	RequireShopName bool    // shop name must be supplied on save/commit
	RedirectPath    string  // default destination after a successful commit
}

// FieldKeys returns the canonical field keys in display order.
func (m ImportModule) FieldKeys() []string {
	keys := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Labels returns the display label for each canonical field key.
func (m ImportModule) Labels() map[string]string {
	labels := make(map[string]string, len(m.Fields))
	for _, f := range m.Fields {
		labels[f.Key] = f.Label
	}
	return labels
}

// HasField reports whether key is part of the module's canonical field set.
func (m ImportModule) HasField(key string) bool {
	for _, f := range m.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}
