package importer

import (
	"reflect"
	"testing"
)

func TestApplyMapping_Basic(t *testing.T) {
	rows := []RawRow{
		{"Order No": "1", "Qty": "2"},
	}
	mapping := Mapping{"order_id": "Order No", "qty": "Qty"}

	got := ApplyMapping(rows, mapping)

	want := []MappedRow{{"order_id": "1", "qty": "2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ApplyMapping() = %v, want %v", got, want)
	}
}

func TestApplyMapping_UnmappedFieldOmitted(t *testing.T) {
	rows := []RawRow{
		{"Order No": "1", "Qty": "2"},
		{"Order No": "3", "Qty": "4"},
	}
	mapping := Mapping{"order_id": "Order No", "qty": "Qty", "sku": ""}

	got := ApplyMapping(rows, mapping)

	for i, row := range got {
		if _, ok := row["sku"]; ok {
			t.Errorf("row %d: unmapped field sku should be omitted, got %v", i, row)
		}
	}
}

func TestApplyMapping_MissingSourceKeyOmitted(t *testing.T) {
	rows := []RawRow{
		{"Order No": "1"},
		{"Order No": "2", "Qty": "5"},
	}
	mapping := Mapping{"order_id": "Order No", "qty": "Qty"}

	got := ApplyMapping(rows, mapping)

	if _, ok := got[0]["qty"]; ok {
		t.Errorf("row 0 lacks Qty, mapped row should omit qty: %v", got[0])
	}
	if got[1]["qty"] != "5" {
		t.Errorf("row 1 qty = %v, want %q", got[1]["qty"], "5")
	}
}

func TestApplyMapping_Deterministic(t *testing.T) {
	rows := []RawRow{
		{"a": 1, "b": 2, "c": 3},
		{"a": 4, "b": 5},
		{"c": 6},
	}
	mapping := Mapping{"x": "a", "y": "b", "z": "c"}

	first := ApplyMapping(rows, mapping)
	second := ApplyMapping(rows, mapping)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two identical calls differ: %v vs %v", first, second)
	}
}

func TestApplyMapping_PreservesOrder(t *testing.T) {
	rows := make([]RawRow, 25)
	for i := range rows {
		rows[i] = RawRow{"n": i}
	}
	mapping := Mapping{"num": "n"}

	got := ApplyMapping(rows, mapping)

	if len(got) != len(rows) {
		t.Fatalf("len = %d, want %d", len(got), len(rows))
	}
	for i, row := range got {
		if row["num"] != i {
			t.Errorf("row %d: num = %v, want %d", i, row["num"], i)
		}
	}
}

func TestApplyMapping_EmptyInput(t *testing.T) {
	got := ApplyMapping(nil, Mapping{"order_id": "Order No"})
	if len(got) != 0 {
		t.Errorf("ApplyMapping(nil) = %v, want empty", got)
	}
}

// The committed dataset and the previewed dataset must come out of the
// same function: mapping a slice equals slicing the mapped whole.
func TestPreviewSlice_ConsistentWithFullRemap(t *testing.T) {
	rows := make([]RawRow, 37)
	for i := range rows {
		rows[i] = RawRow{"Order No": i, "Qty": i * 2}
	}
	mapping := Mapping{"order_id": "Order No", "qty": "Qty"}

	preview := PreviewSlice(rows, mapping)
	full := ApplyMapping(rows, mapping)

	if len(preview) != PreviewRows {
		t.Fatalf("preview len = %d, want %d", len(preview), PreviewRows)
	}
	if !reflect.DeepEqual(preview, full[:PreviewRows]) {
		t.Errorf("preview diverges from full remap prefix")
	}
}

func TestPreviewSlice_ShortInput(t *testing.T) {
	rows := []RawRow{{"a": 1}, {"a": 2}}
	got := PreviewSlice(rows, Mapping{"x": "a"})
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestSourceFields(t *testing.T) {
	tests := []struct {
		name string
		rows []RawRow
		want []string
	}{
		{
			name: "sorted keys of first row",
			rows: []RawRow{{"Qty": 1, "Order No": "x"}, {"Other": true}},
			want: []string{"Order No", "Qty"},
		},
		{
			name: "no rows",
			rows: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SourceFields(tt.rows)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SourceFields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeDomain(t *testing.T) {
	mod, ok := GetModule("stock")
	if !ok {
		t.Fatal("stock module not registered")
	}

	got := NormalizeDomain(mod, Mapping{"sku": "SKU", "bogus": "x"})

	if len(got) != len(mod.Fields) {
		t.Fatalf("domain size = %d, want %d", len(got), len(mod.Fields))
	}
	if got["sku"] != "SKU" {
		t.Errorf("sku = %q, want %q", got["sku"], "SKU")
	}
	if got["qty"] != "" {
		t.Errorf("qty = %q, want unmapped", got["qty"])
	}
	if _, ok := got["bogus"]; ok {
		t.Error("unknown key bogus should be dropped")
	}
}
