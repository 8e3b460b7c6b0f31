package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseImportRows(t *testing.T) {
	raw := [][]string{
		{"Kabel udara", "1200.5", "meter", "Cluster Melati", "ODP-A", "pengadaan batch 1"},
		{"Tiang", "40", "batang"}, // short row, optional columns absent
		{"", ""},                  // trailing blank row
	}
	rows, err := parseImportRows(raw)
	if err != nil {
		t.Fatalf("parseImportRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first.MaterialName != "Kabel udara" || first.ProjectName != "Cluster Melati" {
		t.Errorf("row 1 = %+v", first)
	}
	if !first.qty.Equal(decimal.NewFromFloat(1200.5)) {
		t.Errorf("row 1 qty = %s", first.qty)
	}
	if first.line != 2 {
		t.Errorf("row 1 line = %d, want 2 (after header)", first.line)
	}

	if rows[1].ProjectName != "" || rows[1].Distribution != "" {
		t.Errorf("row 2 optional columns = %+v", rows[1])
	}
}

func TestParseImportRowsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  [][]string
	}{
		{"missing material", [][]string{{"", "10", "meter"}}},
		{"missing quantity", [][]string{{"Tiang", ""}}},
		{"non-numeric quantity", [][]string{{"Tiang", "abc"}}},
		{"zero quantity", [][]string{{"Tiang", "0"}}},
		{"negative quantity", [][]string{{"Tiang", "-4"}}},
		{"bad row after good row", [][]string{{"Tiang", "4"}, {"Kabel", "x"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseImportRows(tc.raw); err == nil {
				t.Error("want error, got nil")
			}
		})
	}
}
