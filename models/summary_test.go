package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMergeSummaryRows(t *testing.T) {
	projectID := 1
	materials := map[int]*Material{
		10: {ID: 10, Name: "Kabel udara", Unit: "meter"},
		11: {ID: 11, Name: "Tiang", Unit: "batang"},
	}
	txns := []MaterialTransaction{
		{MaterialID: 10, ProjectID: &projectID, TransactionType: TransactionTypeIn, Quantity: decimal.NewFromInt(10)},
		{MaterialID: 10, ProjectID: &projectID, TransactionType: TransactionTypeOut, Quantity: decimal.NewFromInt(4)},
	}
	reqs := []ProjectMaterialRequirement{
		{MaterialID: 10, ProjectID: projectID, QuantityNeeded: decimal.NewFromInt(20)},
		// Requirement-only material still gets a row.
		{MaterialID: 11, ProjectID: projectID, QuantityNeeded: decimal.NewFromInt(60)},
	}

	rows := MergeSummaryRows(txns, reqs, materials)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	// Sorted by material name: Kabel udara before Tiang.
	kabel := rows[0]
	if kabel.MaterialName != "Kabel udara" {
		t.Fatalf("row 0 = %q", kabel.MaterialName)
	}
	if !kabel.TotalIn.Equal(decimal.NewFromInt(10)) ||
		!kabel.TotalOut.Equal(decimal.NewFromInt(4)) ||
		!kabel.QuantityNeeded.Equal(decimal.NewFromInt(20)) {
		t.Errorf("kabel in/out/need = %s/%s/%s", kabel.TotalIn, kabel.TotalOut, kabel.QuantityNeeded)
	}
	if !kabel.Remaining().Equal(decimal.NewFromInt(16)) {
		t.Errorf("kabel remaining = %s, want 16", kabel.Remaining())
	}

	tiang := rows[1]
	if !tiang.TotalIn.Equal(decimal.Zero) || !tiang.QuantityNeeded.Equal(decimal.NewFromInt(60)) {
		t.Errorf("tiang in/need = %s/%s", tiang.TotalIn, tiang.QuantityNeeded)
	}
	if tiang.IsVirtual {
		t.Error("merged rows must not be virtual")
	}
}

func TestBuildFallbackSummary(t *testing.T) {
	structures := []Structure{
		{StructureType: "Pole", Name: "TN-01"},
		{StructureType: "pole", Name: "TN-02"},
		{StructureType: "", Name: "Tiang existing 03"},
		{StructureType: "ODP", Name: "ODP-CKM-01"},
		{StructureType: "Termination", Name: "X-01"},
		{StructureType: "handhole", Name: "HH-01"}, // counted as neither
	}

	// Two vertices ~200m apart along a meridian: 0.0018 degrees of latitude.
	path, _ := json.Marshal([]LatLng{
		{Lat: -6.2000, Lng: 106.8000},
		{Lat: -6.2018, Lng: 106.8000},
	})
	routes := []RouteSegment{
		{Name: "aerial main", RouteType: "aerial", PathJSON: string(path)},
		{Name: "duct crossing", RouteType: "duct", PathJSON: string(path)},
		{Name: "bad path", RouteType: "aerial", PathJSON: "{not json"},
	}

	rows := BuildFallbackSummary(structures, routes)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want pole+odp+cable: %+v", len(rows), rows)
	}

	byName := map[string]*MaterialSummaryRow{}
	for _, row := range rows {
		if !row.IsVirtual {
			t.Errorf("fallback row %q must be virtual", row.MaterialName)
		}
		if row.MaterialID != 0 {
			t.Errorf("fallback row %q has material id %d", row.MaterialName, row.MaterialID)
		}
		byName[row.MaterialName] = row
	}

	if got := byName[VirtualPoleName].QuantityNeeded; !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("poles = %s, want 3", got)
	}
	if got := byName[VirtualOdpName].QuantityNeeded; !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("odps = %s, want 2", got)
	}

	// Only the aerial route contributes; the duct route is excluded and the
	// malformed path decodes to nothing. 0.0018 deg of latitude is ~200m.
	cable, _ := byName[VirtualCableName].QuantityNeeded.Float64()
	if math.Abs(cable-200) > 5 {
		t.Errorf("cable meters = %v, want ~200", cable)
	}
}

func TestBuildFallbackSummaryEmpty(t *testing.T) {
	if rows := BuildFallbackSummary(nil, nil); len(rows) != 0 {
		t.Errorf("empty assets should yield no rows, got %+v", rows)
	}
}

func TestRouteLengthMeters(t *testing.T) {
	// One degree of latitude is ~111.2km on the R=6371km sphere.
	points := []LatLng{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}}
	got := RouteLengthMeters(points)
	if math.Abs(got-111195) > 100 {
		t.Errorf("got %v, want ~111195", got)
	}

	if RouteLengthMeters(nil) != 0 || RouteLengthMeters(points[:1]) != 0 {
		t.Error("degenerate paths must have zero length")
	}
}
