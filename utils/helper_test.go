package utils

import "testing"

func TestNormalizeDistribution(t *testing.T) {
	if got := NormalizeDistribution("  odp-a "); got != "ODP-A" {
		t.Errorf("got %q, want ODP-A", got)
	}
	if got := NormalizeDistribution("   "); got != "" {
		t.Errorf("blank name should normalize to unscoped, got %q", got)
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Kabel Udara 24C", "udara") {
		t.Error("case-insensitive substring not found")
	}
	if ContainsFold("Tiang", "odp") {
		t.Error("unexpected match")
	}
}
