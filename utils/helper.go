package utils

import "strings"

// NormalizeDistribution canonicalizes a distribution name so that requirement
// rows and ledger rows written through different paths land on the same key.
// Empty result means "unscoped" (project total).
func NormalizeDistribution(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func NewTrue() *bool {
	b := true
	return &b
}
