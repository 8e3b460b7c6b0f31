package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestProgressFromUsage(t *testing.T) {
	tests := []struct {
		name   string
		needed int64
		used   int64
		want   int
		wantOk bool
	}{
		{"partial", 100, 40, 40, true},
		{"complete", 100, 100, 100, true},
		{"over-usage capped", 100, 250, 100, true},
		{"rounding", 3, 1, 33, true},
		{"zero needed has no opinion", 0, 50, 0, false},
		{"negative needed has no opinion", -10, 5, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ProgressFromUsage(decimal.NewFromInt(tc.needed), decimal.NewFromInt(tc.used))
			if ok != tc.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOk)
			}
			if ok && got != tc.want {
				t.Errorf("progress = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMatchKeywordTasks(t *testing.T) {
	rules := DefaultKeywordRules()

	tests := []struct {
		name     string
		activity string
		want     []string
	}{
		{
			"survey mention",
			"- survey jalur kabel cluster utara",
			[]string{"Survey"},
		},
		{
			"multiple matches",
			"Kick off meeting dengan warga, lanjut commissioning besok",
			[]string{"Kick Off Meeting", "Commissioning Test"},
		},
		{
			"case insensitive",
			"UJI TERIMA selesai",
			[]string{"Commissioning Test"},
		},
		{
			"no match",
			"- tarik kabel 300m",
			nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MatchKeywordTasks(tc.activity, rules)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("got %v, want %v", got, tc.want)
					break
				}
			}
		})
	}
}

// The ratio recompute must never lower a task that already reached 100, so a
// keyword-forced completion survives later usage-driven syncs.
func TestShouldWriteProgress(t *testing.T) {
	tests := []struct {
		name       string
		stored     int
		recomputed int
		want       bool
	}{
		{"normal advance", 40, 60, true},
		{"redundant write skipped", 40, 40, false},
		{"completed stays completed", 100, 20, false},
		{"completed to completed skipped", 100, 100, false},
		{"ratio can complete a task", 90, 100, true},
		{"incomplete task may regress", 60, 40, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldWriteProgress(tc.stored, tc.recomputed); got != tc.want {
				t.Errorf("shouldWriteProgress(%d, %d) = %v, want %v", tc.stored, tc.recomputed, got, tc.want)
			}
		})
	}
}
