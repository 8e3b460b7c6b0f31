package telegram

import (
	"errors"
	"testing"

	"github.com/nusafiber/fieldops_backend/models"
	"github.com/shopspring/decimal"
)

const sampleReport = `Site Name :  Cluster Melati 2
Man Power : 12 orang
Executor : PT Maju
Waspang : Budi
SOW :
Kabel udara : 3000/1200/350
Tiang : 60/20/12
ODP : 24/8/abc
Perizinan : 1/1/1
garbage line without groups
Broken : 1/2
Today Activity
- tarik kabel distribusi
- pasang tiang
Tommorow Plan
- lanjut penarikan`

func TestParseDailyReport(t *testing.T) {
	report, err := ParseDailyReport(sampleReport)
	if err != nil {
		t.Fatalf("ParseDailyReport: %v", err)
	}

	if report.SiteName != "Cluster Melati 2" {
		t.Errorf("SiteName = %q, want trimmed %q", report.SiteName, "Cluster Melati 2")
	}
	if report.ManpowerCount != 12 {
		t.Errorf("ManpowerCount = %d, want 12", report.ManpowerCount)
	}
	if report.ExecutorName != "PT Maju" {
		t.Errorf("ExecutorName = %q", report.ExecutorName)
	}
	if report.WaspangName != "Budi" {
		t.Errorf("WaspangName = %q", report.WaspangName)
	}

	// "garbage line" has no colon and "Broken : 1/2" has two groups; both are
	// dropped, never errored.
	if len(report.Items) != 4 {
		t.Fatalf("got %d items, want 4: %+v", len(report.Items), report.Items)
	}

	kabel := report.Items[0]
	if kabel.Name != "Kabel udara" {
		t.Errorf("item 0 name = %q", kabel.Name)
	}
	if !kabel.QuantityScope.Equal(decimal.NewFromInt(3000)) ||
		!kabel.QuantityTotal.Equal(decimal.NewFromInt(1200)) ||
		!kabel.QuantityToday.Equal(decimal.NewFromInt(350)) {
		t.Errorf("kabel quantities = %s/%s/%s", kabel.QuantityScope, kabel.QuantityTotal, kabel.QuantityToday)
	}
	if kabel.Category != models.ItemCategorySow {
		t.Errorf("kabel category = %q", kabel.Category)
	}

	// Non-numeric group contributes zero.
	odp := report.Items[2]
	if !odp.QuantityToday.Equal(decimal.Zero) {
		t.Errorf("odp today = %s, want 0", odp.QuantityToday)
	}

	permit := report.Items[3]
	if permit.Category != models.ItemCategoryPermit {
		t.Errorf("perizinan category = %q, want PERMIT", permit.Category)
	}

	if report.TodayActivity != "- tarik kabel distribusi\n- pasang tiang" {
		t.Errorf("TodayActivity = %q", report.TodayActivity)
	}
	// "Tommorow Plan" misspelling is accepted as the section marker.
	if report.TomorrowPlan != "- lanjut penarikan" {
		t.Errorf("TomorrowPlan = %q", report.TomorrowPlan)
	}
}

func TestParseDailyReportNoSiteName(t *testing.T) {
	_, err := ParseDailyReport("Man Power : 5\nSOW :\nTiang : 1/1/1")
	if !errors.Is(err, ErrNoSiteName) {
		t.Fatalf("err = %v, want ErrNoSiteName", err)
	}
}

func TestParseDailyReportDistributionHeader(t *testing.T) {
	report, err := ParseDailyReport("Site Name : X\nDistribution :  zone a \nSOW :\nTiang : 1/1/1")
	if err != nil {
		t.Fatalf("ParseDailyReport: %v", err)
	}
	if report.Distribution != "zone a" {
		t.Errorf("Distribution = %q, want trimmed %q", report.Distribution, "zone a")
	}

	// The line is optional; reports without it stay unscoped.
	report, err = ParseDailyReport("Site Name : X")
	if err != nil {
		t.Fatalf("ParseDailyReport: %v", err)
	}
	if report.Distribution != "" {
		t.Errorf("Distribution = %q, want empty", report.Distribution)
	}
}

func TestParseDailyReportManpowerVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"with unit suffix", "Site Name : X\nMan Power : 8 orang", 8},
		{"joined spelling", "Site Name : X\nManpower : 3", 3},
		{"no number", "Site Name : X\nMan Power : banyak", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report, err := ParseDailyReport(tc.text)
			if err != nil {
				t.Fatalf("ParseDailyReport: %v", err)
			}
			if report.ManpowerCount != tc.want {
				t.Errorf("ManpowerCount = %d, want %d", report.ManpowerCount, tc.want)
			}
		})
	}
}

func TestSowMarkerDoesNotMatchItemNames(t *testing.T) {
	// A line starting with "sow" only opens the section when nothing but an
	// optional colon follows.
	if isSowMarker("Sowing machine : 1/1/1") {
		t.Error("item name with sow prefix must not open the section")
	}
	if !isSowMarker("SOW") || !isSowMarker("sow :") {
		t.Error("bare sow marker not recognized")
	}
}
