package telegram

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/nusafiber/fieldops_backend/models"
	"github.com/shopspring/decimal"
)

// ErrNoSiteName marks a report text with no resolvable Site Name line. Such a
// report is a parse failure and must never be persisted.
var ErrNoSiteName = errors.New("report has no site name")

type ParsedReport struct {
	SiteName      string
	Distribution  string
	ManpowerCount int
	ExecutorName  string
	WaspangName   string
	TodayActivity string
	TomorrowPlan  string
	Items         []ParsedItem
}

type ParsedItem struct {
	Name          string
	QuantityScope decimal.Decimal
	QuantityTotal decimal.Decimal
	QuantityToday decimal.Decimal
	Category      models.ItemCategory
}

type reportSection int

const (
	sectionHeader reportSection = iota
	sectionSow
	sectionActivity
	sectionPlan
)

var firstIntPattern = regexp.MustCompile(`\d+`)

// ParseDailyReport converts raw free text into a report draft plus item lines.
// Pure and total: malformed lines are skipped, never errored; the only failure
// is a missing site name.
func ParseDailyReport(text string) (*ParsedReport, error) {
	report := &ParsedReport{}
	section := sectionHeader

	var activityLines, planLines []string

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		switch {
		case isSowMarker(line):
			section = sectionSow
			continue
		case isActivityMarker(line):
			section = sectionActivity
			continue
		case isPlanMarker(line):
			section = sectionPlan
			continue
		}

		switch section {
		case sectionHeader:
			parseHeaderLine(report, line)
		case sectionSow:
			if item, ok := parseSowLine(line); ok {
				report.Items = append(report.Items, item)
			}
		case sectionActivity:
			activityLines = append(activityLines, line)
		case sectionPlan:
			planLines = append(planLines, line)
		}
	}

	report.TodayActivity = strings.Join(activityLines, "\n")
	report.TomorrowPlan = strings.Join(planLines, "\n")

	if report.SiteName == "" {
		return nil, ErrNoSiteName
	}
	return report, nil
}

func isSowMarker(line string) bool {
	lower := strings.ToLower(line)
	if !strings.HasPrefix(lower, "sow") {
		return false
	}
	rest := strings.TrimSpace(lower[len("sow"):])
	return rest == "" || strings.HasPrefix(rest, ":")
}

func isActivityMarker(line string) bool {
	return strings.HasPrefix(strings.ToLower(line), "today activity")
}

func isPlanMarker(line string) bool {
	lower := strings.ToLower(line)
	// The field crews write both spellings; accept both.
	return strings.HasPrefix(lower, "tomorrow plan") || strings.HasPrefix(lower, "tommorow plan")
}

func parseHeaderLine(report *ParsedReport, line string) {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return
	}
	value = strings.TrimSpace(value)

	switch {
	case keyIs(key, "site name"):
		report.SiteName = value
	case keyIs(key, "distribution"):
		report.Distribution = value
	case keyIs(key, "man power"), keyIs(key, "manpower"):
		if m := firstIntPattern.FindString(value); m != "" {
			n, err := strconv.Atoi(m)
			if err == nil {
				report.ManpowerCount = n
			}
		}
	case keyIs(key, "executor"):
		report.ExecutorName = value
	case keyIs(key, "waspang"):
		report.WaspangName = value
	}
}

func keyIs(key, want string) bool {
	return strings.EqualFold(strings.TrimSpace(key), want)
}

// parseSowLine handles `Name : a/b/c`. The quantity group must split into
// exactly three slash-separated fields; a field that does not parse as a
// number contributes 0. Anything else is ignored, not errored.
func parseSowLine(line string) (ParsedItem, bool) {
	name, quantities, found := strings.Cut(line, ":")
	if !found {
		return ParsedItem{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ParsedItem{}, false
	}

	groups := strings.Split(quantities, "/")
	if len(groups) != 3 {
		return ParsedItem{}, false
	}

	item := ParsedItem{
		Name:          name,
		QuantityScope: numberOrZero(groups[0]),
		QuantityTotal: numberOrZero(groups[1]),
		QuantityToday: numberOrZero(groups[2]),
		Category:      models.ItemCategorySow,
	}
	if isPermitItem(name) {
		item.Category = models.ItemCategoryPermit
	}
	return item, true
}

func numberOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isPermitItem(name string) bool {
	lower := strings.ToLower(name)
	for _, token := range []string{"permit", "perizinan", "izin", "preliminary"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
