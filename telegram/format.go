package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nusafiber/fieldops_backend/models"
)

const (
	msgAccessDenied     = "You don't have access to this project."
	msgNotAdmin         = "Only admins can do that."
	msgNotActive        = "Your account is not activated yet. Ask an admin to approve your access."
	msgAlreadyProcessed = "This report has already been processed."
	msgSystemError      = "A system error occurred. Please try again later."
)

const distributionButtonsPerRow = 3

// chunkButtons lays buttons out in rows of at most perRow.
func chunkButtons(buttons []InlineKeyboardButton, perRow int) [][]InlineKeyboardButton {
	if perRow < 1 {
		perRow = 1
	}
	var rows [][]InlineKeyboardButton
	for len(buttons) > 0 {
		n := perRow
		if len(buttons) < n {
			n = len(buttons)
		}
		rows = append(rows, buttons[:n])
		buttons = buttons[n:]
	}
	return rows
}

// DistributionKeyboard offers the project total plus one button per known
// distribution, at most three per row.
func DistributionKeyboard(projectID int, names []string) *InlineKeyboardMarkup {
	buttons := []InlineKeyboardButton{{
		Text:         "Total",
		CallbackData: CallbackData{Action: ActionDistribution, ProjectID: projectID}.Encode(),
	}}
	for _, name := range names {
		buttons = append(buttons, InlineKeyboardButton{
			Text:         name,
			CallbackData: CallbackData{Action: ActionDistribution, ProjectID: projectID, Distribution: name}.Encode(),
		})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: chunkButtons(buttons, distributionButtonsPerRow)}
}

// ReviewKeyboard is attached to the report card sent to admins.
func ReviewKeyboard(reportID int) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "✅ Approve", CallbackData: CallbackData{Action: ActionApproveReport, ReportID: reportID}.Encode()},
		{Text: "❌ Reject", CallbackData: CallbackData{Action: ActionRejectReport, ReportID: reportID}.Encode()},
	}}}
}

// MilestoneKeyboard renders one button per incomplete task plus the terminal
// finish button. Redrawn in place after every selection.
func MilestoneKeyboard(projectID, reportID int, tasks []*models.WorkTask) *InlineKeyboardMarkup {
	var rows [][]InlineKeyboardButton
	for _, task := range tasks {
		rows = append(rows, []InlineKeyboardButton{{
			Text: fmt.Sprintf("%s (%d%%)", task.TaskName, task.Progress),
			CallbackData: CallbackData{
				Action:    ActionSelectMilestone,
				ProjectID: projectID,
				TaskID:    task.ID,
				ReportID:  reportID,
			}.Encode(),
		}})
	}
	rows = append(rows, []InlineKeyboardButton{{
		Text:         "✔ Finish",
		CallbackData: CallbackData{Action: ActionCloseMilestones, ReportID: reportID}.Encode(),
	}})
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

func ManageKeyboard(userID int64, projects []*models.Project, granted map[int]bool) *InlineKeyboardMarkup {
	var rows [][]InlineKeyboardButton
	for _, project := range projects {
		mark := "☐"
		if granted[project.ID] {
			mark = "☑"
		}
		rows = append(rows, []InlineKeyboardButton{{
			Text:         fmt.Sprintf("%s %s", mark, project.Name),
			CallbackData: CallbackData{Action: ActionToggleGrant, UserID: userID, ProjectID: project.ID}.Encode(),
		}})
	}
	rows = append(rows, []InlineKeyboardButton{{
		Text:         "Done",
		CallbackData: CallbackData{Action: ActionFinishManage, UserID: userID}.Encode(),
	}})
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

func RequestAccessKeyboard(userID int64) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "Request access", CallbackData: CallbackData{Action: ActionRequestAccess, UserID: userID}.Encode()},
	}}}
}

func ApproveUserKeyboard(userID int64) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "Approve user", CallbackData: CallbackData{Action: ActionApproveUser, UserID: userID}.Encode()},
	}}}
}

func ProjectChooserKeyboard(projects []*models.Project) *InlineKeyboardMarkup {
	var rows [][]InlineKeyboardButton
	for _, project := range projects {
		rows = append(rows, []InlineKeyboardButton{{
			Text:         project.Name,
			CallbackData: CallbackData{Action: ActionReportTemplate, ProjectID: project.ID}.Encode(),
		}})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

func FormatProjectStatus(project *models.Project, tasks []*models.WorkTask, pendingReports int64, latest *models.DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", escapeHTML(project.Name))
	if project.City != "" {
		fmt.Fprintf(&b, "City: %s\n", escapeHTML(project.City))
	}
	fmt.Fprintf(&b, "Pending reports: %d\n", pendingReports)
	if latest != nil {
		fmt.Fprintf(&b, "Last report: %s\n", latest.ReportDate.Format("2006-01-02"))
	}
	b.WriteString("\n")
	if len(tasks) == 0 {
		b.WriteString("No tasks defined.")
		return b.String()
	}
	var total int
	for _, task := range tasks {
		total += task.Progress
		fmt.Fprintf(&b, "%s %s — %d%%\n", statusIcon(task.Status()), escapeHTML(task.TaskName), task.Progress)
	}
	fmt.Fprintf(&b, "\nOverall: %d%%", total/len(tasks))
	return b.String()
}

func statusIcon(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusCompleted:
		return "🟢"
	case models.TaskStatusInProgress:
		return "🟡"
	default:
		return "⚪"
	}
}

func FormatMaterialSummary(projectName, distribution string, rows []*models.MaterialSummaryRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Material — %s</b>\n", escapeHTML(projectName))
	if distribution != "" {
		fmt.Fprintf(&b, "Distribution: %s\n", escapeHTML(distribution))
	}
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString("No material data recorded.")
		return b.String()
	}
	for _, row := range rows {
		name := row.MaterialName
		if name == "" {
			name = "(material #" + strconv.Itoa(row.MaterialID) + ")"
		}
		if row.IsVirtual {
			fmt.Fprintf(&b, "• %s: need %s %s (from network plan)\n",
				escapeHTML(name), row.QuantityNeeded.String(), escapeHTML(row.Unit))
			continue
		}
		fmt.Fprintf(&b, "• %s: in %s / out %s / need %s %s\n",
			escapeHTML(name), row.TotalIn.String(), row.TotalOut.String(),
			row.QuantityNeeded.String(), escapeHTML(row.Unit))
	}
	return b.String()
}

// FormatReportReview is the card an admin sees before approving.
func FormatReportReview(report *models.DailyReport, projectName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Daily report #%d</b>\n", report.ID)
	fmt.Fprintf(&b, "Project: %s\n", escapeHTML(projectName))
	if report.DistributionName != nil && *report.DistributionName != "" {
		fmt.Fprintf(&b, "Distribution: %s\n", escapeHTML(*report.DistributionName))
	}
	fmt.Fprintf(&b, "Man power: %d\n", report.ManpowerCount)
	if report.ExecutorName != "" {
		fmt.Fprintf(&b, "Executor: %s\n", escapeHTML(report.ExecutorName))
	}
	if report.WaspangName != "" {
		fmt.Fprintf(&b, "Waspang: %s\n", escapeHTML(report.WaspangName))
	}
	if len(report.Items) > 0 {
		b.WriteString("\n<b>SOW</b>\n")
		for _, item := range report.Items {
			resolved := ""
			if item.MaterialID == nil {
				resolved = " (unmatched)"
			}
			fmt.Fprintf(&b, "• %s: %s/%s/%s%s\n", escapeHTML(item.MaterialName),
				item.QuantityScope.String(), item.QuantityTotal.String(), item.QuantityToday.String(), resolved)
		}
	}
	if report.TodayActivity != "" {
		fmt.Fprintf(&b, "\n<b>Today</b>\n%s\n", escapeHTML(report.TodayActivity))
	}
	if report.TomorrowPlan != "" {
		fmt.Fprintf(&b, "\n<b>Tomorrow</b>\n%s\n", escapeHTML(report.TomorrowPlan))
	}
	return b.String()
}

func FormatReportTemplate(projectName string) string {
	return strings.Join([]string{
		"Copy, fill in and send with /lapor:",
		"",
		"Site Name : " + projectName,
		"Distribution : ",
		"Man Power : 0 orang",
		"Executor : ",
		"Waspang : ",
		"SOW :",
		"Kabel udara : 0/0/0",
		"Tiang : 0/0/0",
		"ODP : 0/0/0",
		"Today Activity",
		"- ",
		"Tomorrow Plan",
		"- ",
	}, "\n")
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
