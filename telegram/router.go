package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nusafiber/fieldops_backend/config"
	"github.com/nusafiber/fieldops_backend/models"
	"github.com/nusafiber/fieldops_backend/utils"
	"github.com/nusafiber/fieldops_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Router dispatches inbound webhook updates. It is stateless per delivery:
// the ACL is re-queried on every update and nothing is cached in process.
type Router struct {
	db     *gorm.DB
	logger *logrus.Logger
	client *Client
}

func NewRouter(db *gorm.DB, logger *logrus.Logger, client *Client) *Router {
	return &Router{db: db, logger: logger, client: client}
}

// HandleUpdate processes one webhook delivery. Business failures are reported
// to the user and logged; they never propagate to the HTTP layer, which must
// ack regardless.
func (r *Router) HandleUpdate(ctx context.Context, update *Update) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		r.handleMessage(ctx, update.Message)
	}
}

// notify is fire-and-forget: a failed send is logged and dropped. Sends always
// happen after the state change they describe.
func (r *Router) notify(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) {
	if err := r.client.SendMessage(ctx, chatID, text, keyboard); err != nil {
		config.LogError(r.logger, "router.go", "notify", "SendMessage", chatID, err)
	}
}

func (r *Router) edit(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) {
	if err := r.client.EditMessageText(ctx, chatID, messageID, text, keyboard); err != nil {
		config.LogError(r.logger, "router.go", "edit", "EditMessageText", chatID, err)
	}
}

func (r *Router) answer(ctx context.Context, callbackID, text string) {
	if err := r.client.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		config.LogError(r.logger, "router.go", "answer", "AnswerCallbackQuery", callbackID, err)
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" || !strings.HasPrefix(text, "/") {
		return
	}

	gate, err := models.GetAccessGate(r.db, msg.From.ID)
	if err != nil {
		config.LogError(r.logger, "router.go", "handleMessage", "GetAccessGate", msg.From.ID, err)
		r.notify(ctx, msg.Chat.ID, msgSystemError, nil)
		return
	}

	command, rest := splitCommand(text)

	if command == "/start" {
		r.handleStart(ctx, msg, gate)
		return
	}
	if !gate.IsActive {
		r.notify(ctx, msg.Chat.ID, msgNotActive, RequestAccessKeyboard(msg.From.ID))
		return
	}

	switch command {
	case "/project":
		r.handleProject(ctx, msg, gate)
	case "/status":
		r.handleStatus(ctx, msg, gate, rest)
	case "/material":
		r.handleMaterial(ctx, msg, gate, rest)
	case "/lapor":
		r.handleLapor(ctx, msg, gate, rest)
	case "/exp":
		r.handleExpense(ctx, msg, gate, rest)
	case "/billing":
		r.handleBilling(ctx, msg, gate)
	case "/manage":
		r.handleManage(ctx, msg, gate, rest)
	default:
		r.notify(ctx, msg.Chat.ID, "Unknown command. Try /project, /status, /material or /lapor.", nil)
	}
}

// splitCommand separates the command word from its (possibly multi-line)
// argument text. Commands are case-sensitive by prefix.
func splitCommand(text string) (command, rest string) {
	idx := strings.IndexAny(text, " \n")
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx+1:])
}

func (r *Router) handleStart(ctx context.Context, msg *Message, gate *models.AccessGate) {
	if !gate.IsActive {
		if _, err := models.RegisterUser(r.db, msg.From.ID, msg.From.FirstName, msg.From.LastName); err != nil {
			config.LogError(r.logger, "router.go", "handleStart", "RegisterUser", msg.From.ID, err)
			r.notify(ctx, msg.Chat.ID, msgSystemError, nil)
			return
		}
		r.notify(ctx, msg.Chat.ID,
			"Welcome! Your account is not active yet. Request access and wait for an admin to approve you.",
			RequestAccessKeyboard(msg.From.ID))
		return
	}
	r.notify(ctx, msg.Chat.ID, strings.Join([]string{
		"Commands:",
		"/project — list your projects",
		"/status <name|all> — workstream progress",
		"/material <name> — material adequacy",
		"/lapor — submit a daily report",
	}, "\n"), nil)
}

func (r *Router) handleProject(ctx context.Context, msg *Message, gate *models.AccessGate) {
	projects, err := r.accessibleProjects(gate)
	if err != nil {
		config.LogError(r.logger, "router.go", "handleProject", "accessibleProjects", gate.TelegramID, err)
		r.notify(ctx, msg.Chat.ID, msgSystemError, nil)
		return
	}
	if len(projects) == 0 {
		r.notify(ctx, msg.Chat.ID, "No projects assigned to you yet.", nil)
		return
	}
	var b strings.Builder
	b.WriteString("<b>Your projects</b>\n")
	for _, project := range projects {
		fmt.Fprintf(&b, "• %s\n", escapeHTML(project.Name))
	}
	r.notify(ctx, msg.Chat.ID, b.String(), nil)
}

func (r *Router) handleStatus(ctx context.Context, msg *Message, gate *models.AccessGate, arg string) {
	if strings.EqualFold(arg, "all") {
		projects, err := r.accessibleProjects(gate)
		if err != nil {
			config.LogError(r.logger, "router.go", "handleStatus", "accessibleProjects", gate.TelegramID, err)
			r.notify(ctx, msg.Chat.ID, msgSystemError, nil)
			return
		}
		if len(projects) == 0 {
			r.notify(ctx, msg.Chat.ID, "No projects assigned to you yet.", nil)
			return
		}
		for _, project := range projects {
			r.sendProjectStatus(ctx, msg.Chat.ID, project)
		}
		return
	}
	if arg == "" {
		r.notify(ctx, msg.Chat.ID, "Usage: /status <project name> or /status all", nil)
		return
	}
	project, err := r.findAccessibleProject(gate, arg)
	if err != nil {
		r.notifyProjectLookupError(ctx, msg.Chat.ID, arg, err)
		return
	}
	r.sendProjectStatus(ctx, msg.Chat.ID, project)
}

func (r *Router) sendProjectStatus(ctx context.Context, chatID int64, project *models.Project) {
	tasks, err := models.ListTasks(r.db, project.ID)
	if err != nil {
		config.LogError(r.logger, "router.go", "sendProjectStatus", "ListTasks", project.ID, err)
		r.notify(ctx, chatID, msgSystemError, nil)
		return
	}
	pending, err := models.CountPendingReports(r.db, project.ID)
	if err != nil {
		config.LogError(r.logger, "router.go", "sendProjectStatus", "CountPendingReports", project.ID, err)
		r.notify(ctx, chatID, msgSystemError, nil)
		return
	}
	latest, err := models.LatestReport(r.db, project.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			config.LogError(r.logger, "router.go", "sendProjectStatus", "LatestReport", project.ID, err)
		}
		latest = nil
	}
	r.notify(ctx, chatID, FormatProjectStatus(project, tasks, pending, latest), nil)
}

func (r *Router) handleMaterial(ctx context.Context, msg *Message, gate *models.AccessGate, arg string) {
	if arg == "" {
		r.notify(ctx, msg.Chat.ID, "Usage: /material <project name>", nil)
		return
	}
	project, err := r.findAccessibleProject(gate, arg)
	if err != nil {
		r.notifyProjectLookupError(ctx, msg.Chat.ID, arg, err)
		return
	}
	names, err := models.ListDistributionNames(r.db, project.ID)
	if err != nil {
		config.LogError(r.logger, "router.go", "handleMaterial", "ListDistributionNames", project.ID, err)
		r.notify(ctx, msg.Chat.ID, msgSystemError, nil)
		return
	}
	if len(names) == 0 {
		r.sendMaterialSummary(ctx, msg.Chat.ID, 0, project, "")
		return
	}
	r.notify(ctx, msg.Chat.ID,
		fmt.Sprintf("<b>%s</b>\nChoose a distribution:", escapeHTML(project.Name)),
		DistributionKeyboard(project.ID, names))
}

// sendMaterialSummary sends (messageID == 0) or edits in place the adequacy
// view for one scope.
func (r *Router) sendMaterialSummary(ctx context.Context, chatID, messageID int64, project *models.Project, distribution string) {
	rows, err := models.Summary(r.db, project.ID, distribution)
	if err != nil {
		config.LogError(r.logger, "router.go", "sendMaterialSummary", "Summary", project.ID, err)
		r.notify(ctx, chatID, msgSystemError, nil)
		return
	}
	text := FormatMaterialSummary(project.Name, distribution, rows)
	if messageID == 0 {
		r.notify(ctx, chatID, text, nil)
		return
	}
	names, err := models.ListDistributionNames(r.db, project.ID)
	if err != nil {
		names = nil
	}
	r.edit(ctx, chatID, messageID, text, DistributionKeyboard(project.ID, names))
}

func (r *Router) handleLapor(ctx context.Context, msg *Message, gate *models.AccessGate, rest string) {
	if rest == "" {
		projects, err := r.accessibleProjects(gate)
		if err != nil || len(projects) == 0 {
			r.notify(ctx, msg.Chat.ID, "No projects assigned to you yet.", nil)
			return
		}
		r.notify(ctx, msg.Chat.ID, "Which project are you reporting for?", ProjectChooserKeyboard(projects))
		return
	}
	if !strings.Contains(rest, "\n") {
		project, err := r.findAccessibleProject(gate, rest)
		if err != nil {
			r.notifyProjectLookupError(ctx, msg.Chat.ID, rest, err)
			return
		}
		r.notify(ctx, msg.Chat.ID, FormatReportTemplate(project.Name), nil)
		return
	}
	r.submitReport(ctx, msg, gate, rest)
}

func (r *Router) submitReport(ctx context.Context, msg *Message, gate *models.AccessGate, body string) {
	parsed, err := ParseDailyReport(body)
	if err != nil {
		if errors.Is(err, ErrNoSiteName) {
			r.notify(ctx, msg.Chat.ID, "I couldn't find a \"Site Name :\" line. Use /lapor <project> to get the template.", nil)
			return
		}
		config.LogError(r.logger, "router.go", "submitReport", "ParseDailyReport", nil, err)
		r.notify(ctx, msg.Chat.ID, msgSystemError, nil)
		return
	}

	project, err := r.findAccessibleProject(gate, parsed.SiteName)
	if err != nil {
		r.notifyProjectLookupError(ctx, msg.Chat.ID, parsed.SiteName, err)
		return
	}

	report := &models.DailyReport{
		ProjectID:     project.ID,
		ManpowerCount: parsed.ManpowerCount,
		ExecutorName:  parsed.ExecutorName,
		WaspangName:   parsed.WaspangName,
		TodayActivity: parsed.TodayActivity,
		TomorrowPlan:  parsed.TomorrowPlan,
		RawMessage:    body,
		ReportDate:    time.Now(),
	}
	if parsed.Distribution != "" {
		// Normalized the same way ledger and requirement keys are, so
		// approval-time OUT rows land in the matching scope.
		dist := utils.NormalizeDistribution(parsed.Distribution)
		report.DistributionName = &dist
	}

	items := make([]*models.DailyReportItem, 0, len(parsed.Items))
	for _, parsedItem := range parsed.Items {
		item := &models.DailyReportItem{
			MaterialName:  parsedItem.Name,
			QuantityScope: parsedItem.QuantityScope,
			QuantityTotal: parsedItem.QuantityTotal,
			QuantityToday: parsedItem.QuantityToday,
			Category:      parsedItem.Category,
		}
		material, findErr := models.FindMaterialByName(r.db, parsedItem.Name)
		if findErr == nil {
			materialID := material.ID
			item.MaterialID = &materialID
		} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			config.LogError(r.logger, "router.go", "submitReport", "FindMaterialByName", parsedItem.Name, findErr)
			r.notify(ctx, msg.Chat.ID, msgSystemError, nil)
			return
		}
		items = append(items, item)
	}

	if err := models.CreateDailyReport(r.db, report, items); err != nil {
		config.LogError(r.logger, "router.go", "submitReport", "CreateDailyReport", project.ID, err)
		r.notify(ctx, msg.Chat.ID, msgSystemError, nil)
		return
	}
	report.Items = items

	r.notify(ctx, msg.Chat.ID, fmt.Sprintf("Report #%d received for %s. Waiting for admin approval.", report.ID, project.Name), nil)

	admins, err := models.ListAdmins(r.db)
	if err != nil {
		config.LogError(r.logger, "router.go", "submitReport", "ListAdmins", nil, err)
		return
	}
	card := FormatReportReview(report, project.Name)
	for _, admin := range admins {
		r.notify(ctx, admin.TelegramID, card, ReviewKeyboard(report.ID))
	}
}

func (r *Router) handleExpense(ctx context.Context, msg *Message, gate *models.AccessGate, rest string) {
	if !gate.IsAdmin {
		r.notify(ctx, msg.Chat.ID, msgNotAdmin, nil)
		return
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		r.notify(ctx, msg.Chat.ID, "Usage: /exp [project] <amount> [description]", nil)
		return
	}

	var projectID *int
	amountIdx := 0
	if _, err := decimal.NewFromString(fields[0]); err != nil {
		project, lookupErr := r.findAccessibleProject(gate, fields[0])
		if lookupErr != nil {
			r.notifyProjectLookupError(ctx, msg.Chat.ID, fields[0], lookupErr)
			return
		}
		projectID = &project.ID
		amountIdx = 1
	}
	if amountIdx >= len(fields) {
		r.notify(ctx, msg.Chat.ID, "Usage: /exp [project] <amount> [description]", nil)
		return
	}
	amount, err := decimal.NewFromString(fields[amountIdx])
	if err != nil || !amount.IsPositive() {
		r.notify(ctx, msg.Chat.ID, "Amount must be a positive number.", nil)
		return
	}

	expense := &models.OperationalExpense{
		ProjectID:   projectID,
		Amount:      amount,
		Description: strings.Join(fields[amountIdx+1:], " "),
		CreatedBy:   msg.From.ID,
	}
	if err := models.CreateExpense(r.db, expense); err != nil {
		config.LogError(r.logger, "router.go", "handleExpense", "CreateExpense", nil, err)
		r.notify(ctx, msg.Chat.ID, msgSystemError, nil)
		return
	}
	r.notify(ctx, msg.Chat.ID, fmt.Sprintf("Expense #%d recorded: %s", expense.ID, amount.String()), nil)
}

func (r *Router) handleBilling(ctx context.Context, msg *Message, gate *models.AccessGate) {
	if !gate.IsAdmin {
		r.notify(ctx, msg.Chat.ID, msgNotAdmin, nil)
		return
	}
	rows, err := models.ExpenseRecap(r.db)
	if err != nil {
		config.LogError(r.logger, "router.go", "handleBilling", "ExpenseRecap", nil, err)
		r.notify(ctx, msg.Chat.ID, msgSystemError, nil)
		return
	}
	if len(rows) == 0 {
		r.notify(ctx, msg.Chat.ID, "No expenses recorded.", nil)
		return
	}
	var b strings.Builder
	b.WriteString("<b>Expense recap</b>\n")
	for _, row := range rows {
		name := row.ProjectName
		if name == "" {
			name = "(unassigned)"
		}
		fmt.Fprintf(&b, "• %s: %s (%d entries)\n", escapeHTML(name), row.Total.String(), row.Count)
	}
	r.notify(ctx, msg.Chat.ID, b.String(), nil)
}

func (r *Router) handleManage(ctx context.Context, msg *Message, gate *models.AccessGate, rest string) {
	if !gate.IsAdmin {
		r.notify(ctx, msg.Chat.ID, msgNotAdmin, nil)
		return
	}
	targetID, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
	if err != nil {
		r.notify(ctx, msg.Chat.ID, "Usage: /manage <telegram-id>", nil)
		return
	}
	user, err := models.GetAuthorizedUser(r.db, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.notify(ctx, msg.Chat.ID, "That user has never contacted the bot.", nil)
			return
		}
		config.LogError(r.logger, "router.go", "handleManage", "GetAuthorizedUser", targetID, err)
		r.notify(ctx, msg.Chat.ID, msgSystemError, nil)
		return
	}
	r.sendManageView(ctx, msg.Chat.ID, 0, user)
}

func (r *Router) sendManageView(ctx context.Context, chatID, messageID int64, user *models.AuthorizedUser) {
	projects, err := models.ListActiveProjects(r.db)
	if err != nil {
		config.LogError(r.logger, "router.go", "sendManageView", "ListActiveProjects", nil, err)
		r.notify(ctx, chatID, msgSystemError, nil)
		return
	}
	var grants []models.UserProjectGrant
	if err := r.db.Where("telegram_id = ?", user.TelegramID).Find(&grants).Error; err != nil {
		config.LogError(r.logger, "router.go", "sendManageView", "grants", user.TelegramID, err)
		r.notify(ctx, chatID, msgSystemError, nil)
		return
	}
	granted := map[int]bool{}
	for _, grant := range grants {
		granted[grant.ProjectID] = true
	}
	text := fmt.Sprintf("Managing <b>%s %s</b> (%d)\nToggle project access:",
		escapeHTML(user.FirstName), escapeHTML(user.LastName), user.TelegramID)
	keyboard := ManageKeyboard(user.TelegramID, projects, granted)
	if messageID == 0 {
		r.notify(ctx, chatID, text, keyboard)
	} else {
		r.edit(ctx, chatID, messageID, text, keyboard)
	}
}

// accessibleProjects loads the full project rows for a gate's id set.
func (r *Router) accessibleProjects(gate *models.AccessGate) ([]*models.Project, error) {
	if gate.IsAdmin {
		return models.ListActiveProjects(r.db)
	}
	if len(gate.ProjectIDs) == 0 {
		return nil, nil
	}
	var projects []*models.Project
	err := r.db.Where("id IN ? AND is_active = ?", gate.ProjectIDs, true).Order("name ASC").Find(&projects).Error
	return projects, err
}

// findAccessibleProject resolves a fuzzy name and intersects with the gate.
func (r *Router) findAccessibleProject(gate *models.AccessGate, name string) (*models.Project, error) {
	matches, err := models.FindProjectsByName(r.db, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	return selectAccessibleProject(gate, matches)
}

// selectAccessibleProject picks the first name match the gate may act on.
// "No such project" and "project exists but not yours" are distinct outcomes;
// a name match alone is never trusted.
func selectAccessibleProject(gate *models.AccessGate, matches []*models.Project) (*models.Project, error) {
	if len(matches) == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	for _, project := range matches {
		if gate.CanAccess(project.ID) {
			return project, nil
		}
	}
	return nil, utils.ErrorAccessDenied
}

func (r *Router) notifyProjectLookupError(ctx context.Context, chatID int64, name string, err error) {
	switch {
	case errors.Is(err, utils.ErrorAccessDenied):
		r.notify(ctx, chatID, msgAccessDenied, nil)
	case errors.Is(err, utils.ErrorRecordNotFound):
		r.notify(ctx, chatID, fmt.Sprintf("No project matches %q.", name), nil)
	default:
		config.LogError(r.logger, "router.go", "notifyProjectLookupError", "lookup", name, err)
		r.notify(ctx, chatID, msgSystemError, nil)
	}
}

func (r *Router) handleCallback(ctx context.Context, cb *CallbackQuery) {
	data, err := ParseCallbackData(cb.Data)
	if err != nil {
		config.LogError(r.logger, "router.go", "handleCallback", "ParseCallbackData", cb.Data, err)
		r.answer(ctx, cb.ID, "")
		return
	}

	gate, err := models.GetAccessGate(r.db, cb.From.ID)
	if err != nil {
		config.LogError(r.logger, "router.go", "handleCallback", "GetAccessGate", cb.From.ID, err)
		r.answer(ctx, cb.ID, msgSystemError)
		return
	}

	var chatID, messageID int64
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
		messageID = cb.Message.MessageID
	}

	switch data.Action {
	case ActionApproveReport:
		r.callbackApprove(ctx, cb, gate, data, chatID, messageID)
	case ActionRejectReport:
		r.callbackReject(ctx, cb, gate, data, chatID, messageID)
	case ActionSelectMilestone:
		r.callbackMilestone(ctx, cb, gate, data, chatID, messageID)
	case ActionCloseMilestones:
		r.callbackCloseMilestones(ctx, cb, gate, chatID, messageID)
	case ActionApproveUser:
		r.callbackApproveUser(ctx, cb, gate, data)
	case ActionToggleGrant:
		r.callbackToggleGrant(ctx, cb, gate, data, chatID, messageID)
	case ActionFinishManage:
		r.callbackFinishManage(ctx, cb, gate, chatID, messageID)
	case ActionDistribution:
		r.callbackDistribution(ctx, cb, gate, data, chatID, messageID)
	case ActionRequestAccess:
		r.callbackRequestAccess(ctx, cb, data)
	case ActionReportTemplate:
		r.callbackReportTemplate(ctx, cb, gate, data, chatID)
	}
}

func (r *Router) callbackApprove(ctx context.Context, cb *CallbackQuery, gate *models.AccessGate, data CallbackData, chatID, messageID int64) {
	if !gate.IsAdmin {
		r.answer(ctx, cb.ID, msgNotAdmin)
		return
	}
	report, applied, err := workflow.ApproveReport(r.db, r.logger, data.ReportID)
	if err != nil {
		config.LogError(r.logger, "router.go", "callbackApprove", "ApproveReport", data.ReportID, err)
		r.answer(ctx, cb.ID, msgSystemError)
		return
	}
	if !applied {
		r.answer(ctx, cb.ID, msgAlreadyProcessed)
		return
	}
	r.answer(ctx, cb.ID, "Report approved")

	tasks, err := models.ListIncompleteTasks(r.db, report.ProjectID)
	if err != nil {
		config.LogError(r.logger, "router.go", "callbackApprove", "ListIncompleteTasks", report.ProjectID, err)
		return
	}
	text := fmt.Sprintf("Report #%d approved ✅\n\nMark any milestones completed today:", report.ID)
	r.edit(ctx, chatID, messageID, text, MilestoneKeyboard(report.ProjectID, report.ID, tasks))
}

func (r *Router) callbackReject(ctx context.Context, cb *CallbackQuery, gate *models.AccessGate, data CallbackData, chatID, messageID int64) {
	if !gate.IsAdmin {
		r.answer(ctx, cb.ID, msgNotAdmin)
		return
	}
	applied, err := workflow.RejectReport(r.db, r.logger, data.ReportID)
	if err != nil {
		r.answer(ctx, cb.ID, msgSystemError)
		return
	}
	if !applied {
		r.answer(ctx, cb.ID, msgAlreadyProcessed)
		return
	}
	r.answer(ctx, cb.ID, "Report rejected")
	r.edit(ctx, chatID, messageID, fmt.Sprintf("Report #%d rejected ❌", data.ReportID), nil)
}

func (r *Router) callbackMilestone(ctx context.Context, cb *CallbackQuery, gate *models.AccessGate, data CallbackData, chatID, messageID int64) {
	if !gate.IsAdmin {
		r.answer(ctx, cb.ID, msgNotAdmin)
		return
	}
	if err := workflow.CompleteMilestone(r.db, r.logger, data.ProjectID, data.TaskID); err != nil {
		config.LogError(r.logger, "router.go", "callbackMilestone", "CompleteMilestone", data.TaskID, err)
		r.answer(ctx, cb.ID, msgSystemError)
		return
	}
	r.answer(ctx, cb.ID, "Milestone completed")

	tasks, err := models.ListIncompleteTasks(r.db, data.ProjectID)
	if err != nil {
		config.LogError(r.logger, "router.go", "callbackMilestone", "ListIncompleteTasks", data.ProjectID, err)
		return
	}
	text := fmt.Sprintf("Report #%d approved ✅\n\nMark any milestones completed today:", data.ReportID)
	if len(tasks) == 0 {
		r.edit(ctx, chatID, messageID, fmt.Sprintf("Report #%d approved ✅\nAll milestones completed. 🎉", data.ReportID), nil)
		return
	}
	r.edit(ctx, chatID, messageID, text, MilestoneKeyboard(data.ProjectID, data.ReportID, tasks))
}

func (r *Router) callbackCloseMilestones(ctx context.Context, cb *CallbackQuery, gate *models.AccessGate, chatID, messageID int64) {
	if !gate.IsAdmin {
		r.answer(ctx, cb.ID, msgNotAdmin)
		return
	}
	r.answer(ctx, cb.ID, "Done")
	r.edit(ctx, chatID, messageID, "Milestone selection closed.", nil)
}

func (r *Router) callbackApproveUser(ctx context.Context, cb *CallbackQuery, gate *models.AccessGate, data CallbackData) {
	if !gate.IsAdmin {
		r.answer(ctx, cb.ID, msgNotAdmin)
		return
	}
	if err := models.ActivateUser(r.db, data.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.answer(ctx, cb.ID, "Unknown user.")
			return
		}
		r.answer(ctx, cb.ID, msgSystemError)
		return
	}
	r.answer(ctx, cb.ID, "User activated")
	r.notify(ctx, data.UserID, "Your access was approved. Send /start to begin.", nil)
}

func (r *Router) callbackToggleGrant(ctx context.Context, cb *CallbackQuery, gate *models.AccessGate, data CallbackData, chatID, messageID int64) {
	if !gate.IsAdmin {
		r.answer(ctx, cb.ID, msgNotAdmin)
		return
	}
	added, err := models.ToggleGrant(r.db, data.UserID, data.ProjectID)
	if err != nil {
		config.LogError(r.logger, "router.go", "callbackToggleGrant", "ToggleGrant", data.UserID, err)
		r.answer(ctx, cb.ID, msgSystemError)
		return
	}
	if added {
		r.answer(ctx, cb.ID, "Access granted")
	} else {
		r.answer(ctx, cb.ID, "Access revoked")
	}
	user, err := models.GetAuthorizedUser(r.db, data.UserID)
	if err != nil {
		return
	}
	r.sendManageView(ctx, chatID, messageID, user)
}

func (r *Router) callbackFinishManage(ctx context.Context, cb *CallbackQuery, gate *models.AccessGate, chatID, messageID int64) {
	if !gate.IsAdmin {
		r.answer(ctx, cb.ID, msgNotAdmin)
		return
	}
	r.answer(ctx, cb.ID, "Done")
	r.edit(ctx, chatID, messageID, "Access changes saved.", nil)
}

func (r *Router) callbackDistribution(ctx context.Context, cb *CallbackQuery, gate *models.AccessGate, data CallbackData, chatID, messageID int64) {
	if !gate.IsActive {
		r.answer(ctx, cb.ID, msgNotActive)
		return
	}
	if !gate.CanAccess(data.ProjectID) {
		r.answer(ctx, cb.ID, msgAccessDenied)
		return
	}
	project, err := models.GetProject(r.db, data.ProjectID)
	if err != nil {
		r.answer(ctx, cb.ID, msgSystemError)
		return
	}
	r.answer(ctx, cb.ID, "")
	r.sendMaterialSummary(ctx, chatID, messageID, project, data.Distribution)
}

func (r *Router) callbackRequestAccess(ctx context.Context, cb *CallbackQuery, data CallbackData) {
	if cb.From.ID != data.UserID {
		r.answer(ctx, cb.ID, "")
		return
	}
	user, err := models.RegisterUser(r.db, cb.From.ID, cb.From.FirstName, cb.From.LastName)
	if err != nil {
		config.LogError(r.logger, "router.go", "callbackRequestAccess", "RegisterUser", cb.From.ID, err)
		r.answer(ctx, cb.ID, msgSystemError)
		return
	}
	r.answer(ctx, cb.ID, "Request sent. An admin will review it.")

	admins, err := models.ListAdmins(r.db)
	if err != nil {
		config.LogError(r.logger, "router.go", "callbackRequestAccess", "ListAdmins", nil, err)
		return
	}
	text := fmt.Sprintf("Access request from <b>%s %s</b> (%d)",
		escapeHTML(user.FirstName), escapeHTML(user.LastName), user.TelegramID)
	for _, admin := range admins {
		r.notify(ctx, admin.TelegramID, text, ApproveUserKeyboard(user.TelegramID))
	}
}

func (r *Router) callbackReportTemplate(ctx context.Context, cb *CallbackQuery, gate *models.AccessGate, data CallbackData, chatID int64) {
	if !gate.IsActive {
		r.answer(ctx, cb.ID, msgNotActive)
		return
	}
	if !gate.CanAccess(data.ProjectID) {
		r.answer(ctx, cb.ID, msgAccessDenied)
		return
	}
	project, err := models.GetProject(r.db, data.ProjectID)
	if err != nil {
		r.answer(ctx, cb.ID, msgSystemError)
		return
	}
	r.answer(ctx, cb.ID, "")
	r.notify(ctx, chatID, FormatReportTemplate(project.Name), nil)
}
