package workflow

import (
	"strings"

	"github.com/nusafiber/fieldops_backend/config"
	"github.com/nusafiber/fieldops_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TaskMaterialRule links a workstream task to the materials whose consumption
// drives its progress.
type TaskMaterialRule struct {
	TaskName      string
	MaterialNames []string
}

// KeywordRule forces a task to 100% when the report's activity text mentions
// one of its tokens. Independent of the ratio path; the ratio recompute never
// lowers a task that is already complete.
type KeywordRule struct {
	TaskName string
	Tokens   []string
}

func DefaultTaskMaterialRules() []TaskMaterialRule {
	return []TaskMaterialRule{
		{TaskName: "Penarikan Kabel", MaterialNames: []string{"Kabel udara", "Kabel duct"}},
		{TaskName: "Pemasangan Tiang", MaterialNames: []string{"Tiang"}},
		{TaskName: "Instalasi ODP", MaterialNames: []string{"ODP"}},
		{TaskName: "Instalasi ODC", MaterialNames: []string{"ODC"}},
	}
}

func DefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{TaskName: "Kick Off Meeting", Tokens: []string{"kick off", "kickoff", "kom"}},
		{TaskName: "Survey", Tokens: []string{"survey"}},
		{TaskName: "Perizinan", Tokens: []string{"perizinan selesai", "izin selesai", "permit done"}},
		{TaskName: "DRM", Tokens: []string{"drm", "design review"}},
		{TaskName: "As-Built Drawing", Tokens: []string{"as built", "as-built", "abd submit"}},
		{TaskName: "Commissioning Test", Tokens: []string{"commissioning", "comtest", "uji terima", "ut selesai"}},
	}
}

// ProgressFromUsage converts a material-usage ratio into a progress value.
// The second return is false when needed is not positive, meaning the ratio
// path has nothing to say and the stored progress stays untouched.
func ProgressFromUsage(needed, used decimal.Decimal) (int, bool) {
	if !needed.IsPositive() {
		return 0, false
	}
	ratio := used.Mul(decimal.NewFromInt(100)).Div(needed)
	progress := int(ratio.Round(0).IntPart())
	if progress > 100 {
		progress = 100
	}
	if progress < 0 {
		progress = 0
	}
	return progress, true
}

// MatchKeywordTasks returns the task names whose tokens occur in the activity
// text. Pure.
func MatchKeywordTasks(activity string, rules []KeywordRule) []string {
	lower := strings.ToLower(activity)
	var names []string
	for _, rule := range rules {
		for _, token := range rule.Tokens {
			if strings.Contains(lower, strings.ToLower(token)) {
				names = append(names, rule.TaskName)
				break
			}
		}
	}
	return names
}

// SyncProjectProgress recomputes ratio-driven task progress from the project
// material summary. Must be re-invoked after every ledger mutation that could
// change usage and after every milestone click. Writes only when the value
// actually changes, and never downgrades a task already at 100.
func SyncProjectProgress(db *gorm.DB, logger *logrus.Logger, projectID int) error {
	tasks, err := models.ListTasks(db, projectID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	rows, err := models.Summary(db, projectID, "")
	if err != nil {
		return err
	}
	rowsByName := map[string]*models.MaterialSummaryRow{}
	for _, row := range rows {
		rowsByName[strings.ToLower(row.MaterialName)] = row
	}
	tasksByName := map[string]*models.WorkTask{}
	for _, task := range tasks {
		tasksByName[task.TaskName] = task
	}

	for _, rule := range DefaultTaskMaterialRules() {
		task, ok := tasksByName[rule.TaskName]
		if !ok {
			continue
		}
		needed := decimal.Zero
		used := decimal.Zero
		for _, materialName := range rule.MaterialNames {
			if row, ok := rowsByName[strings.ToLower(materialName)]; ok {
				needed = needed.Add(row.QuantityNeeded)
				used = used.Add(row.TotalOut)
			}
		}
		progress, ok := ProgressFromUsage(needed, used)
		if !ok {
			continue
		}
		if !shouldWriteProgress(task.Progress, progress) {
			continue
		}
		if err := models.SetTaskProgress(db, task.ID, progress); err != nil {
			config.LogError(logger, "progressSync.go", "SyncProjectProgress", "SetTaskProgress", task.ID, err)
			return err
		}
	}
	return nil
}

// shouldWriteProgress decides whether a ratio recompute may replace the stored
// value. A task at 100 stays at 100: keyword-forced or manually completed
// tasks must not be silently reopened by the ratio path. Redundant writes are
// skipped.
func shouldWriteProgress(stored, recomputed int) bool {
	if stored == 100 && recomputed < 100 {
		return false
	}
	return recomputed != stored
}

// ApplyKeywordCompletions forces keyword-matched tasks to 100%.
func ApplyKeywordCompletions(db *gorm.DB, logger *logrus.Logger, projectID int, activityText string) error {
	names := MatchKeywordTasks(activityText, DefaultKeywordRules())
	if len(names) == 0 {
		return nil
	}
	tasks, err := models.ListTasks(db, projectID)
	if err != nil {
		return err
	}
	tasksByName := map[string]*models.WorkTask{}
	for _, task := range tasks {
		tasksByName[task.TaskName] = task
	}
	for _, name := range names {
		task, ok := tasksByName[name]
		if !ok || task.Progress >= 100 {
			continue
		}
		if err := models.SetTaskProgress(db, task.ID, 100); err != nil {
			config.LogError(logger, "progressSync.go", "ApplyKeywordCompletions", "SetTaskProgress", task.ID, err)
			return err
		}
	}
	return nil
}

// CompleteMilestone marks one task done from the approval sub-flow, then
// recomputes the ratio-driven tasks.
func CompleteMilestone(db *gorm.DB, logger *logrus.Logger, projectID, taskID int) error {
	var task models.WorkTask
	if err := db.Where("id = ? AND project_id = ?", taskID, projectID).First(&task).Error; err != nil {
		return err
	}
	if task.Progress < 100 {
		if err := models.SetTaskProgress(db, task.ID, 100); err != nil {
			return err
		}
	}
	return SyncProjectProgress(db, logger, projectID)
}
