package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/nusafiber/fieldops_backend/config"
	"github.com/nusafiber/fieldops_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ApproveReport performs the single PENDING -> APPROVED transition and its
// ledger side effects. The transition is an atomic conditional update; two
// near-simultaneous clicks race on the same row and exactly one proceeds.
// Returns applied=false (and no error) when the report was already resolved.
//
// The redis lock is a best-effort optimization to keep duplicate clicks from
// even opening a transaction. Correctness must not depend on redis; the
// conditional UPDATE is the real guard.
func ApproveReport(db *gorm.DB, logger *logrus.Logger, reportID int) (report *models.DailyReport, applied bool, err error) {
	if locker := config.GetRedisLock(); locker != nil {
		lockKey := fmt.Sprintf("approve-report:%d", reportID)
		lock, lockErr := locker.Obtain(context.Background(), lockKey, 10*time.Second, nil)
		if lockErr == nil {
			defer lock.Release(context.Background())
		} else if lockErr != redislock.ErrNotObtained {
			config.LogError(logger, "approvalWorkflow.go", "ApproveReport", "redislock.Obtain", lockKey, lockErr)
		}
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, false, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	applied, err = models.ResolveReportStatus(tx, reportID, models.ReportStatusApproved)
	if err != nil {
		tx.Rollback()
		return nil, false, err
	}
	if !applied {
		tx.Rollback()
		report, err = models.GetDailyReport(db, reportID)
		return report, false, err
	}

	report, err = models.GetDailyReport(tx, reportID)
	if err != nil {
		tx.Rollback()
		return nil, false, err
	}

	distribution := ""
	if report.DistributionName != nil {
		distribution = *report.DistributionName
	}
	for _, item := range report.Items {
		if item.Category != models.ItemCategorySow || item.MaterialID == nil || !item.QuantityToday.IsPositive() {
			continue
		}
		projectID := report.ProjectID
		out := models.MaterialTransaction{
			MaterialID:       *item.MaterialID,
			ProjectID:        &projectID,
			TransactionType:  models.TransactionTypeOut,
			Quantity:         item.QuantityToday,
			DistributionName: distribution,
			Notes:            fmt.Sprintf("daily report #%d (%s)", report.ID, item.MaterialName),
		}
		if err := models.AppendTransaction(tx, &out); err != nil {
			tx.Rollback()
			return nil, false, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, false, err
	}

	// Post-commit: recompute progress from the new usage and from activity
	// keywords. A failure here is logged, not propagated; the approval itself
	// already happened.
	if err := SyncProjectProgress(db, logger, report.ProjectID); err != nil {
		config.LogError(logger, "approvalWorkflow.go", "ApproveReport", "SyncProjectProgress", report.ProjectID, err)
	}
	if err := ApplyKeywordCompletions(db, logger, report.ProjectID, report.TodayActivity); err != nil {
		config.LogError(logger, "approvalWorkflow.go", "ApproveReport", "ApplyKeywordCompletions", report.ProjectID, err)
	}

	return report, true, nil
}

// RejectReport performs PENDING -> REJECTED with no ledger or progress side
// effects. Same conditional-update idempotency as approval.
func RejectReport(db *gorm.DB, logger *logrus.Logger, reportID int) (applied bool, err error) {
	applied, err = models.ResolveReportStatus(db, reportID, models.ReportStatusRejected)
	if err != nil {
		config.LogError(logger, "approvalWorkflow.go", "RejectReport", "ResolveReportStatus", reportID, err)
		return false, err
	}
	return applied, nil
}
