package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DailyReport struct {
	ID               int                `gorm:"primary_key" json:"id"`
	ProjectID        int                `gorm:"index;not null" json:"project_id" binding:"required"`
	DistributionName *string            `gorm:"size:100" json:"distribution_name"`
	ManpowerCount    int                `gorm:"default:0" json:"manpower_count"`
	ExecutorName     string             `gorm:"size:255" json:"executor_name"`
	WaspangName      string             `gorm:"size:255" json:"waspang_name"`
	TodayActivity    string             `gorm:"type:text" json:"today_activity"`
	TomorrowPlan     string             `gorm:"type:text" json:"tomorrow_plan"`
	RawMessage       string             `gorm:"type:text" json:"raw_message"`
	Status           ReportStatus       `gorm:"type:enum('PENDING','APPROVED','REJECTED');default:'PENDING';index" json:"status"`
	ReportDate       time.Time          `gorm:"not null" json:"report_date"`
	Items            []*DailyReportItem `gorm:"foreignKey:ReportID" json:"items"`
	CreatedAt        time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

// DailyReportItem is immutable once created; the batch is written in the same
// tx as the parent report.
type DailyReportItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ReportID      int             `gorm:"index;not null" json:"report_id"`
	MaterialID    *int            `gorm:"index" json:"material_id"`
	MaterialName  string          `gorm:"size:255;not null" json:"material_name"`
	QuantityScope decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_scope"`
	QuantityTotal decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_total"`
	QuantityToday decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_today"`
	Category      ItemCategory    `gorm:"type:enum('SOW','PERMIT');default:'SOW'" json:"category"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// CreateDailyReport persists a report and its item batch as one logical unit.
// A failure on any row rolls back everything; a report row must never exist
// without its items.
func CreateDailyReport(db *gorm.DB, report *DailyReport, items []*DailyReportItem) error {
	return db.Transaction(func(tx *gorm.DB) error {
		report.Status = ReportStatusPending
		if err := tx.Create(report).Error; err != nil {
			return err
		}
		for _, item := range items {
			item.ReportID = report.ID
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func GetDailyReport(db *gorm.DB, id int) (*DailyReport, error) {
	var report DailyReport
	if err := db.Preload("Items").First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// ResolveReportStatus attempts the single legal terminal transition. It is an
// atomic conditional update: the caller may run side effects only when the
// returned flag is true, which happens for exactly one caller even under
// concurrent duplicate clicks.
func ResolveReportStatus(tx *gorm.DB, reportID int, to ReportStatus) (bool, error) {
	if !to.IsTerminal() {
		return false, gorm.ErrInvalidValue
	}
	res := tx.Model(&DailyReport{}).
		Where("id = ? AND status = ?", reportID, ReportStatusPending).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func CountPendingReports(db *gorm.DB, projectID int) (int64, error) {
	var n int64
	err := db.Model(&DailyReport{}).
		Where("project_id = ? AND status = ?", projectID, ReportStatusPending).
		Count(&n).Error
	return n, err
}

func LatestReport(db *gorm.DB, projectID int) (*DailyReport, error) {
	var report DailyReport
	err := db.Where("project_id = ?", projectID).Order("report_date DESC, id DESC").First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}
