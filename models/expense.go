package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OperationalExpense backs the admin-only /exp and /billing commands.
type OperationalExpense struct {
	ID          int             `gorm:"primary_key" json:"id"`
	ProjectID   *int            `gorm:"index" json:"project_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Description string          `gorm:"size:255" json:"description"`
	CreatedBy   int64           `gorm:"index;not null" json:"created_by"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func CreateExpense(db *gorm.DB, expense *OperationalExpense) error {
	return db.Create(expense).Error
}

type ExpenseRecapRow struct {
	ProjectID   *int            `json:"project_id"`
	ProjectName string          `json:"project_name"`
	Total       decimal.Decimal `json:"total"`
	Count       int64           `json:"count"`
}

// ExpenseRecap groups recorded expenses per project; expenses with no project
// land in one unassigned bucket.
func ExpenseRecap(db *gorm.DB) ([]ExpenseRecapRow, error) {
	var rows []ExpenseRecapRow
	err := db.Model(&OperationalExpense{}).
		Select("operational_expenses.project_id AS project_id, COALESCE(projects.name, '') AS project_name, SUM(operational_expenses.amount) AS total, COUNT(*) AS count").
		Joins("LEFT JOIN projects ON projects.id = operational_expenses.project_id").
		Group("operational_expenses.project_id, projects.name").
		Order("project_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
