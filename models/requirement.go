package models

import (
	"time"

	"github.com/nusafiber/fieldops_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectMaterialRequirement is the planned quantity of a material for one
// project distribution. An empty distribution row is the unscoped entry.
// Aggregating every row for (project, material) yields the project total.
type ProjectMaterialRequirement struct {
	ID               int             `gorm:"primary_key" json:"id"`
	ProjectID        int             `gorm:"uniqueIndex:idx_req_scope;not null" json:"project_id" binding:"required"`
	MaterialID       int             `gorm:"uniqueIndex:idx_req_scope;not null" json:"material_id" binding:"required"`
	DistributionName string          `gorm:"uniqueIndex:idx_req_scope;size:100;not null;default:''" json:"distribution_name"`
	QuantityNeeded   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_needed"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *ProjectMaterialRequirement) BeforeSave(tx *gorm.DB) error {
	_ = tx
	if r == nil {
		return nil
	}
	r.DistributionName = utils.NormalizeDistribution(r.DistributionName)
	return nil
}

// UpsertRequirement writes or replaces the quantity for the normalized
// (project, material, distribution) key, so look-ups through either the
// requirement path or the ledger path land on the same row.
func UpsertRequirement(db *gorm.DB, projectID, materialID int, distribution string, quantity decimal.Decimal) error {
	row := ProjectMaterialRequirement{
		ProjectID:        projectID,
		MaterialID:       materialID,
		DistributionName: utils.NormalizeDistribution(distribution),
		QuantityNeeded:   quantity,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "material_id"}, {Name: "distribution_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity_needed"}),
	}).Create(&row).Error
}

// ListRequirements returns requirement rows for a project, optionally narrowed
// to one distribution. An empty filter returns every row, so summing them per
// material equals the project-level total requirement.
func ListRequirements(db *gorm.DB, projectID int, distribution string) ([]ProjectMaterialRequirement, error) {
	var rows []ProjectMaterialRequirement
	q := db.Where("project_id = ?", projectID)
	if d := utils.NormalizeDistribution(distribution); d != "" {
		q = q.Where("distribution_name = ?", d)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
