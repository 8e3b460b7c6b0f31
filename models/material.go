package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Material carries a cached CurrentStock. The cache must equal the signed sum
// of the material's transactions across ALL projects (global stock; see the
// pinning test in materialTransaction_test.go). It is only ever mutated by
// atomic increments inside the same tx as a ledger append, or recomputed
// wholesale by RebuildMaterialStock.
type Material struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"size:255;uniqueIndex;not null" json:"name" binding:"required"`
	Unit         string          `gorm:"size:50" json:"unit"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_stock"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetMaterial(db *gorm.DB, id int) (*Material, error) {
	var material Material
	if err := db.First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

// FindMaterialByName matches one material by case-insensitive exact name.
// Report item names that resolve nowhere stay unresolved (nil material id on
// the item) rather than failing the report.
func FindMaterialByName(db *gorm.DB, name string) (*Material, error) {
	var material Material
	err := db.Where("LOWER(name) = LOWER(?)", name).First(&material).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &material, nil
}

func ListMaterials(db *gorm.DB, nameFilter string) ([]*Material, error) {
	var materials []*Material
	q := db.Order("name ASC")
	if nameFilter != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+nameFilter+"%")
	}
	if err := q.Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func GetOrCreateMaterial(tx *gorm.DB, name, unit string) (*Material, error) {
	material, err := FindMaterialByName(tx, name)
	if err == nil {
		return material, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	created := Material{Name: name, Unit: unit}
	if err := tx.Create(&created).Error; err != nil {
		return nil, err
	}
	return &created, nil
}

// adjustMaterialStock applies a signed delta to the stock cache with a single
// atomic UPDATE. Never read-modify-write this column from application code;
// concurrent webhook deliveries would lose updates.
func adjustMaterialStock(tx *gorm.DB, materialID int, delta decimal.Decimal) error {
	res := tx.Model(&Material{}).
		Where("id = ?", materialID).
		Update("current_stock", gorm.Expr("current_stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RebuildMaterialStock recomputes the cache from the ledger. The ledger is the
// source of truth; the cache is a materialized view.
func RebuildMaterialStock(tx *gorm.DB, materialID int) error {
	var rows []MaterialTransaction
	if err := tx.Where("material_id = ?", materialID).Find(&rows).Error; err != nil {
		return err
	}
	total := SignedLedgerSum(rows)
	return tx.Model(&Material{}).Where("id = ?", materialID).Update("current_stock", total).Error
}
