package models

import (
	"errors"
	"time"

	"github.com/nusafiber/fieldops_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaterialTransaction is the append-only stock ledger. Rows are never updated
// or deleted. OUT rows exist only as side effects of report approval or manual
// usage recording; IN rows come from manual stock-in or bulk import.
type MaterialTransaction struct {
	ID               int             `gorm:"primary_key" json:"id"`
	MaterialID       int             `gorm:"index;not null" json:"material_id" binding:"required"`
	ProjectID        *int            `gorm:"index" json:"project_id"`
	TransactionType  TransactionType `gorm:"type:enum('IN','OUT');not null" json:"transaction_type" binding:"required"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	DistributionName string          `gorm:"size:100;index;not null;default:''" json:"distribution_name"`
	Notes            string          `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

var (
	ErrNonPositiveQuantity    = errors.New("transaction quantity must be positive")
	ErrInvalidTransactionType = errors.New("transaction type must be IN or OUT")
)

// BeforeSave normalizes the distribution key and enforces ledger invariants.
// tx may be nil in tests.
func (mt *MaterialTransaction) BeforeSave(tx *gorm.DB) error {
	_ = tx
	if mt == nil {
		return nil
	}
	mt.DistributionName = utils.NormalizeDistribution(mt.DistributionName)
	if mt.TransactionType != TransactionTypeIn && mt.TransactionType != TransactionTypeOut {
		return ErrInvalidTransactionType
	}
	if !mt.Quantity.IsPositive() {
		return ErrNonPositiveQuantity
	}
	return nil
}

// SignedDelta is the transaction's contribution to the stock cache.
func (mt *MaterialTransaction) SignedDelta() decimal.Decimal {
	if mt.TransactionType == TransactionTypeOut {
		return mt.Quantity.Neg()
	}
	return mt.Quantity
}

// SignedLedgerSum folds ledger rows into a stock level. Project scoping is
// deliberately ignored: stock is global per material even though usage is
// recorded per project.
func SignedLedgerSum(rows []MaterialTransaction) decimal.Decimal {
	total := decimal.Zero
	for i := range rows {
		total = total.Add(rows[i].SignedDelta())
	}
	return total
}

// AppendTransaction writes one ledger row and applies the matching atomic
// increment to the material's stock cache in the same tx. This is the only
// legal write path into the ledger.
func AppendTransaction(tx *gorm.DB, mt *MaterialTransaction) error {
	if err := tx.Create(mt).Error; err != nil {
		return err
	}
	return adjustMaterialStock(tx, mt.MaterialID, mt.SignedDelta())
}

// ListTransactions returns ledger rows for a project, optionally narrowed to
// one distribution (normalized before matching).
func ListTransactions(db *gorm.DB, projectID int, distribution string) ([]MaterialTransaction, error) {
	var rows []MaterialTransaction
	q := db.Where("project_id = ?", projectID)
	if d := utils.NormalizeDistribution(distribution); d != "" {
		q = q.Where("distribution_name = ?", d)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
