package workflow

import (
	"github.com/go-playground/validator/v10"
	"github.com/nusafiber/fieldops_backend/config"
	"github.com/nusafiber/fieldops_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var validate = validator.New()

type StockMovementInput struct {
	MaterialName string          `validate:"required"`
	Unit         string          `validate:"omitempty,max=50"`
	ProjectID    *int            `validate:"omitempty,gt=0"`
	Distribution string          `validate:"omitempty,max=100"`
	Quantity     decimal.Decimal `validate:"required"`
	Notes        string          `validate:"omitempty,max=500"`
}

// RecordStockIn appends an IN entry (manual stock-in), creating the material
// on first sight.
func RecordStockIn(db *gorm.DB, logger *logrus.Logger, input *StockMovementInput) (*models.MaterialTransaction, error) {
	return recordMovement(db, logger, input, models.TransactionTypeIn)
}

// RecordUsage appends an OUT entry (manual usage) and recomputes the owning
// project's progress.
func RecordUsage(db *gorm.DB, logger *logrus.Logger, input *StockMovementInput) (*models.MaterialTransaction, error) {
	mt, err := recordMovement(db, logger, input, models.TransactionTypeOut)
	if err != nil {
		return nil, err
	}
	if input.ProjectID != nil {
		if err := SyncProjectProgress(db, logger, *input.ProjectID); err != nil {
			config.LogError(logger, "stockOps.go", "RecordUsage", "SyncProjectProgress", *input.ProjectID, err)
		}
	}
	return mt, nil
}

func recordMovement(db *gorm.DB, logger *logrus.Logger, input *StockMovementInput, txnType models.TransactionType) (*models.MaterialTransaction, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var mt *models.MaterialTransaction
	err := db.Transaction(func(tx *gorm.DB) error {
		material, err := models.GetOrCreateMaterial(tx, input.MaterialName, input.Unit)
		if err != nil {
			return err
		}
		mt = &models.MaterialTransaction{
			MaterialID:       material.ID,
			ProjectID:        input.ProjectID,
			TransactionType:  txnType,
			Quantity:         input.Quantity,
			DistributionName: input.Distribution,
			Notes:            input.Notes,
		}
		return models.AppendTransaction(tx, mt)
	})
	if err != nil {
		config.LogError(logger, "stockOps.go", "recordMovement", string(txnType), input.MaterialName, err)
		return nil, err
	}
	return mt, nil
}
