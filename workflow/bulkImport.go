package workflow

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nusafiber/fieldops_backend/config"
	"github.com/nusafiber/fieldops_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Expected workbook columns, first sheet, header on row 1:
// Material | Qty | Unit | Project | Distribution | Notes

type stockImportRow struct {
	MaterialName string `validate:"required"`
	Quantity     string `validate:"required"`
	Unit         string
	ProjectName  string
	Distribution string
	Notes        string

	line int
	qty  decimal.Decimal
}

type ImportResult struct {
	RowsImported     int
	MaterialsCreated int
}

var ErrEmptyWorkbook = errors.New("workbook has no data rows")

// ImportStockInWorkbook reads a bulk stock-in workbook and appends one IN
// ledger entry per row. The whole workbook is one logical unit: any invalid
// row aborts the import before anything is written, and all rows commit in a
// single transaction.
func ImportStockInWorkbook(db *gorm.DB, logger *logrus.Logger, r io.Reader) (*ImportResult, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	rawRows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rawRows) < 2 {
		return nil, ErrEmptyWorkbook
	}

	rows, err := parseImportRows(rawRows[1:])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}

	result := &ImportResult{}
	touchedProjects := map[int]bool{}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			material, findErr := models.FindMaterialByName(tx, row.MaterialName)
			if findErr != nil {
				if !errors.Is(findErr, gorm.ErrRecordNotFound) {
					return findErr
				}
				material, findErr = models.GetOrCreateMaterial(tx, row.MaterialName, row.Unit)
				if findErr != nil {
					return findErr
				}
				result.MaterialsCreated++
			}

			var projectID *int
			if row.ProjectName != "" {
				var project models.Project
				if err := tx.Where("LOWER(name) = LOWER(?)", row.ProjectName).First(&project).Error; err != nil {
					return fmt.Errorf("row %d: project %q: %w", row.line, row.ProjectName, err)
				}
				projectID = &project.ID
				touchedProjects[project.ID] = true
			}

			mt := models.MaterialTransaction{
				MaterialID:       material.ID,
				ProjectID:        projectID,
				TransactionType:  models.TransactionTypeIn,
				Quantity:         row.qty,
				DistributionName: row.Distribution,
				Notes:            row.Notes,
			}
			if err := models.AppendTransaction(tx, &mt); err != nil {
				return fmt.Errorf("row %d: %w", row.line, err)
			}
			result.RowsImported++
		}
		return nil
	})
	if err != nil {
		config.LogError(logger, "bulkImport.go", "ImportStockInWorkbook", "transaction", nil, err)
		return nil, err
	}

	// New IN entries can change adequacy ratios.
	for projectID := range touchedProjects {
		if err := SyncProjectProgress(db, logger, projectID); err != nil {
			config.LogError(logger, "bulkImport.go", "ImportStockInWorkbook", "SyncProjectProgress", projectID, err)
		}
	}
	return result, nil
}

func parseImportRows(raw [][]string) ([]*stockImportRow, error) {
	cell := func(cols []string, i int) string {
		if i < len(cols) {
			return strings.TrimSpace(cols[i])
		}
		return ""
	}

	var rows []*stockImportRow
	for i, cols := range raw {
		row := &stockImportRow{
			MaterialName: cell(cols, 0),
			Quantity:     cell(cols, 1),
			Unit:         cell(cols, 2),
			ProjectName:  cell(cols, 3),
			Distribution: cell(cols, 4),
			Notes:        cell(cols, 5),
			line:         i + 2, // 1-based, after the header row
		}
		if row.MaterialName == "" && row.Quantity == "" {
			// Trailing blank rows are fine.
			continue
		}
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", row.line, err)
		}
		qty, err := decimal.NewFromString(row.Quantity)
		if err != nil || !qty.IsPositive() {
			return nil, fmt.Errorf("row %d: quantity %q must be a positive number", row.line, row.Quantity)
		}
		row.qty = qty
		rows = append(rows, row)
	}
	return rows, nil
}
