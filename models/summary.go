package models

import (
	"sort"

	"github.com/nusafiber/fieldops_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaterialSummaryRow is one line of the per-project material adequacy view.
// Virtual rows (fallback derivation) have MaterialID == 0.
type MaterialSummaryRow struct {
	MaterialID     int             `json:"material_id"`
	MaterialName   string          `json:"material_name"`
	Unit           string          `json:"unit"`
	TotalIn        decimal.Decimal `json:"total_in"`
	TotalOut       decimal.Decimal `json:"total_out"`
	QuantityNeeded decimal.Decimal `json:"quantity_needed"`
	IsVirtual      bool            `json:"is_virtual"`
}

func (r *MaterialSummaryRow) Remaining() decimal.Decimal {
	return r.QuantityNeeded.Sub(r.TotalOut)
}

// Summary builds the material map for one project, optionally narrowed to one
// distribution. Materials appearing in either the ledger or the requirement
// table contribute a row. When the project has no requirement rows at all the
// summary falls back to virtual rows derived from geospatial assets, so a
// project can report adequacy before anyone enters requirements.
func Summary(db *gorm.DB, projectID int, distribution string) ([]*MaterialSummaryRow, error) {
	txns, err := ListTransactions(db, projectID, distribution)
	if err != nil {
		return nil, err
	}
	reqs, err := ListRequirements(db, projectID, distribution)
	if err != nil {
		return nil, err
	}

	ids := map[int]bool{}
	for i := range txns {
		ids[txns[i].MaterialID] = true
	}
	for i := range reqs {
		ids[reqs[i].MaterialID] = true
	}
	names := map[int]*Material{}
	if len(ids) > 0 {
		idList := make([]int, 0, len(ids))
		for id := range ids {
			idList = append(idList, id)
		}
		var materials []*Material
		if err := db.Where("id IN ?", idList).Find(&materials).Error; err != nil {
			return nil, err
		}
		for _, m := range materials {
			names[m.ID] = m
		}
	}

	rows := MergeSummaryRows(txns, reqs, names)
	if len(rows) > 0 {
		return rows, nil
	}

	structures, err := ListStructures(db, projectID)
	if err != nil {
		return nil, err
	}
	routes, err := ListRouteSegments(db, projectID)
	if err != nil {
		return nil, err
	}
	return BuildFallbackSummary(structures, routes), nil
}

// MergeSummaryRows folds ledger and requirement rows into summary lines,
// keyed by material id. Pure; callers load the rows.
func MergeSummaryRows(txns []MaterialTransaction, reqs []ProjectMaterialRequirement, materials map[int]*Material) []*MaterialSummaryRow {
	byID := map[int]*MaterialSummaryRow{}

	rowFor := func(materialID int) *MaterialSummaryRow {
		if row, ok := byID[materialID]; ok {
			return row
		}
		row := &MaterialSummaryRow{MaterialID: materialID}
		if m, ok := materials[materialID]; ok {
			row.MaterialName = m.Name
			row.Unit = m.Unit
		}
		byID[materialID] = row
		return row
	}

	for i := range txns {
		row := rowFor(txns[i].MaterialID)
		switch txns[i].TransactionType {
		case TransactionTypeIn:
			row.TotalIn = row.TotalIn.Add(txns[i].Quantity)
		case TransactionTypeOut:
			row.TotalOut = row.TotalOut.Add(txns[i].Quantity)
		}
	}
	for i := range reqs {
		row := rowFor(reqs[i].MaterialID)
		row.QuantityNeeded = row.QuantityNeeded.Add(reqs[i].QuantityNeeded)
	}

	rows := make([]*MaterialSummaryRow, 0, len(byID))
	for _, row := range byID {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].MaterialName < rows[j].MaterialName })
	return rows
}

const (
	VirtualPoleName  = "Tiang (pole)"
	VirtualOdpName   = "ODP"
	VirtualCableName = "Kabel udara (m)"
)

// BuildFallbackSummary synthesizes virtual requirement lines from geospatial
// asset counts: poles, ODP terminations, and total aerial cable meters. Duct
// and subduct routes are excluded from the cable total because that quantity
// is already implied by the cable route entry itself.
func BuildFallbackSummary(structures []Structure, routes []RouteSegment) []*MaterialSummaryRow {
	var poles, odps int
	for i := range structures {
		s := &structures[i]
		switch {
		case isPoleAsset(s.StructureType, s.Name):
			poles++
		case isOdpAsset(s.StructureType, s.Name):
			odps++
		}
	}

	var cableMeters float64
	for i := range routes {
		r := &routes[i]
		if isDuctRoute(r.RouteType, r.Name) {
			continue
		}
		cableMeters += RouteLengthMeters(r.PathPoints())
	}

	var rows []*MaterialSummaryRow
	if poles > 0 {
		rows = append(rows, &MaterialSummaryRow{
			MaterialName:   VirtualPoleName,
			Unit:           "batang",
			QuantityNeeded: decimal.NewFromInt(int64(poles)),
			IsVirtual:      true,
		})
	}
	if odps > 0 {
		rows = append(rows, &MaterialSummaryRow{
			MaterialName:   VirtualOdpName,
			Unit:           "unit",
			QuantityNeeded: decimal.NewFromInt(int64(odps)),
			IsVirtual:      true,
		})
	}
	if cableMeters > 0 {
		rows = append(rows, &MaterialSummaryRow{
			MaterialName:   VirtualCableName,
			Unit:           "meter",
			QuantityNeeded: decimal.NewFromFloat(cableMeters).Round(0),
			IsVirtual:      true,
		})
	}
	return rows
}

func isPoleAsset(structureType, name string) bool {
	return utils.ContainsFold(structureType, "pole") ||
		utils.ContainsFold(structureType, "tiang") ||
		utils.ContainsFold(name, "tiang")
}

func isOdpAsset(structureType, name string) bool {
	return utils.ContainsFold(structureType, "odp") ||
		utils.ContainsFold(structureType, "termination") ||
		utils.ContainsFold(name, "odp")
}

func isDuctRoute(routeType, name string) bool {
	return utils.ContainsFold(routeType, "duct") || utils.ContainsFold(name, "duct")
}
