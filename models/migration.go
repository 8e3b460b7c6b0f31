package models

import (
	"log"

	"github.com/nusafiber/fieldops_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Project{},
		&Material{}, &MaterialTransaction{}, &ProjectMaterialRequirement{},
		&DailyReport{}, &DailyReportItem{},
		&WorkTask{},
		&AuthorizedUser{}, &UserProjectGrant{},
		&Structure{}, &RouteSegment{},
		&OperationalExpense{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
