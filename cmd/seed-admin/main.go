// seed-admin marks one Telegram account as an active admin so the approval
// and access-management flows have a first operator.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go run ./cmd/seed-admin --telegram-id 123456789 --first-name Ops
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nusafiber/fieldops_backend/config"
	"github.com/nusafiber/fieldops_backend/models"
	"github.com/nusafiber/fieldops_backend/utils"
	"gorm.io/gorm"
)

func main() {
	telegramID := flag.Int64("telegram-id", 0, "Required: Telegram account id to promote")
	firstName := flag.String("first-name", "Admin", "Optional: display first name for a newly created row")
	lastName := flag.String("last-name", "", "Optional: display last name for a newly created row")
	flag.Parse()

	if *telegramID == 0 {
		fmt.Fprintln(os.Stderr, "--telegram-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	var existing models.AuthorizedUser
	err := db.Where("telegram_id = ?", *telegramID).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		user := models.AuthorizedUser{
			TelegramID: *telegramID,
			FirstName:  *firstName,
			LastName:   *lastName,
			IsActive:   utils.NewTrue(),
			IsAdmin:    utils.NewTrue(),
		}
		if err := db.Create(&user).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: telegram_id=%d\n", *telegramID)
		return
	}

	if err := db.Model(&models.AuthorizedUser{}).Where("telegram_id = ?", *telegramID).Updates(map[string]any{
		"is_active": utils.NewTrue(),
		"is_admin":  utils.NewTrue(),
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Promoted existing user to admin: telegram_id=%d\n", *telegramID)
}
