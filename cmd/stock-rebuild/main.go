// stock-rebuild recomputes the cached current_stock on materials from the
// transaction ledger. Run it after manual ledger surgery or when a crash is
// suspected to have left the cache stale.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/stock-rebuild
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nusafiber/fieldops_backend/config"
	"github.com/nusafiber/fieldops_backend/models"
)

func main() {
	materialID := flag.Int("material-id", 0, "Optional: rebuild a single material")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing materials and continue rebuilding others")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var ids []int
	if *materialID > 0 {
		ids = []int{*materialID}
	} else {
		if err := db.Model(&models.Material{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
			fmt.Fprintf(os.Stderr, "discover materials: %v\n", err)
			os.Exit(1)
		}
	}

	for _, id := range ids {
		if err := models.RebuildMaterialStock(db, id); err != nil {
			if *continueOnError {
				fmt.Fprintf(os.Stderr, "rebuild material %d failed (skipping): %v\n", id, err)
				continue
			}
			fmt.Fprintf(os.Stderr, "rebuild material %d failed: %v\n", id, err)
			os.Exit(1)
		}
		material, err := models.GetMaterial(db, id)
		if err == nil {
			fmt.Printf("material %d (%s): current_stock=%s\n", id, material.Name, material.CurrentStock.String())
		}
	}
	fmt.Printf("Done. Rebuilt %d material(s).\n", len(ids))
}
