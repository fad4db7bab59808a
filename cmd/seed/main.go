package main

import (
	"flag"
	"fmt"
	"os"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kumoney/internal/catalog"
	"kumoney/internal/config"
	"kumoney/internal/database"
	"kumoney/internal/logger"
	"kumoney/internal/models"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Seed error: %v", err)
	}
}

func run() error {
	importFlag := flag.Bool("i", false, "import the default package catalog")
	deleteFlag := flag.Bool("d", false, "delete every package")
	flag.Parse()

	if *importFlag == *deleteFlag {
		return fmt.Errorf("usage: seed -i | -d")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return err
	}
	defer dbManager.Close()

	if *deleteFlag {
		return deletePackages(dbManager.DB())
	}
	return importPackages(dbManager.DB())
}

// importPackages upserts the embedded catalog keyed on tier.
func importPackages(db *gorm.DB) error {
	pkgs, err := catalog.Default()
	if err != nil {
		return err
	}

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tier"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "limit_category", "limit_account", "limit_incomes", "limit_expenses",
			"price", "duration_days", "features", "status", "updated_at",
		}),
	}).Create(&pkgs).Error
	if err != nil {
		return fmt.Errorf("failed to import packages: %w", err)
	}

	logger.Get().Infof("Imported %d package(s)", len(pkgs))
	return nil
}

func deletePackages(db *gorm.DB) error {
	result := db.Unscoped().Where("1 = 1").Delete(&models.Package{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete packages: %w", result.Error)
	}
	logger.Get().Infof("Deleted %d package(s)", result.RowsAffected)
	return nil
}
