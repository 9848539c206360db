package database

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/go4it/builder/internal/models"
	"gorm.io/gorm"
)

// Migrations returns the ordered schema migrations
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20260301_create_generation_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.App{}, &models.GeneratedApp{}, &models.AppIteration{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("app_iterations", "generated_apps", "apps")
			},
		},
		{
			ID: "20260315_create_org_apps",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.OrgApp{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("org_apps")
			},
		},
		{
			ID: "20260401_add_org_app_deploying_from",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasColumn(&models.OrgApp{}, "DeployingFrom") {
					return nil
				}
				return tx.Migrator().AddColumn(&models.OrgApp{}, "DeployingFrom")
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropColumn(&models.OrgApp{}, "DeployingFrom")
			},
		},
	}
}

// Migrate applies all pending migrations
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, Migrations())
	return m.Migrate()
}
