package dbcore

import (
	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/database/models"
	"gorm.io/gorm"
)

func currentSchemaVersion() string {
	return conf.Version + "+" + conf.CommitHash
}

func needsMigration(db *gorm.DB) bool {
	// 开发版本每次启动都迁移
	if conf.Version == conf.Version_Development {
		return true
	}
	if !db.Migrator().HasTable(&models.SchemaVersion{}) {
		return true
	}
	var v models.SchemaVersion
	if err := db.First(&v, 1).Error; err != nil {
		return true
	}
	return v.Version != currentSchemaVersion()
}

func runMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SchemaVersion{},
		&models.KeyValue{},
		&models.Delivery{},
	)
}

func updateSchemaVersion(db *gorm.DB) {
	db.Save(&models.SchemaVersion{ID: 1, Version: currentSchemaVersion()})
}
