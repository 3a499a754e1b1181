package dbcore

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/komari-monitor/companion/internal/conf"
	logu "github.com/komari-monitor/companion/internal/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	instance   *gorm.DB
	dbBootOnce sync.Once
	dbBootErr  error
)

func GetDBInstance() *gorm.DB {
	return instance
}

// Open 按配置连接数据库并完成迁移，不修改全局实例
func Open(cfg conf.Database) (*gorm.DB, error) {
	logConfig := &gorm.Config{
		Logger:                                   logu.NewGormLogger(conf.Version == conf.Version_Development),
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DatabaseType {
	case "sqlite", "":
		db, err = gorm.Open(sqlite.Open(cfg.DatabaseFile), logConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite3 database: %w", err)
		}
		log.Printf("Using SQLite database file: %s", cfg.DatabaseFile)
		if err := db.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
			log.Printf("Failed to enable WAL mode for SQLite: %v", err)
		}
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&collation=utf8mb4_unicode_ci&parseTime=True&loc=Local",
			cfg.DatabaseUser,
			cfg.DatabasePass,
			cfg.DatabaseHost,
			cfg.DatabasePort,
			cfg.DatabaseName)
		db, err = gorm.Open(mysql.Open(dsn), logConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
		}
		log.Printf("Using MySQL database: %s@%s:%s/%s", cfg.DatabaseUser, cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName)
		db.Exec("SET NAMES utf8mb4 COLLATE utf8mb4_unicode_ci")
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DatabaseType)
	}

	if needsMigration(db) {
		log.Println("Version changed, running database migration...")
		if err := runMigrations(db); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		updateSchemaVersion(db)
		log.Println("Database migration completed")
	}
	return db, nil
}

// BootWithConfig 初始化全局数据库实例，只有第一次调用生效
func BootWithConfig(cfg *conf.Config) error {
	if cfg == nil {
		return errors.New("dbcore: config is nil")
	}
	dbBootOnce.Do(func() {
		instance, dbBootErr = Open(cfg.Database)
	})
	return dbBootErr
}

// IsSQLite 判断配置是否使用 SQLite
func IsSQLite(cfg conf.Database) bool {
	return cfg.DatabaseType == "sqlite" || cfg.DatabaseType == ""
}
