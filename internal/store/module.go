package store

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// FxModule provides the database backed Store.
func FxModule() fx.Option {
	return fx.Options(
		fx.Provide(func(db *gorm.DB) Store { return NewGorm(db) }),
	)
}
