// Package deliveries persists the outcome of every options send.
package deliveries

import (
	"context"
	"time"

	"github.com/komari-monitor/companion/internal/database/models"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Record(ctx context.Context, d *models.Delivery) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(d).Error
}

// Recent 按时间倒序返回最近 limit 条记录，limit<=0 时返回 50 条
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.Delivery, error) {
	if limit <= 0 {
		limit = 50
	}
	var list []models.Delivery
	err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&list).Error
	return list, err
}

func (r *Repository) Get(ctx context.Context, id string) (models.Delivery, error) {
	var d models.Delivery
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	return d, err
}

// DeleteBefore 删除 t 之前的记录，返回删除条数
func (r *Repository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", t).Delete(&models.Delivery{})
	return res.RowsAffected, res.Error
}
