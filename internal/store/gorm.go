package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/komari-monitor/companion/internal/database/models"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm 将 KV 保存在数据库的 kv_items 表中，读取结果在内存中缓存
type Gorm struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{
		db:    db,
		cache: cache.New(10*time.Minute, 20*time.Minute),
	}
}

func (s *Gorm) GetItem(ctx context.Context, key string) (string, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.(string), true, nil
	}

	var kv models.KeyValue
	err := s.db.WithContext(ctx).Where(&models.KeyValue{Key: key}).First(&kv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %q: %w", key, err)
	}
	s.cache.Set(key, kv.Value, cache.DefaultExpiration)
	return kv.Value, true, nil
}

func (s *Gorm) SetItem(ctx context.Context, key, value string) error {
	kv := models.KeyValue{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&kv).Error
	if err != nil {
		s.cache.Delete(key)
		return fmt.Errorf("store: set %q: %w", key, err)
	}
	s.cache.Set(key, value, cache.DefaultExpiration)
	return nil
}
