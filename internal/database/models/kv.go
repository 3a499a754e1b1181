package models

import "time"

// KeyValue 持久化 KV 存储的一行，companion 通过 store.Store 读写
type KeyValue struct {
	Key       string    `json:"key" gorm:"primaryKey;type:varchar(191)"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KeyValue) TableName() string { return "kv_items" }
