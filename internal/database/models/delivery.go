package models

import "time"

const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// Delivery 记录一次向配对设备发送 options 的结果
type Delivery struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Transport string    `json:"transport" gorm:"type:varchar(32);index"`
	Payload   string    `json:"payload" gorm:"type:text"`
	Status    string    `json:"status" gorm:"type:varchar(16);index"`
	Error     string    `json:"error,omitempty" gorm:"type:text"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// SchemaVersion 保存上次迁移时的程序版本
type SchemaVersion struct {
	ID      uint   `gorm:"primaryKey"`
	Version string `gorm:"type:varchar(64)"`
}
