// models/gorm_models.go
package models

import (
	"time"
)

// GormBlob 键值存储行
type GormBlob struct {
	Key       string `gorm:"primaryKey;size:128"`
	Data      []byte `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定表名
func (GormBlob) TableName() string {
	return "storage_blobs"
}
