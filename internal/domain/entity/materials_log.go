package entity

import (
	"time"
)

// Типы записей аудита ссылок на учебные материалы
const (
	MaterialsLogAdd    = "add"
	MaterialsLogUpdate = "update"
	MaterialsLogVerify = "verify"
)

// Статусы записей аудита
const (
	MaterialsLogSuccess = "success"
	MaterialsLogError   = "error"
)

// MaterialsLog - append-only запись аудита изменений и проверок
// ссылки на учебные материалы кампании.
type MaterialsLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID uint      `gorm:"not null;index" json:"campaign_id"`
	Type       string    `gorm:"size:20;not null" json:"type"` // add, update, verify
	URL        string    `gorm:"size:500;not null" json:"url"`
	Status     string    `gorm:"size:20;not null" json:"status"` // success, error
	Error      string    `gorm:"size:500;not null;default:''" json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (MaterialsLog) TableName() string {
	return "learning_materials_logs"
}
