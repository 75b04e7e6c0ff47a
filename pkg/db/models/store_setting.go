package models

import "time"

// StoreSetting is a single key/value row for store-wide toggles.
type StoreSetting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// SettingStockManagementEnabled gates all inventory checks and mutations.
const SettingStockManagementEnabled = "stock_management_enabled"
