package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// SetupSnapshot разобранные данные setup-файла детали (парсер внешний)
type SetupSnapshot struct {
	PartNumber string    `json:"part_number"`
	Thickness  float64   `json:"thickness"`
	SheetX     int       `json:"sheet_x"`
	SheetY     int       `json:"sheet_y"`
	UPH        float64   `json:"uph"`
	Tools      []ToolUse `json:"tools"`
}

// Value реализует driver.Valuer для сохранения в БД
func (s SetupSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan реализует sql.Scanner для чтения из БД
func (s *SetupSnapshot) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal SetupSnapshot value")
	}

	return json.Unmarshal(bytes, s)
}

// Package набор деталей одного изделия
type Package struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Parts       []PackagePart `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE" json:"parts"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName возвращает имя таблицы
func (Package) TableName() string {
	return "packages"
}

// PackagePart деталь в составе изделия
type PackagePart struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	PackageID    uint          `gorm:"not null;index" json:"package_id"`
	Filename     string        `gorm:"type:varchar(255);not null" json:"filename"` // "TYEH-1171206_01-SW"
	PerUnitCount int           `gorm:"not null" json:"per_unit_count"`
	Setup        SetupSnapshot `gorm:"type:jsonb;not null" json:"setup"`
}

// TableName возвращает имя таблицы
func (PackagePart) TableName() string {
	return "package_parts"
}
