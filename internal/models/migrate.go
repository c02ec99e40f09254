package models

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate создает таблицы в БД. Порядок важен: машины ссылаются на шаблоны,
// детали изделия на изделие.
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	tables := []struct {
		name  string
		model interface{}
	}{
		{"StationTemplate", &StationTemplate{}},
		{"MachineCapability", &MachineCapability{}},
		{"Package", &Package{}},
		{"PackagePart", &PackagePart{}},
		{"StoredPlan", &StoredPlan{}},
	}

	for _, t := range tables {
		if err := db.AutoMigrate(t.model); err != nil {
			log.Error("❌ AutoMigrate failed", zap.String("table", t.name), zap.Error(err))
			return fmt.Errorf("migrate %s: %w", t.name, err)
		}
		log.Info("✅ table migrated", zap.String("table", t.name))
	}
	return nil
}
