package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressplan/server/internal/models"
)

// StationTemplateService справочник раскладок станций
type StationTemplateService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewStationTemplateService создает сервис шаблонов
func NewStationTemplateService(db *gorm.DB, log *zap.Logger) *StationTemplateService {
	return &StationTemplateService{db: db, log: log}
}

// SeedStationTemplates создает отсутствующие шаблоны; существующие не трогает
func (s *StationTemplateService) SeedStationTemplates(ctx context.Context) error {
	for _, tmpl := range DefaultStationTemplates() {
		tmpl := tmpl
		result := s.db.WithContext(ctx).
			Where(models.StationTemplate{MachineType: tmpl.MachineType}).
			FirstOrCreate(&tmpl)
		if result.Error != nil {
			return fmt.Errorf("seed template %s: %w", tmpl.MachineType, result.Error)
		}
		if result.RowsAffected > 0 {
			s.log.Info("✅ station template created",
				zap.String("machine_type", tmpl.MachineType),
				zap.Int("stations", tmpl.StationCount()),
			)
		}
	}
	return nil
}

// List все шаблоны
func (s *StationTemplateService) List(ctx context.Context) ([]models.StationTemplate, error) {
	var templates []models.StationTemplate
	if err := s.db.WithContext(ctx).Order("machine_type").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list station templates: %w", err)
	}
	return templates, nil
}

// GetByMachineType шаблон по типу пресса
func (s *StationTemplateService) GetByMachineType(ctx context.Context, machineType string) (*models.StationTemplate, error) {
	var tmpl models.StationTemplate
	err := s.db.WithContext(ctx).Where("machine_type = ?", machineType).First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("station template %s: %w", machineType, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get station template %s: %w", machineType, err)
	}
	return &tmpl, nil
}
