package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressplan/server/internal/models"
)

// MachineInput поля машины, которые задает администратор парка
type MachineInput struct {
	Name            string   `json:"name"`
	Model           string   `json:"model"`
	MachineType     string   `json:"machine_type"` // "4I", "2I", "45STA"
	ThicknessMin    float64  `json:"thickness_min"`
	ThicknessMax    float64  `json:"thickness_max"`
	SheetMaxX       int      `json:"sheet_max_x"`
	SheetMaxY       int      `json:"sheet_max_y"`
	DamagedStations []string `json:"damaged_stations"`
	IsActive        *bool    `json:"is_active"`
}

// MachineService администрирование парка прессов
type MachineService struct {
	db        *gorm.DB
	templates *StationTemplateService
	log       *zap.Logger
}

// NewMachineService создает сервис парка
func NewMachineService(db *gorm.DB, templates *StationTemplateService, log *zap.Logger) *MachineService {
	return &MachineService{db: db, templates: templates, log: log}
}

// Create добавляет машину
func (s *MachineService) Create(ctx context.Context, in MachineInput) (*models.MachineCapability, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: machine name is required", ErrInvalidRequest)
	}
	tmpl, err := s.templates.GetByMachineType(ctx, in.MachineType)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown machine type %q", ErrInvalidRequest, in.MachineType)
		}
		return nil, err
	}

	machine := &models.MachineCapability{
		ID:         uuid.New().String(),
		TemplateID: tmpl.ID,
		Template:   *tmpl,
		IsActive:   true,
	}
	if err := applyMachineInput(machine, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Omit("Template").Create(machine).Error; err != nil {
		return nil, fmt.Errorf("create machine %s: %w", in.Name, err)
	}
	// default:true в gorm игнорирует false при вставке
	if !machine.IsActive {
		if err := s.db.WithContext(ctx).Model(machine).Update("is_active", false).Error; err != nil {
			return nil, fmt.Errorf("create machine %s: %w", in.Name, err)
		}
	}
	s.log.Info("✅ machine created", zap.String("id", machine.ID), zap.String("name", machine.Name), zap.String("type", tmpl.MachineType))
	return machine, nil
}

// List машины парка (только активные, если activeOnly)
func (s *MachineService) List(ctx context.Context, activeOnly bool) ([]models.MachineCapability, error) {
	query := s.db.WithContext(ctx).Preload("Template").Order("name")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var machines []models.MachineCapability
	if err := query.Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	return machines, nil
}

// Get машина по ID вместе с шаблоном
func (s *MachineService) Get(ctx context.Context, id string) (*models.MachineCapability, error) {
	var machine models.MachineCapability
	err := s.db.WithContext(ctx).Preload("Template").Where("id = ?", id).First(&machine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("machine %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get machine %s: %w", id, err)
	}
	return &machine, nil
}

// GetMany машины по списку ID в порядке запроса (порядок важен для планировщика)
func (s *MachineService) GetMany(ctx context.Context, ids []string) ([]models.MachineCapability, error) {
	var found []models.MachineCapability
	if err := s.db.WithContext(ctx).Preload("Template").Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("load machines: %w", err)
	}

	byID := make(map[string]models.MachineCapability, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}
	machines := make([]models.MachineCapability, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("machine %s: %w", id, ErrNotFound)
		}
		machines = append(machines, m)
	}
	return machines, nil
}

// Update меняет параметры машины; тип пресса можно сменить только на существующий шаблон
func (s *MachineService) Update(ctx context.Context, id string, in MachineInput) (*models.MachineCapability, error) {
	machine, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.MachineType != "" && in.MachineType != machine.Template.MachineType {
		tmpl, err := s.templates.GetByMachineType(ctx, in.MachineType)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown machine type %q", ErrInvalidRequest, in.MachineType)
			}
			return nil, err
		}
		machine.TemplateID = tmpl.ID
		machine.Template = *tmpl
	}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = machine.Name
	}
	if err := applyMachineInput(machine, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Omit("Template").Select("*").Updates(machine).Error; err != nil {
		return nil, fmt.Errorf("update machine %s: %w", id, err)
	}
	s.log.Info("📋 machine updated", zap.String("id", id), zap.Strings("damaged_stations", machine.DamagedStations))
	return machine, nil
}

// Deactivate выводит машину из планирования (запись остается)
func (s *MachineService) Deactivate(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&models.MachineCapability{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("deactivate machine %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("machine %s: %w", id, ErrNotFound)
	}
	s.log.Info("⚠️ machine deactivated", zap.String("id", id))
	return nil
}

func applyMachineInput(m *models.MachineCapability, in MachineInput) error {
	if in.ThicknessMin < 0 || in.ThicknessMax < 0 || in.SheetMaxX < 0 || in.SheetMaxY < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidRequest)
	}
	if in.ThicknessMin > 0 && in.ThicknessMax > 0 && in.ThicknessMin > in.ThicknessMax {
		return fmt.Errorf("%w: thickness_min %.2f is above thickness_max %.2f", ErrInvalidRequest, in.ThicknessMin, in.ThicknessMax)
	}

	damaged := make(models.StringList, 0, len(in.DamagedStations))
	for _, station := range in.DamagedStations {
		station = strings.TrimSpace(station)
		if _, ok := m.Template.Slot(station); !ok {
			return fmt.Errorf("%w: station %s does not exist on %s", ErrInvalidRequest, station, m.Template.MachineType)
		}
		if !damaged.Contains(station) {
			damaged = append(damaged, station)
		}
	}

	m.Name = strings.TrimSpace(in.Name)
	m.Model = in.Model
	m.ThicknessMin = in.ThicknessMin
	m.ThicknessMax = in.ThicknessMax
	m.SheetMaxX = in.SheetMaxX
	m.SheetMaxY = in.SheetMaxY
	m.DamagedStations = damaged
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	return nil
}
