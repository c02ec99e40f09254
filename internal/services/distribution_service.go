package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressplan/server/internal/config"
	"pressplan/server/internal/models"
	"pressplan/server/internal/planner"
)

// DistributionRequest запрос на раскладку изделия по машинам
type DistributionRequest struct {
	PackageID      uint     `json:"package_id"`
	Demand         int      `json:"demand"`
	TimeBudget     float64  `json:"time_budget_hours"`
	MachineIDs     []string `json:"machine_ids"` // пусто = все активные машины
	Threshold      *int     `json:"threshold,omitempty"`
	StationCeiling *int     `json:"station_ceiling,omitempty"`
	MaxMachines    *int     `json:"max_machines,omitempty"`
}

// PlanCache кэш готовых раскладок (Redis)
type PlanCache interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	Delete(ctx context.Context, key string) error
}

// DistributionService запускает планировщик и хранит результаты ограниченное время
type DistributionService struct {
	db           *gorm.DB
	cache        PlanCache
	events       *PlanEventPublisher
	machines     *MachineService
	packages     *PackageService
	requirements *RequirementService
	planning     config.PlanningConfig
	log          *zap.Logger
	now          func() time.Time
}

// NewDistributionService cache и events могут быть nil (Redis/Kafka не настроены)
func NewDistributionService(
	db *gorm.DB,
	cache PlanCache,
	events *PlanEventPublisher,
	machines *MachineService,
	packages *PackageService,
	requirements *RequirementService,
	planning config.PlanningConfig,
	log *zap.Logger,
) *DistributionService {
	return &DistributionService{
		db:           db,
		cache:        cache,
		events:       events,
		machines:     machines,
		packages:     packages,
		requirements: requirements,
		planning:     planning,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func cacheKey(id string) string {
	return "distribution:" + id
}

// PlannerOptions параметры планировщика: значения из конфигурации, поверх них запрос
func PlannerOptions(planning config.PlanningConfig, req DistributionRequest) planner.Options {
	opts := planner.DefaultOptions(req.TimeBudget)
	if planning.CompatThreshold > 0 {
		opts.Threshold = planning.CompatThreshold
	}
	if planning.StationCeiling > 0 {
		opts.StationCeiling = planning.StationCeiling
	}
	if planning.MaxMachines > 0 {
		opts.MaxMachines = planning.MaxMachines
	}
	if planning.MaxSplitsPerPart > 0 {
		opts.MaxSplitsPerPart = planning.MaxSplitsPerPart
	}
	opts.Consolidate = planning.Consolidate
	opts.RoundToolsFlexible = planning.RoundToolsFlexible

	if req.Threshold != nil {
		opts.Threshold = *req.Threshold
	}
	if req.StationCeiling != nil && *req.StationCeiling > 0 {
		opts.StationCeiling = *req.StationCeiling
	}
	if req.MaxMachines != nil && *req.MaxMachines > 0 {
		opts.MaxMachines = *req.MaxMachines
	}
	return opts
}

// Create считает потребности, запускает планировщик и сохраняет результат.
// Фатальные ошибки планировщика возвращаются как есть (errors.Is по planner.Err*).
func (s *DistributionService) Create(ctx context.Context, req DistributionRequest) (*models.StoredPlan, error) {
	if req.TimeBudget <= 0 {
		return nil, fmt.Errorf("%w: time_budget_hours must be positive", planner.ErrValidation)
	}
	if req.Threshold != nil && (*req.Threshold < 1 || *req.Threshold > 100) {
		return nil, fmt.Errorf("%w: threshold must be within 1..100, got %d", planner.ErrValidation, *req.Threshold)
	}

	pkg, err := s.packages.Get(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	parts, err := s.requirements.Calculate(pkg, req.Demand)
	if err != nil {
		return nil, err
	}

	var machines []models.MachineCapability
	if len(req.MachineIDs) > 0 {
		machines, err = s.machines.GetMany(ctx, req.MachineIDs)
	} else {
		machines, err = s.machines.List(ctx, true)
	}
	if err != nil {
		return nil, err
	}

	opts := PlannerOptions(s.planning, req)
	started := time.Now()
	result, err := planner.Plan(parts, machines, opts)
	if err != nil {
		s.log.Warn("⚠️ planning failed",
			zap.Uint("package_id", req.PackageID),
			zap.Int("demand", req.Demand),
			zap.Error(err),
		)
		return nil, err
	}
	s.log.Info("📊 plan computed",
		zap.Uint("package_id", req.PackageID),
		zap.Int("parts", len(parts)),
		zap.Int("machines_used", result.Stats.MachinesUsed),
		zap.Bool("feasible", result.Feasible),
		zap.Duration("took", time.Since(started)),
	)

	machineIDs := make(models.StringList, 0, len(machines))
	for _, m := range machines {
		machineIDs = append(machineIDs, m.ID)
	}
	now := s.now()
	plan := &models.StoredPlan{
		ID:          uuid.New().String(),
		PackageID:   pkg.ID,
		PackageName: pkg.Name,
		Demand:      req.Demand,
		TimeBudget:  req.TimeBudget,
		MachineIDs:  machineIDs,
		Result:      models.PlanResultJSON{PlanResult: *result},
		Feasible:    result.Feasible,
		IsActive:    true,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.planning.ResultTTL),
	}

	if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, fmt.Errorf("save distribution: %w", err)
	}
	s.cachePlan(ctx, plan)
	s.events.PublishPlanCreated(ctx, plan)

	s.log.Info("✅ distribution saved", zap.String("id", plan.ID), zap.Time("expires_at", plan.ExpiresAt))
	return plan, nil
}

// Get сначала Redis, затем PostgreSQL. Истекшие и удаленные раскладки не отдаются
func (s *DistributionService) Get(ctx context.Context, id string) (*models.StoredPlan, error) {
	now := s.now()

	if s.cache != nil {
		var cached models.StoredPlan
		found, err := s.cache.GetJSON(ctx, cacheKey(id), &cached)
		if err != nil {
			s.log.Warn("⚠️ Redis недоступен, читаем из PostgreSQL", zap.String("id", id), zap.Error(err))
		} else if found && cached.IsActive && !cached.Expired(now) {
			return &cached, nil
		}
	}

	var plan models.StoredPlan
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("distribution %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get distribution %s: %w", id, err)
	}
	if plan.Expired(now) {
		return nil, fmt.Errorf("distribution %s expired at %s: %w", id, plan.ExpiresAt.Format(time.RFC3339), ErrNotFound)
	}

	s.cachePlan(ctx, &plan)
	return &plan, nil
}

// List активные неистекшие раскладки, новые первыми
func (s *DistributionService) List(ctx context.Context) ([]models.StoredPlan, error) {
	var plans []models.StoredPlan
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND expires_at > ?", true, s.now()).
		Order("created_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("list distributions: %w", err)
	}
	return plans, nil
}

// Delete деактивирует раскладку
func (s *DistributionService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&models.StoredPlan{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("delete distribution %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("distribution %s: %w", id, ErrNotFound)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
			s.log.Warn("⚠️ failed to drop cached distribution", zap.String("id", id), zap.Error(err))
		}
	}
	s.log.Info("📋 distribution deactivated", zap.String("id", id))
	return nil
}

// DeactivateExpired снимает флаг активности с истекших раскладок (cron)
func (s *DistributionService) DeactivateExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.StoredPlan{}).
		Where("is_active = ? AND expires_at <= ?", true, s.now()).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("deactivate expired distributions: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.log.Info("📋 expired distributions deactivated", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func (s *DistributionService) cachePlan(ctx context.Context, plan *models.StoredPlan) {
	if s.cache == nil {
		return
	}
	ttl := plan.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, cacheKey(plan.ID), plan, ttl); err != nil {
		s.log.Warn("⚠️ failed to cache distribution", zap.String("id", plan.ID), zap.Error(err))
	}
}
