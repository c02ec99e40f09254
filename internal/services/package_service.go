package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressplan/server/internal/models"
)

// PackageService изделия и их состав (setup-данные уже разобраны снаружи)
type PackageService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewPackageService создает сервис изделий
func NewPackageService(db *gorm.DB, log *zap.Logger) *PackageService {
	return &PackageService{db: db, log: log}
}

// Create сохраняет изделие вместе с деталями
func (s *PackageService) Create(ctx context.Context, pkg *models.Package) error {
	if strings.TrimSpace(pkg.Name) == "" {
		return fmt.Errorf("%w: package name is required", ErrInvalidRequest)
	}
	seen := make(map[string]struct{}, len(pkg.Parts))
	for _, part := range pkg.Parts {
		if part.Filename == "" {
			return fmt.Errorf("%w: every part needs a filename", ErrInvalidRequest)
		}
		if _, dup := seen[part.Filename]; dup {
			return fmt.Errorf("%w: part %s listed twice", ErrInvalidRequest, part.Filename)
		}
		seen[part.Filename] = struct{}{}
	}

	if err := s.db.WithContext(ctx).Create(pkg).Error; err != nil {
		return fmt.Errorf("create package %s: %w", pkg.Name, err)
	}
	s.log.Info("✅ package created", zap.Uint("id", pkg.ID), zap.String("name", pkg.Name), zap.Int("parts", len(pkg.Parts)))
	return nil
}

// Get изделие с деталями
func (s *PackageService) Get(ctx context.Context, id uint) (*models.Package, error) {
	var pkg models.Package
	err := s.db.WithContext(ctx).Preload("Parts").First(&pkg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("package %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get package %d: %w", id, err)
	}
	return &pkg, nil
}
