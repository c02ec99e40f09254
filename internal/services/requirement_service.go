package services

import (
	"fmt"
	"strings"

	"pressplan/server/internal/models"
	"pressplan/server/internal/planner"
)

// RequirementService переводит состав изделия и спрос в потребности по деталям
type RequirementService struct{}

// NewRequirementService создает калькулятор потребностей
func NewRequirementService() *RequirementService {
	return &RequirementService{}
}

// Calculate количество = штук на изделие × спрос. Данные setup-файла не
// достраиваются: деталь без UPH, инструментов или размеров листа отклоняется.
func (s *RequirementService) Calculate(pkg *models.Package, demand int) ([]models.PartRequirement, error) {
	if demand <= 0 {
		return nil, fmt.Errorf("%w: demand must be positive, got %d", planner.ErrValidation, demand)
	}
	if len(pkg.Parts) == 0 {
		return nil, fmt.Errorf("%w: package %q has no parts", planner.ErrValidation, pkg.Name)
	}

	var problems []string
	requirements := make([]models.PartRequirement, 0, len(pkg.Parts))
	for _, part := range pkg.Parts {
		setup := part.Setup
		label := part.Filename
		if setup.PartNumber != "" {
			label = setup.PartNumber
		}

		var missing []string
		if part.PerUnitCount <= 0 {
			missing = append(missing, "per-unit count")
		}
		if setup.UPH <= 0 {
			missing = append(missing, "UPH")
		}
		if len(setup.Tools) == 0 {
			missing = append(missing, "tools")
		}
		if setup.SheetX <= 0 || setup.SheetY <= 0 {
			missing = append(missing, "sheet size")
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("%s: missing %s", label, strings.Join(missing, ", ")))
			continue
		}

		requirements = append(requirements, models.PartRequirement{
			ID:         part.Filename,
			PartNumber: label,
			Quantity:   part.PerUnitCount * demand,
			UPH:        setup.UPH,
			Thickness:  setup.Thickness,
			SheetX:     setup.SheetX,
			SheetY:     setup.SheetY,
			Tools:      append([]models.ToolUse(nil), setup.Tools...),
		})
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: incomplete setup data: %s", planner.ErrValidation, strings.Join(problems, "; "))
	}
	return requirements, nil
}
