package planner

import "pressplan/server/internal/models"

const (
	scoreThickness = 30
	scoreSheet     = 30
	scoreToolShare = 40
)

// CompatibilityScore оценка совместимости двух деталей (0–100)
func CompatibilityScore(a, b *models.PartRequirement) int {
	score := 0
	if a.Thickness == b.Thickness {
		score += scoreThickness
	}
	if a.SameSheet(b) {
		score += scoreSheet
	}
	if sharesTool(a, b) {
		score += scoreToolShare
	}
	return score
}

func sharesTool(a, b *models.PartRequirement) bool {
	if len(a.Tools) == 0 || len(b.Tools) == 0 {
		return false
	}
	numbers := make(map[string]struct{}, len(a.Tools))
	for _, t := range a.Tools {
		numbers[t.ToolNumber] = struct{}{}
	}
	for _, t := range b.Tools {
		if _, ok := numbers[t.ToolNumber]; ok {
			return true
		}
	}
	return false
}

// DistinctToolCount количество уникальных номеров инструментов у набора деталей
func DistinctToolCount(parts []*models.PartRequirement) int {
	numbers := make(map[string]struct{})
	for _, p := range parts {
		for _, t := range p.Tools {
			numbers[t.ToolNumber] = struct{}{}
		}
	}
	return len(numbers)
}

// AverageCompatibility средний попарный score группы (100 для одной детали)
func AverageCompatibility(parts []*models.PartRequirement) float64 {
	if len(parts) <= 1 {
		return 100
	}
	total, pairs := 0, 0
	for i := 0; i < len(parts); i++ {
		for j := i + 1; j < len(parts); j++ {
			total += CompatibilityScore(parts[i], parts[j])
			pairs++
		}
	}
	return float64(total) / float64(pairs)
}

// leastCompatibleIndex индекс детали с наименьшей средней совместимостью с остальными.
// При равенстве выигрывает первая.
func leastCompatibleIndex(parts []*models.PartRequirement) int {
	if len(parts) <= 1 {
		return 0
	}
	worst, worstAvg := 0, 0.0
	for i, p := range parts {
		sum := 0
		for j, other := range parts {
			if i == j {
				continue
			}
			sum += CompatibilityScore(p, other)
		}
		avg := float64(sum) / float64(len(parts)-1)
		if i == 0 || avg < worstAvg {
			worst, worstAvg = i, avg
		}
	}
	return worst
}

// CompatibleMachines жесткие правила: активная машина, которая принимает толщину и лист
// каждой детали. Порядок парка сохраняется.
func CompatibleMachines(parts []models.PartRequirement, machines []models.MachineCapability) []models.MachineCapability {
	compatible := make([]models.MachineCapability, 0, len(machines))
	for _, m := range machines {
		if !m.IsActive {
			continue
		}
		ok := true
		for _, p := range parts {
			if !m.AcceptsThickness(p.Thickness) || !m.AcceptsSheet(p.SheetX, p.SheetY) {
				ok = false
				break
			}
		}
		if ok {
			compatible = append(compatible, m)
		}
	}
	return compatible
}
