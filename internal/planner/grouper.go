package planner

import (
	"sort"

	"pressplan/server/internal/models"
)

// Group разбивает детали на группы высокой совместимости.
//
// Детали обрабатываются по возрастанию UPH (медленные первыми, их труднее всего
// пристроить позже). Деталь добавляется в первую группу, где она набирает
// score >= threshold с каждым участником и общее число уникальных инструментов
// не превышает stationCeiling. Иначе она открывает новую группу.
func Group(parts []*models.PartRequirement, threshold, stationCeiling int) [][]*models.PartRequirement {
	ordered := make([]*models.PartRequirement, len(parts))
	copy(ordered, parts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].UPH < ordered[j].UPH
	})

	groups := make([][]*models.PartRequirement, 0, len(ordered))
	for _, part := range ordered {
		placed := false
		for gi, group := range groups {
			if !compatibleWithAll(part, group, threshold) {
				continue
			}
			candidate := append(append([]*models.PartRequirement{}, group...), part)
			if DistinctToolCount(candidate) > stationCeiling {
				continue
			}
			groups[gi] = candidate
			placed = true
			break
		}
		if !placed {
			groups = append(groups, []*models.PartRequirement{part})
		}
	}
	return groups
}

func compatibleWithAll(part *models.PartRequirement, group []*models.PartRequirement, threshold int) bool {
	for _, member := range group {
		if CompatibilityScore(part, member) < threshold {
			return false
		}
	}
	return true
}
