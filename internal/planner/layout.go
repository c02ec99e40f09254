package planner

import (
	"fmt"

	"pressplan/server/internal/models"
)

// Layout объединяет повторяющиеся инструменты деталей машины и раскладывает
// их по станциям шаблона.
//
// Возвращает раскладку, список инструментов с назначенными станциями и
// предупреждения. Overflow здесь не ошибка: его оценивает Evaluate.
func Layout(allocations []models.PartAllocation, machine models.MachineCapability, opts Options) (models.StationLayout, []models.UnifiedTool, []string) {
	usable := machine.UsableSlots()
	tools, alerts := unifyTools(allocations, usable, machine.Name)

	layout := models.StationLayout{
		TemplateStations: machine.Template.StationCount(),
		UsableStations:   len(usable),
	}
	occupied := make(map[string]bool, len(usable))

	// автоиндексные держатели не переносятся
	for i := range tools {
		t := &tools[i]
		if !t.IsAutoindex {
			continue
		}
		if occupied[t.OriginStationID] {
			alerts = append(alerts, fmt.Sprintf("machine %s: autoindex station %s already holds another tool; tool %s moved to overflow",
				machine.Name, t.OriginStationID, t.ToolNumber))
			layout.Overflow = append(layout.Overflow, *t)
			continue
		}
		t.AssignedStationID = t.OriginStationID
		occupied[t.OriginStationID] = true
		layout.Placed = append(layout.Placed, *t)
	}

	for i := range tools {
		t := &tools[i]
		if t.IsAutoindex {
			continue
		}
		station, ok := firstFit(t, usable, occupied, opts.RoundToolsFlexible)
		if !ok {
			layout.Overflow = append(layout.Overflow, *t)
			continue
		}
		t.AssignedStationID = station
		occupied[station] = true
		layout.Placed = append(layout.Placed, *t)
	}

	return layout, tools, alerts
}

// unifyTools один UnifiedTool на номер инструмента; параметры берутся из станции
// первого появления
func unifyTools(allocations []models.PartAllocation, usable []models.StationSlot, machineName string) ([]models.UnifiedTool, []string) {
	slots := make(map[string]models.StationSlot, len(usable))
	for _, s := range usable {
		slots[s.StationID] = s
	}

	var alerts []string
	tools := make([]models.UnifiedTool, 0)
	index := make(map[string]int)

	for _, alloc := range allocations {
		if alloc.Part == nil {
			continue
		}
		for _, use := range alloc.Part.Tools {
			slot, known := slots[use.OriginStationID]

			idx, seen := index[use.ToolNumber]
			if !seen {
				tool := models.UnifiedTool{
					ToolNumber:      use.ToolNumber,
					Angle:           use.Angle,
					StationType:     models.StationTypeA,
					OriginStationID: use.OriginStationID,
				}
				if known {
					tool.StationType = slot.Type
					tool.RequiresGuide = slot.HasGuide
					tool.IsAutoindex = slot.IsAutoindex
				} else {
					alerts = append(alerts, fmt.Sprintf("machine %s: station %s of tool %s is unknown or damaged; defaulting to type A without guide",
						machineName, use.OriginStationID, use.ToolNumber))
				}
				index[use.ToolNumber] = len(tools)
				tools = append(tools, tool)
				idx = len(tools) - 1
			} else if known && slot.IsAutoindex {
				t := &tools[idx]
				switch {
				case !t.IsAutoindex:
					t.IsAutoindex = true
					t.OriginStationID = use.OriginStationID
					t.StationType = slot.Type
					t.RequiresGuide = slot.HasGuide
				case t.OriginStationID != use.OriginStationID:
					alerts = append(alerts, fmt.Sprintf("machine %s: tool %s is autoindex on stations %s and %s; keeping %s",
						machineName, use.ToolNumber, t.OriginStationID, use.OriginStationID, t.OriginStationID))
				}
			}

			t := &tools[idx]
			t.Uses++
			if !t.HasConsumer(alloc.PartID) {
				t.ConsumerParts = append(t.ConsumerParts, alloc.PartID)
			}
		}
	}
	return tools, alerts
}

// firstFit первая свободная станция того же типа и с тем же признаком направляющей
func firstFit(t *models.UnifiedTool, usable []models.StationSlot, occupied map[string]bool, roundFlexible bool) (string, bool) {
	ignoreGuide := roundFlexible && models.IsRoundTool(t.ToolNumber)
	for _, slot := range usable {
		if occupied[slot.StationID] || slot.Type != t.StationType {
			continue
		}
		if !ignoreGuide && slot.HasGuide != t.RequiresGuide {
			continue
		}
		return slot.StationID, true
	}
	return "", false
}
