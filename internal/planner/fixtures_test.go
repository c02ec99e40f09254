package planner

import (
	"fmt"

	"pressplan/server/internal/models"
)

func uniformTemplate(n int) models.StationTemplate {
	slots := make(models.StationSlots, 0, n)
	for i := 1; i <= n; i++ {
		slots = append(slots, models.StationSlot{StationID: fmt.Sprint(i), Type: models.StationTypeA})
	}
	return models.StationTemplate{ID: 1, MachineType: "TEST", Slots: slots}
}

func testMachine(id string, tmpl models.StationTemplate) models.MachineCapability {
	return models.MachineCapability{
		ID:         id,
		Name:       "press-" + id,
		TemplateID: tmpl.ID,
		Template:   tmpl,
		IsActive:   true,
	}
}

func fleet(n int, tmpl models.StationTemplate) []models.MachineCapability {
	machines := make([]models.MachineCapability, 0, n)
	for i := 1; i <= n; i++ {
		machines = append(machines, testMachine(fmt.Sprintf("m%d", i), tmpl))
	}
	return machines
}

// testPart деталь 1.5 мм на листе 1000x2000; инструменты стоят на станциях 1..n по порядку
func testPart(id string, qty int, uph float64, tools ...string) models.PartRequirement {
	uses := make([]models.ToolUse, 0, len(tools))
	for i, tn := range tools {
		uses = append(uses, models.ToolUse{ToolNumber: tn, OriginStationID: fmt.Sprint(i + 1)})
	}
	return models.PartRequirement{
		ID:         id,
		PartNumber: "PN-" + id,
		Quantity:   qty,
		UPH:        uph,
		Thickness:  1.5,
		SheetX:     1000,
		SheetY:     2000,
		Tools:      uses,
	}
}

func ptrs(parts ...models.PartRequirement) []*models.PartRequirement {
	out := make([]*models.PartRequirement, len(parts))
	for i := range parts {
		out[i] = &parts[i]
	}
	return out
}
