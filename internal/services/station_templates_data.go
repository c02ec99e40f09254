package services

import (
	"strconv"

	"pressplan/server/internal/models"
)

// slotGroup станции одного типа в шаблоне
type slotGroup struct {
	stationType models.StationType
	stations    []int
	guided      bool  // признак направляющей для всей группы
	unguided    []int // исключения: станции без направляющей
	autoindex   []int
}

type templateDef struct {
	machineType    string
	autoindexCount int
	groups         []slotGroup
}

// Справочные раскладки револьверных головок. Станция, повторно указанная в более
// поздней группе, получает ее тип (позиция в шаблоне сохраняется).
var templateDefs = []templateDef{
	{
		machineType:    "4I",
		autoindexCount: 4,
		groups: []slotGroup{
			{stationType: models.StationTypeA, guided: true,
				stations: []int{103, 204, 305, 112, 213, 314, 117, 218, 319, 126, 227, 328, 132, 233, 334, 141, 242, 343, 146, 247, 348, 155, 256, 357},
				unguided: []int{202, 213, 218, 227, 233, 242, 247, 258}},
			{stationType: models.StationTypeB,
				stations:  []int{201, 106, 307, 108, 309, 110, 311, 120, 321, 122, 323, 124, 325, 230, 135, 336, 137, 338, 139, 340, 149, 350, 151, 352, 153, 354},
				autoindex: []int{201, 230}},
			{stationType: models.StationTypeC, guided: true, stations: []int{202, 216, 231, 245}},
			{stationType: models.StationTypeD, guided: true, stations: []int{229, 258}},
			{stationType: models.StationTypeE, guided: true, stations: []int{115, 144}, autoindex: []int{115, 144}},
		},
	},
	{
		machineType:    "2I",
		autoindexCount: 2,
		groups: []slotGroup{
			{stationType: models.StationTypeA, guided: true,
				stations: []int{102, 203, 304, 107, 208, 309, 111, 212, 313, 116, 217, 318, 129, 230, 331, 134, 235, 336, 138, 239, 143, 244, 345, 147, 248, 349, 152, 253, 354, 165, 266, 367, 170, 271, 372},
				unguided: []int{102, 203, 107, 208, 111, 212, 116, 217, 129, 230, 134, 138, 239, 143, 244, 147, 248, 152, 253, 170}},
			{stationType: models.StationTypeB,
				stations:  []int{105, 306, 114, 315, 220, 132, 333, 141, 342, 150, 351, 168, 369},
				autoindex: []int{220, 256}},
			{stationType: models.StationTypeC, guided: true, stations: []int{210, 228, 246, 264}},
			{stationType: models.StationTypeD, guided: true, stations: []int{219, 255}},
			{stationType: models.StationTypeE, guided: true, stations: []int{201, 237}},
		},
	},
	{
		machineType:    "45STA",
		autoindexCount: 4,
		groups: []slotGroup{
			{stationType: models.StationTypeA, guided: true,
				stations: []int{107, 208, 309, 112, 213, 314, 116, 217, 318, 121, 222, 323, 128, 229, 330, 133, 234, 335, 137, 238, 339, 142, 243, 344},
				unguided: []int{208, 213, 217, 222, 229, 234, 238, 243}},
			{stationType: models.StationTypeB,
				stations:  []int{102, 303, 104, 305, 110, 311, 119, 320, 131, 332, 141, 341},
				autoindex: []int{215, 236}},
			{stationType: models.StationTypeC, guided: true,
				stations:  []int{201, 206, 225, 226, 236},
				autoindex: []int{201, 225, 236}},
			{stationType: models.StationTypeD, guided: true, stations: []int{227}},
			{stationType: models.StationTypeE, guided: true, stations: []int{224, 245}},
		},
	},
}

func (s templateDef) build() models.StationTemplate {
	slots := make(models.StationSlots, 0)
	index := make(map[string]int)

	for _, g := range s.groups {
		for _, station := range g.stations {
			slot := models.StationSlot{
				StationID:   strconv.Itoa(station),
				Type:        g.stationType,
				HasGuide:    g.guided && !containsInt(g.unguided, station),
				IsAutoindex: containsInt(g.autoindex, station),
			}
			if i, ok := index[slot.StationID]; ok {
				slots[i] = slot
				continue
			}
			index[slot.StationID] = len(slots)
			slots = append(slots, slot)
		}
	}

	return models.StationTemplate{
		MachineType:   s.machineType,
		AutoindexSize: s.autoindexCount,
		Slots:         slots,
	}
}

// DefaultStationTemplates шаблоны 4I, 2I и 45STA
func DefaultStationTemplates() []models.StationTemplate {
	templates := make([]models.StationTemplate, 0, len(templateDefs))
	for _, def := range templateDefs {
		templates = append(templates, def.build())
	}
	return templates
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
