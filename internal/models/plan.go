package models

// PartAllocation часть потребности, назначенная на конкретную машину
type PartAllocation struct {
	PartID           string  `json:"part_id"`
	PartNumber       string  `json:"part_number"`
	RequiredQuantity int     `json:"required_quantity"`
	Quantity         int     `json:"quantity"`
	UPH              float64 `json:"uph"`
	Hours            float64 `json:"hours"`
	IsSplit          bool    `json:"is_split"`
	OriginalQuantity int     `json:"original_quantity,omitempty"` // заполняется только для разделенных
	ToolCount        int     `json:"tool_count"`

	Part *PartRequirement `json:"-"`
}

// UnifiedTool один физический инструмент машины после объединения повторов
type UnifiedTool struct {
	ToolNumber        string      `json:"tool_number"`
	Angle             float64     `json:"angle"`
	RequiresGuide     bool        `json:"requires_guide"`
	IsAutoindex       bool        `json:"is_autoindex"`
	StationType       StationType `json:"station_type"`
	OriginStationID   string      `json:"origin_station_id"`
	ConsumerParts     []string    `json:"consumer_parts"`
	AssignedStationID string      `json:"assigned_station_id,omitempty"` // пусто до раскладки / в overflow
	Uses              int         `json:"uses"`
}

// HasConsumer проверяет, использует ли деталь этот инструмент
func (t *UnifiedTool) HasConsumer(partLabel string) bool {
	for _, p := range t.ConsumerParts {
		if p == partLabel {
			return true
		}
	}
	return false
}

// StationLayout раскладка инструментов по станциям одной машины
type StationLayout struct {
	Placed           []UnifiedTool `json:"placed"`
	Overflow         []UnifiedTool `json:"overflow"`
	TemplateStations int           `json:"template_stations"`
	UsableStations   int           `json:"usable_stations"`
}

// ToolCount все уникальные инструменты (размещенные + overflow)
func (l *StationLayout) ToolCount() int {
	return len(l.Placed) + len(l.Overflow)
}

// StationOf возвращает станцию инструмента
func (l *StationLayout) StationOf(toolNumber string) (string, bool) {
	for _, t := range l.Placed {
		if t.ToolNumber == toolNumber {
			return t.AssignedStationID, true
		}
	}
	return "", false
}

// MachinePlan результат планирования для одной машины
type MachinePlan struct {
	Sequence       int              `json:"sequence"`
	MachineID      string           `json:"machine_id"`
	MachineName    string           `json:"machine_name"`
	MachineType    string           `json:"machine_type"`
	Allocations    []PartAllocation `json:"allocations"`
	Tools          []UnifiedTool    `json:"tools"`
	Layout         StationLayout    `json:"layout"`
	HoursUsed      float64          `json:"hours_used"`
	HoursAvailable float64          `json:"hours_available"`
	HoursRemaining float64          `json:"hours_remaining"`
	Alerts         []string         `json:"alerts"`
	Errors         []string         `json:"errors"`

	// средний попарный score деталей машины на момент планирования
	AverageCompatibility float64 `json:"average_compatibility"`
}

// AllocatedQuantity сколько штук детали назначено на эту машину
func (m *MachinePlan) AllocatedQuantity(partID string) int {
	total := 0
	for _, a := range m.Allocations {
		if a.PartID == partID {
			total += a.Quantity
		}
	}
	return total
}

// Utilization доля использованного времени (0..1)
func (m *MachinePlan) Utilization() float64 {
	if m.HoursAvailable <= 0 {
		return 0
	}
	return m.HoursUsed / m.HoursAvailable
}

// PlanStats сводная статистика плана
type PlanStats struct {
	MachinesUsed      int     `json:"machines_used"`
	TotalHours        float64 `json:"total_hours"`
	TimeBudget        float64 `json:"time_budget"`
	AverageEfficiency float64 `json:"average_efficiency"` // проценты
	DistinctParts     int     `json:"distinct_parts"`
	Allocations       int     `json:"allocations"`
	SplitParts        int     `json:"split_parts"`
}

// PlanResult итог одного вызова планировщика
type PlanResult struct {
	Machines []MachinePlan `json:"machines"`
	Feasible bool          `json:"feasible"`
	Alerts   []string      `json:"alerts"`
	Errors   []string      `json:"errors"`
	Stats    PlanStats     `json:"stats"`
}

// Machine ищет план машины по ID
func (r *PlanResult) Machine(machineID string) (*MachinePlan, bool) {
	for i := range r.Machines {
		if r.Machines[i].MachineID == machineID {
			return &r.Machines[i], true
		}
	}
	return nil, false
}

// AllocatedQuantity сколько штук детали назначено по всему плану
func (r *PlanResult) AllocatedQuantity(partID string) int {
	total := 0
	for i := range r.Machines {
		total += r.Machines[i].AllocatedQuantity(partID)
	}
	return total
}

// AllocationCount на сколько частей разбита деталь
func (r *PlanResult) AllocationCount(partID string) int {
	count := 0
	for _, m := range r.Machines {
		for _, a := range m.Allocations {
			if a.PartID == partID {
				count++
			}
		}
	}
	return count
}
