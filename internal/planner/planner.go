package planner

import (
	"fmt"

	"pressplan/server/internal/models"
)

// Plan строит план производства и раскладки инструментов.
//
// Порядок: фильтр машин по жестким правилам, группировка по совместимости,
// распределение с учетом бюджета времени, раскладка станций и итоговая проверка.
// Если ни одна машина не подходит, возвращается план с Feasible=false и
// единственной ошибкой NoCompatibleMachinesError. Фатальные условия возвращаются
// ошибкой (ErrValidation, ErrCapacityExceeded, ErrMachineCeiling), частичный план
// при этом не отдается.
func Plan(parts []models.PartRequirement, machines []models.MachineCapability, opts Options) (*models.PlanResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	if err := validateInput(parts, machines); err != nil {
		return nil, err
	}

	compatible := CompatibleMachines(parts, machines)
	if len(compatible) == 0 {
		return &models.PlanResult{
			Machines: []models.MachinePlan{},
			Feasible: false,
			Errors:   []string{NoCompatibleMachinesError},
			Stats:    models.PlanStats{TimeBudget: opts.TimeBudget},
		}, nil
	}

	requirements := make([]*models.PartRequirement, len(parts))
	for i := range parts {
		requirements[i] = &parts[i]
	}

	groups := Group(requirements, opts.Threshold, opts.StationCeiling)
	assignment, err := Assign(groups, len(compatible), opts, NewSplitCounter(opts.MaxSplitsPerPart))
	if err != nil {
		return nil, err
	}

	result := &models.PlanResult{
		Machines: make([]models.MachinePlan, 0, len(assignment.Machines)),
		Alerts:   append([]string{}, assignment.Alerts...),
	}

	for _, load := range assignment.Machines {
		machine := compatible[load.Sequence-1]
		layout, tools, alerts := Layout(load.Allocations, machine, opts)

		mp := models.MachinePlan{
			Sequence:       load.Sequence,
			MachineID:      machine.ID,
			MachineName:    machine.Name,
			MachineType:    machine.Template.MachineType,
			Allocations:    load.Allocations,
			Tools:          tools,
			Layout:         layout,
			HoursUsed:      load.Hours,
			HoursAvailable: opts.TimeBudget,
			HoursRemaining: opts.TimeBudget - load.Hours,
			Alerts:         alerts,

			AverageCompatibility: AverageCompatibility(allocatedParts(load.Allocations)),
		}
		result.Alerts = append(result.Alerts, alerts...)
		result.Machines = append(result.Machines, mp)
	}

	ev := Evaluate(result, parts, opts.TimeBudget)
	result.Feasible = ev.Feasible
	result.Alerts = append(result.Alerts, ev.Alerts...)
	result.Errors = ev.Errors
	result.Stats = ev.Stats
	return result, nil
}

// allocatedParts уникальные детали машины: части одной детали считаются один раз
func allocatedParts(allocations []models.PartAllocation) []*models.PartRequirement {
	parts := make([]*models.PartRequirement, 0, len(allocations))
	seen := make(map[string]struct{}, len(allocations))
	for _, a := range allocations {
		if a.Part == nil {
			continue
		}
		if _, ok := seen[a.PartID]; ok {
			continue
		}
		seen[a.PartID] = struct{}{}
		parts = append(parts, a.Part)
	}
	return parts
}

func validateInput(parts []models.PartRequirement, machines []models.MachineCapability) error {
	if len(parts) == 0 {
		return fmt.Errorf("%w: no parts to plan", ErrValidation)
	}
	seen := make(map[string]struct{}, len(parts))
	for i := range parts {
		p := &parts[i]
		if p.ID == "" {
			return fmt.Errorf("%w: part #%d has no id", ErrValidation, i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate part id %s", ErrValidation, p.ID)
		}
		seen[p.ID] = struct{}{}

		switch {
		case p.UPH <= 0:
			return fmt.Errorf("%w: part %s has non-positive UPH %.2f", ErrValidation, p.Label(), p.UPH)
		case p.Quantity <= 0:
			return fmt.Errorf("%w: part %s has non-positive quantity %d", ErrValidation, p.Label(), p.Quantity)
		case len(p.Tools) == 0:
			return fmt.Errorf("%w: part %s has no tools", ErrValidation, p.Label())
		case p.SheetX <= 0 || p.SheetY <= 0:
			return fmt.Errorf("%w: part %s has no sheet dimensions", ErrValidation, p.Label())
		}
	}

	if len(machines) == 0 {
		return fmt.Errorf("%w: no machines supplied", ErrValidation)
	}
	for _, m := range machines {
		if m.IsActive {
			return nil
		}
	}
	return fmt.Errorf("%w: none of the %d machines is active", ErrValidation, len(machines))
}
