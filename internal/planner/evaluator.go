package planner

import (
	"fmt"

	"github.com/shopspring/decimal"

	"pressplan/server/internal/models"
)

// Evaluation итог проверки плана
type Evaluation struct {
	Feasible bool
	Alerts   []string
	Errors   []string
	Stats    models.PlanStats
}

// Evaluate проверяет готовый план по жестким и мягким правилам и считает статистику.
// Ошибки машины дублируются в MachinePlan.Errors, предупреждения в MachinePlan.Alerts.
func Evaluate(result *models.PlanResult, requirements []models.PartRequirement, timeBudget float64) Evaluation {
	ev := Evaluation{Feasible: true}

	if len(result.Machines) == 0 {
		ev.Feasible = false
		ev.Errors = append(ev.Errors, "no machines were assigned")
	}

	for _, req := range requirements {
		allocated := result.AllocatedQuantity(req.ID)
		switch {
		case allocated < req.Quantity:
			ev.Feasible = false
			ev.Errors = append(ev.Errors, fmt.Sprintf("part %s: %d of %d pcs allocated, %d missing",
				req.Label(), allocated, req.Quantity, req.Quantity-allocated))
		case allocated > req.Quantity:
			ev.Feasible = false
			ev.Errors = append(ev.Errors, fmt.Sprintf("part %s: %d pcs allocated, only %d required",
				req.Label(), allocated, req.Quantity))
		}
	}

	total := decimal.Zero
	for i := range result.Machines {
		m := &result.Machines[i]
		total = total.Add(decimal.NewFromFloat(m.HoursUsed))

		if m.HoursUsed > timeBudget+hoursEpsilon {
			msg := fmt.Sprintf("machine %s: %.2fh used exceeds the %.2fh budget", m.MachineName, m.HoursUsed, timeBudget)
			m.Errors = append(m.Errors, msg)
			ev.Errors = append(ev.Errors, msg)
			ev.Feasible = false
		}

		overflow := len(m.Layout.Overflow)
		switch {
		case overflow > overflowTolerance:
			msg := fmt.Sprintf("machine %s: %d tools without a station (%d tools for %d stations), over the tolerance of %d",
				m.MachineName, overflow, m.Layout.ToolCount(), m.Layout.TemplateStations, overflowTolerance)
			m.Errors = append(m.Errors, msg)
			ev.Errors = append(ev.Errors, msg)
			ev.Feasible = false
		case overflow > 0:
			msg := fmt.Sprintf("machine %s: %d tools in overflow", m.MachineName, overflow)
			m.Alerts = append(m.Alerts, msg)
			ev.Alerts = append(ev.Alerts, msg)
		}

		if m.HoursUsed < timeBudget*lowUtilizationRatio {
			msg := fmt.Sprintf("machine %s: low utilization (%.1f%% of the time budget)", m.MachineName, m.Utilization()*100)
			m.Alerts = append(m.Alerts, msg)
			ev.Alerts = append(ev.Alerts, msg)
		}
	}

	ev.Stats = computeStats(result, total, timeBudget)
	return ev
}

func computeStats(result *models.PlanResult, total decimal.Decimal, timeBudget float64) models.PlanStats {
	stats := models.PlanStats{
		MachinesUsed: len(result.Machines),
		TimeBudget:   timeBudget,
	}
	stats.TotalHours, _ = total.Round(2).Float64()

	if stats.MachinesUsed > 0 && timeBudget > 0 {
		capacity := decimal.NewFromFloat(timeBudget).Mul(decimal.NewFromInt(int64(stats.MachinesUsed)))
		stats.AverageEfficiency, _ = total.Div(capacity).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	}

	parts := make(map[string]struct{})
	split := make(map[string]struct{})
	for _, m := range result.Machines {
		for _, a := range m.Allocations {
			parts[a.PartID] = struct{}{}
			stats.Allocations++
			if a.IsSplit {
				split[a.PartID] = struct{}{}
			}
		}
	}
	stats.DistinctParts = len(parts)
	stats.SplitParts = len(split)
	return stats
}
