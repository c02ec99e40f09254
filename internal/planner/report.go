package planner

import (
	"fmt"
	"strings"

	"pressplan/server/internal/models"
)

// RenderText текстовый отчет по плану: машины, детали, загрузка, совместимость
func RenderText(result *models.PlanResult) string {
	var b strings.Builder

	status := "FEASIBLE"
	if !result.Feasible {
		status = "NOT FEASIBLE"
	}
	fmt.Fprintf(&b, "PRODUCTION PLAN: %s\n", status)
	fmt.Fprintf(&b, "machines: %d, total hours: %.2f, average efficiency: %.1f%%\n",
		result.Stats.MachinesUsed, result.Stats.TotalHours, result.Stats.AverageEfficiency)

	for i := range result.Machines {
		m := &result.Machines[i]

		fmt.Fprintf(&b, "\nMACHINE %d: %s (%s)\n", m.Sequence, m.MachineName, m.MachineType)
		fmt.Fprintf(&b, "  hours: %.2f / %.2f (%.1f%%), remaining %.2f\n",
			m.HoursUsed, m.HoursAvailable, m.Utilization()*100, m.HoursRemaining)
		fmt.Fprintf(&b, "  tools: %d placed, %d overflow, %d stations usable\n",
			len(m.Layout.Placed), len(m.Layout.Overflow), m.Layout.UsableStations)
		fmt.Fprintf(&b, "  average compatibility: %.1f\n", m.AverageCompatibility)

		for _, a := range m.Allocations {
			marker := ""
			if a.IsSplit {
				marker = fmt.Sprintf(" [split of %d]", a.OriginalQuantity)
			}
			fmt.Fprintf(&b, "  - %s: %d pcs, %.2fh, %d tools%s\n", labelOf(a), a.Quantity, a.Hours, a.ToolCount, marker)
		}
		for _, msg := range m.Errors {
			fmt.Fprintf(&b, "  ERROR: %s\n", msg)
		}
	}

	if len(result.Errors) > 0 {
		b.WriteString("\nERRORS\n")
		for _, msg := range result.Errors {
			fmt.Fprintf(&b, "  - %s\n", msg)
		}
	}
	if len(result.Alerts) > 0 {
		b.WriteString("\nALERTS\n")
		for _, msg := range result.Alerts {
			fmt.Fprintf(&b, "  - %s\n", msg)
		}
	}
	return b.String()
}

func labelOf(a models.PartAllocation) string {
	if a.PartNumber != "" {
		return a.PartNumber
	}
	return a.PartID
}
