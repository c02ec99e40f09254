package planner

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressplan/server/internal/models"
)

func TestPlan_SharedToolsGroupOntoOneMachine(t *testing.T) {
	parts := []models.PartRequirement{
		testPart("p1", 10, 10, "T1", "T2"),
		testPart("p2", 20, 10, "T1", "T2"),
	}

	res, err := Plan(parts, fleet(3, uniformTemplate(10)), DefaultOptions(8))
	require.NoError(t, err)
	assert.True(t, res.Feasible, res.Errors)
	require.Len(t, res.Machines, 1)

	m := res.Machines[0]
	assert.Len(t, m.Allocations, 2)
	assert.Len(t, m.Tools, 2, "union of tool numbers, not the sum")
	for _, tool := range m.Tools {
		assert.ElementsMatch(t, []string{"p1", "p2"}, tool.ConsumerParts)
	}
	assert.InDelta(t, 3.0, m.HoursUsed, 1e-9)
	assert.InDelta(t, 5.0, m.HoursRemaining, 1e-9)
}

func TestPlan_SplitsPartOverBudget(t *testing.T) {
	parts := []models.PartRequirement{testPart("big", 150, 10, "T1")}

	res, err := Plan(parts, fleet(2, uniformTemplate(10)), DefaultOptions(8))
	require.NoError(t, err)
	assert.True(t, res.Feasible, res.Errors)
	require.Len(t, res.Machines, 2)

	assert.Equal(t, 2, res.AllocationCount("big"))
	assert.Equal(t, 150, res.AllocatedQuantity("big"))
	for _, m := range res.Machines {
		assert.LessOrEqual(t, m.HoursUsed, 8.0+hoursEpsilon)
	}
	assert.Equal(t, 1, res.Stats.SplitParts)
}

func TestPlan_OverflowBeyondToleranceIsInfeasible(t *testing.T) {
	tools := make([]string, 25)
	for i := range tools {
		tools[i] = fmt.Sprintf("T%02d", i+1)
	}
	parts := []models.PartRequirement{testPart("p", 40, 10, tools...)}

	res, err := Plan(parts, fleet(1, uniformTemplate(10)), DefaultOptions(8))
	require.NoError(t, err)
	assert.False(t, res.Feasible)

	m := res.Machines[0]
	assert.Len(t, m.Layout.Placed, 10)
	assert.Len(t, m.Layout.Overflow, 15)

	found := false
	for _, msg := range res.Errors {
		if strings.Contains(msg, "press-m1") && strings.Contains(msg, "15 tools") {
			found = true
		}
	}
	assert.True(t, found, res.Errors)
}

func TestPlan_NoCompatibleMachines(t *testing.T) {
	machines := fleet(2, uniformTemplate(10))
	for i := range machines {
		machines[i].ThicknessMin, machines[i].ThicknessMax = 3, 5
	}
	parts := []models.PartRequirement{testPart("p", 10, 10, "T1")}

	res, err := Plan(parts, machines, DefaultOptions(8))
	require.NoError(t, err)
	assert.False(t, res.Feasible)
	assert.Empty(t, res.Machines)
	assert.Equal(t, []string{NoCompatibleMachinesError}, res.Errors)
}

func TestPlan_AutoindexToolSharedByTwoParts(t *testing.T) {
	p1 := testPart("p1", 10, 10)
	p1.Tools = []models.ToolUse{
		{ToolNumber: "AX", OriginStationID: "1"},
		{ToolNumber: "T1", OriginStationID: "2"},
	}
	p2 := testPart("p2", 10, 10)
	p2.Tools = []models.ToolUse{{ToolNumber: "AX", OriginStationID: "1"}}

	res, err := Plan([]models.PartRequirement{p1, p2}, fleet(1, autoindexTemplate()), DefaultOptions(8))
	require.NoError(t, err)
	require.Len(t, res.Machines, 1)

	var ax []models.UnifiedTool
	for _, tool := range res.Machines[0].Tools {
		if tool.ToolNumber == "AX" {
			ax = append(ax, tool)
		}
	}
	require.Len(t, ax, 1)
	assert.True(t, ax[0].IsAutoindex)
	assert.Equal(t, "1", ax[0].AssignedStationID)
	assert.Equal(t, ax[0].OriginStationID, ax[0].AssignedStationID)
	assert.Equal(t, []string{"p1", "p2"}, ax[0].ConsumerParts)
}

func TestPlan_ValidationErrors(t *testing.T) {
	machines := fleet(1, uniformTemplate(4))
	good := testPart("p", 10, 10, "T1")

	zeroUPH := good
	zeroUPH.UPH = 0
	noTools := testPart("p", 10, 10)
	noSheet := good
	noSheet.SheetY = 0

	inactive := fleet(1, uniformTemplate(4))
	inactive[0].IsActive = false

	cases := []struct {
		name     string
		parts    []models.PartRequirement
		machines []models.MachineCapability
		budget   float64
	}{
		{"no parts", nil, machines, 8},
		{"zero uph", []models.PartRequirement{zeroUPH}, machines, 8},
		{"no tools", []models.PartRequirement{noTools}, machines, 8},
		{"no sheet", []models.PartRequirement{noSheet}, machines, 8},
		{"duplicate id", []models.PartRequirement{good, good}, machines, 8},
		{"no machines", []models.PartRequirement{good}, nil, 8},
		{"no active machines", []models.PartRequirement{good}, inactive, 8},
		{"zero budget", []models.PartRequirement{good}, machines, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Plan(tc.parts, tc.machines, DefaultOptions(tc.budget))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), err.Error())
		})
	}
}

func TestPlan_ThresholdBounds(t *testing.T) {
	parts := []models.PartRequirement{testPart("p", 10, 10, "T1")}
	machines := fleet(1, uniformTemplate(4))

	for _, threshold := range []int{-1, 101} {
		opts := DefaultOptions(8)
		opts.Threshold = threshold
		_, err := Plan(parts, machines, opts)
		assert.True(t, errors.Is(err, ErrValidation), "threshold %d", threshold)
	}

	opts := DefaultOptions(8)
	opts.Threshold = 0
	res, err := Plan(parts, machines, opts)
	require.NoError(t, err)
	assert.True(t, res.Feasible)
}

func TestPlan_CapacityExceededIsFatal(t *testing.T) {
	parts := []models.PartRequirement{testPart("big", 250, 10, "T1")}
	res, err := Plan(parts, fleet(5, uniformTemplate(4)), DefaultOptions(8))
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
}

func TestPlan_ResultConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := []string{"T1", "T2", "T3", "T4", "T5", "T6", "T7", "T8", "T9", "T10", "101", "102"}

	for run := 0; run < 20; run++ {
		parts := make([]models.PartRequirement, 0, 10)
		for i := 0; i < 10; i++ {
			n := 1 + rng.Intn(5)
			tools := make([]string, 0, n)
			for j := 0; j < n; j++ {
				tools = append(tools, pool[rng.Intn(len(pool))])
			}
			uph := float64(5 + rng.Intn(20))
			qty := 1 + rng.Intn(int(uph*4)) // не больше 4h на деталь
			p := testPart(fmt.Sprintf("p%d", i), qty, uph, tools...)
			p.Thickness = []float64{1.0, 1.5}[rng.Intn(2)]
			parts = append(parts, p)
		}

		res, err := Plan(parts, fleet(20, uniformTemplate(20)), DefaultOptions(8))
		require.NoError(t, err, "run %d", run)

		for _, m := range res.Machines {
			assert.LessOrEqual(t, m.HoursUsed, 8.0+hoursEpsilon, "run %d machine %s", run, m.MachineName)

			stations := map[string]bool{}
			for _, tool := range m.Layout.Placed {
				assert.False(t, stations[tool.AssignedStationID], "run %d: station %s used twice", run, tool.AssignedStationID)
				stations[tool.AssignedStationID] = true
				if tool.IsAutoindex {
					assert.Equal(t, tool.OriginStationID, tool.AssignedStationID)
				}
			}
		}
		for _, p := range parts {
			assert.LessOrEqual(t, res.AllocationCount(p.ID), 2, "run %d part %s", run, p.ID)
			assert.LessOrEqual(t, res.AllocatedQuantity(p.ID), p.Quantity)
			if res.Feasible {
				assert.Equal(t, p.Quantity, res.AllocatedQuantity(p.ID))
			}
		}
	}
}

func TestRenderText(t *testing.T) {
	parts := []models.PartRequirement{testPart("big", 150, 10, "T1")}
	res, err := Plan(parts, fleet(2, uniformTemplate(10)), DefaultOptions(8))
	require.NoError(t, err)

	text := RenderText(res)
	assert.Contains(t, text, "PRODUCTION PLAN: FEASIBLE")
	assert.Contains(t, text, "MACHINE 1: press-m1")
	assert.Contains(t, text, "[split of 150]")
}
