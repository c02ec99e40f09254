package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressplan/server/internal/models"
)

func allocate(parts ...models.PartRequirement) []models.PartAllocation {
	allocs := make([]models.PartAllocation, 0, len(parts))
	for i := range parts {
		p := &parts[i]
		allocs = append(allocs, models.PartAllocation{PartID: p.ID, Quantity: p.Quantity, UPH: p.UPH, Part: p})
	}
	return allocs
}

func TestLayout_UnifiesRepeatedTools(t *testing.T) {
	m := testMachine("m1", uniformTemplate(6))
	a := testPart("a", 10, 10, "T1", "T2")
	b := testPart("b", 10, 10, "T2", "T3")

	layout, tools, alerts := Layout(allocate(a, b), m, DefaultOptions(8))
	assert.Empty(t, alerts)
	require.Len(t, tools, 3)
	assert.Equal(t, 3, layout.ToolCount())
	assert.Empty(t, layout.Overflow)

	t2 := tools[1]
	assert.Equal(t, "T2", t2.ToolNumber)
	assert.Equal(t, []string{"a", "b"}, t2.ConsumerParts)
	assert.Equal(t, 2, t2.Uses)

	stations := map[string]string{}
	for _, tool := range layout.Placed {
		prev, dup := stations[tool.AssignedStationID]
		assert.False(t, dup, "station %s holds %s and %s", tool.AssignedStationID, prev, tool.ToolNumber)
		stations[tool.AssignedStationID] = tool.ToolNumber
	}
}

func TestLayout_SkipsDamagedStations(t *testing.T) {
	m := testMachine("m1", uniformTemplate(3))
	m.DamagedStations = models.StringList{"1"}
	p := testPart("p", 10, 10, "T1", "T2")

	layout, _, alerts := Layout(allocate(p), m, DefaultOptions(8))
	require.Len(t, alerts, 1, "origin station of T1 is damaged")
	assert.Equal(t, 3, layout.TemplateStations)
	assert.Equal(t, 2, layout.UsableStations)

	st, ok := layout.StationOf("T1")
	require.True(t, ok)
	assert.Equal(t, "2", st)
	st, ok = layout.StationOf("T2")
	require.True(t, ok)
	assert.Equal(t, "3", st)
}

func guidedTemplate() models.StationTemplate {
	return models.StationTemplate{ID: 2, MachineType: "G", Slots: models.StationSlots{
		{StationID: "1", Type: models.StationTypeA, HasGuide: true},
		{StationID: "2", Type: models.StationTypeA},
	}}
}

func TestLayout_StrictGuideMatching(t *testing.T) {
	m := testMachine("m1", guidedTemplate())
	p := testPart("p", 10, 10)
	p.Tools = []models.ToolUse{
		{ToolNumber: "300", OriginStationID: "1"},
		{ToolNumber: "150", OriginStationID: "1"},
	}

	layout, _, _ := Layout(allocate(p), m, DefaultOptions(8))
	require.Len(t, layout.Overflow, 1)
	assert.Equal(t, "150", layout.Overflow[0].ToolNumber)
	assert.Empty(t, layout.Overflow[0].AssignedStationID)
}

func TestLayout_RoundToolsFlexible(t *testing.T) {
	m := testMachine("m1", guidedTemplate())
	p := testPart("p", 10, 10)
	p.Tools = []models.ToolUse{
		{ToolNumber: "300", OriginStationID: "1"},
		{ToolNumber: "150", OriginStationID: "1"},
	}
	opts := DefaultOptions(8)
	opts.RoundToolsFlexible = true

	layout, _, _ := Layout(allocate(p), m, opts)
	assert.Empty(t, layout.Overflow)
	st, _ := layout.StationOf("150")
	assert.Equal(t, "2", st)
}

func autoindexTemplate() models.StationTemplate {
	slots := models.StationSlots{{StationID: "1", Type: models.StationTypeB, IsAutoindex: true}}
	for _, id := range []string{"2", "3", "4", "5"} {
		slots = append(slots, models.StationSlot{StationID: id, Type: models.StationTypeA})
	}
	return models.StationTemplate{ID: 3, MachineType: "AI", AutoindexSize: 1, Slots: slots}
}

func TestLayout_AutoindexWinsOverEarlierOccurrence(t *testing.T) {
	m := testMachine("m1", autoindexTemplate())
	a := testPart("a", 10, 10)
	a.Tools = []models.ToolUse{{ToolNumber: "AX", OriginStationID: "3"}}
	b := testPart("b", 10, 10)
	b.Tools = []models.ToolUse{{ToolNumber: "AX", OriginStationID: "1", Angle: 90}}

	layout, tools, _ := Layout(allocate(a, b), m, DefaultOptions(8))
	require.Len(t, tools, 1)
	ax := tools[0]
	assert.True(t, ax.IsAutoindex)
	assert.Equal(t, "1", ax.OriginStationID)
	assert.Equal(t, "1", ax.AssignedStationID)
	assert.Equal(t, models.StationTypeB, ax.StationType)
	assert.Equal(t, 0.0, ax.Angle, "angle comes from the first occurrence")
	assert.Empty(t, layout.Overflow)
}

func TestLayout_AutoindexStationConflictOverflows(t *testing.T) {
	m := testMachine("m1", autoindexTemplate())
	p := testPart("p", 10, 10)
	p.Tools = []models.ToolUse{
		{ToolNumber: "AX", OriginStationID: "1"},
		{ToolNumber: "AY", OriginStationID: "1"},
	}

	layout, _, alerts := Layout(allocate(p), m, DefaultOptions(8))
	require.Len(t, layout.Placed, 1)
	assert.Equal(t, "AX", layout.Placed[0].ToolNumber)
	require.Len(t, layout.Overflow, 1)
	assert.Equal(t, "AY", layout.Overflow[0].ToolNumber)
	assert.Len(t, alerts, 1)
}
