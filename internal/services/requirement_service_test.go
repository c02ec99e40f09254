package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressplan/server/internal/models"
	"pressplan/server/internal/planner"
)

func samplePackage() *models.Package {
	return &models.Package{
		ID:   1,
		Name: "TYEH cabinet",
		Parts: []models.PackagePart{
			{Filename: "TYEH-1171206_01-SW", PerUnitCount: 2, Setup: models.SetupSnapshot{
				PartNumber: "1171206-01", Thickness: 1.5, SheetX: 2000, SheetY: 1000, UPH: 40,
				Tools: []models.ToolUse{{ToolNumber: "100", OriginStationID: "103"}, {ToolNumber: "T22", OriginStationID: "201"}},
			}},
			{Filename: "TYEH-1171207_01-SW", PerUnitCount: 1, Setup: models.SetupSnapshot{
				Thickness: 1.5, SheetX: 2000, SheetY: 1000, UPH: 25,
				Tools: []models.ToolUse{{ToolNumber: "T22", OriginStationID: "201"}},
			}},
		},
	}
}

func TestRequirementService_Calculate(t *testing.T) {
	reqs, err := NewRequirementService().Calculate(samplePackage(), 150)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, "TYEH-1171206_01-SW", reqs[0].ID)
	assert.Equal(t, "1171206-01", reqs[0].PartNumber)
	assert.Equal(t, 300, reqs[0].Quantity)
	assert.Equal(t, 40.0, reqs[0].UPH)
	assert.Len(t, reqs[0].Tools, 2)

	assert.Equal(t, "TYEH-1171207_01-SW", reqs[1].PartNumber, "filename is the label without a part number")
	assert.Equal(t, 150, reqs[1].Quantity)
}

func TestRequirementService_RejectsIncompleteSetup(t *testing.T) {
	pkg := samplePackage()
	pkg.Parts[1].Setup.UPH = 0
	pkg.Parts[1].Setup.SheetY = 0

	_, err := NewRequirementService().Calculate(pkg, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, planner.ErrValidation))
	assert.Contains(t, err.Error(), "TYEH-1171207_01-SW: missing UPH, sheet size")
}

func TestRequirementService_RejectsBadDemand(t *testing.T) {
	_, err := NewRequirementService().Calculate(samplePackage(), 0)
	assert.True(t, errors.Is(err, planner.ErrValidation))

	_, err = NewRequirementService().Calculate(&models.Package{Name: "empty"}, 5)
	assert.True(t, errors.Is(err, planner.ErrValidation))
}

func TestDefaultStationTemplates(t *testing.T) {
	templates := DefaultStationTemplates()
	require.Len(t, templates, 3)

	byType := map[string]models.StationTemplate{}
	for _, tmpl := range templates {
		byType[tmpl.MachineType] = tmpl
	}

	cases := []struct {
		machineType string
		stations    int
		autoindex   int
		guided      int
	}{
		{"4I", 58, 4, 26},
		{"2I", 56, 1, 23},
		{"45STA", 44, 3, 24},
	}
	for _, tc := range cases {
		tmpl, ok := byType[tc.machineType]
		require.True(t, ok, tc.machineType)
		assert.Equal(t, tc.stations, tmpl.StationCount(), tc.machineType)

		autoindex, guided := 0, 0
		for _, slot := range tmpl.Slots {
			assert.True(t, slot.Type.Valid())
			if slot.IsAutoindex {
				autoindex++
			}
			if slot.HasGuide {
				guided++
			}
		}
		assert.Equal(t, tc.autoindex, autoindex, tc.machineType)
		assert.Equal(t, tc.guided, guided, tc.machineType)
	}

	fourIndex := byType["4I"]
	assert.Equal(t, 26, fourIndex.CountByType()[models.StationTypeB])
	slot, ok := fourIndex.Slot("230")
	require.True(t, ok)
	assert.True(t, slot.IsAutoindex)

	twoIndex := byType["2I"]
	slot, ok = twoIndex.Slot("201")
	require.True(t, ok)
	assert.Equal(t, models.StationTypeE, slot.Type)
	assert.True(t, slot.HasGuide)
}
