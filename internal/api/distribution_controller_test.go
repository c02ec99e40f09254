package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pressplan/server/internal/models"
	"pressplan/server/internal/planner"
	"pressplan/server/internal/services"
)

type fakeDistributions struct {
	plans     map[string]*models.StoredPlan
	createErr error
	lastReq   services.DistributionRequest
}

func (f *fakeDistributions) Create(_ context.Context, req services.DistributionRequest) (*models.StoredPlan, error) {
	f.lastReq = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	plan := testPlan("new-plan")
	f.plans[plan.ID] = plan
	return plan, nil
}

func (f *fakeDistributions) Get(_ context.Context, id string) (*models.StoredPlan, error) {
	plan, ok := f.plans[id]
	if !ok {
		return nil, fmt.Errorf("distribution %s: %w", id, services.ErrNotFound)
	}
	return plan, nil
}

func (f *fakeDistributions) List(context.Context) ([]models.StoredPlan, error) {
	var out []models.StoredPlan
	for _, p := range f.plans {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeDistributions) Delete(_ context.Context, id string) error {
	if _, ok := f.plans[id]; !ok {
		return fmt.Errorf("distribution %s: %w", id, services.ErrNotFound)
	}
	delete(f.plans, id)
	return nil
}

func testPlan(id string) *models.StoredPlan {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	return &models.StoredPlan{
		ID:          id,
		PackageID:   3,
		PackageName: "TYEH cabinet",
		Demand:      100,
		TimeBudget:  10,
		Feasible:    true,
		IsActive:    true,
		CreatedAt:   now,
		ExpiresAt:   now.Add(24 * time.Hour),
		Result: models.PlanResultJSON{PlanResult: models.PlanResult{
			Feasible: true,
			Stats:    models.PlanStats{MachinesUsed: 1, TotalHours: 4},
			Machines: []models.MachinePlan{{
				Sequence: 1, MachineID: "m-1", MachineName: "T-101", MachineType: "4I",
				Allocations:    []models.PartAllocation{{PartID: "p1", PartNumber: "PN-1", RequiredQuantity: 100, Quantity: 100, UPH: 25, Hours: 4}},
				HoursUsed:      4,
				HoursAvailable: 10,
				HoursRemaining: 6,
			}},
		}},
	}
}

func setupDistributionRouter(store *fakeDistributions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewDistributionController(store, services.NewReportService(zap.NewNop()), zap.NewNop()).Register(r.Group("/api/v1"))
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateDistribution(t *testing.T) {
	store := &fakeDistributions{plans: map[string]*models.StoredPlan{}}
	r := setupDistributionRouter(store)

	w := doRequest(r, http.MethodPost, "/api/v1/distributions",
		`{"package_id":3,"demand":100,"time_budget_hours":10,"machine_ids":["m-1"],"station_ceiling":40}`)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, "new-plan", body["id"])
	assert.Equal(t, uint(3), store.lastReq.PackageID)
	assert.Equal(t, 10.0, store.lastReq.TimeBudget)
	assert.Equal(t, []string{"m-1"}, store.lastReq.MachineIDs)
	require.NotNil(t, store.lastReq.StationCeiling)
	assert.Equal(t, 40, *store.lastReq.StationCeiling)
	assert.Nil(t, store.lastReq.Threshold)
}

func TestCreateDistribution_ErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", fmt.Errorf("%w: part p1 has no tools", planner.ErrValidation), http.StatusBadRequest},
		{"unknown package", fmt.Errorf("package 3: %w", services.ErrNotFound), http.StatusNotFound},
		{"capacity", fmt.Errorf("%w: part p1 does not fit", planner.ErrCapacityExceeded), http.StatusUnprocessableEntity},
		{"machine ceiling", fmt.Errorf("%w: 20 machines", planner.ErrMachineCeiling), http.StatusUnprocessableEntity},
		{"database", fmt.Errorf("save distribution: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeDistributions{plans: map[string]*models.StoredPlan{}, createErr: tc.err}
			w := doRequest(setupDistributionRouter(store), http.MethodPost, "/api/v1/distributions",
				`{"package_id":3,"demand":100,"time_budget_hours":10}`)
			assert.Equal(t, tc.code, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestCreateDistribution_BadJSON(t *testing.T) {
	store := &fakeDistributions{plans: map[string]*models.StoredPlan{}}
	w := doRequest(setupDistributionRouter(store), http.MethodPost, "/api/v1/distributions", `{"demand":"many"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAndDeleteDistribution(t *testing.T) {
	store := &fakeDistributions{plans: map[string]*models.StoredPlan{"abc": testPlan("abc")}}
	r := setupDistributionRouter(store)

	w := doRequest(r, http.MethodGet, "/api/v1/distributions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["count"])

	w = doRequest(r, http.MethodGet, "/api/v1/distributions/abc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "TYEH cabinet", decode(t, w)["package_name"])

	w = doRequest(r, http.MethodDelete, "/api/v1/distributions/abc", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/distributions/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTextReport(t *testing.T) {
	store := &fakeDistributions{plans: map[string]*models.StoredPlan{"abc": testPlan("abc")}}
	w := doRequest(setupDistributionRouter(store), http.MethodGet, "/api/v1/distributions/abc/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FEASIBLE")
	assert.Contains(t, w.Body.String(), "T-101")
}

func TestExportDistribution(t *testing.T) {
	store := &fakeDistributions{plans: map[string]*models.StoredPlan{"abc": testPlan("abc")}}
	r := setupDistributionRouter(store)

	w := doRequest(r, http.MethodGet, "/api/v1/distributions/abc/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "distribution_abc.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Summary", "1 T-101"}, f.GetSheetList())

	w = doRequest(r, http.MethodGet, "/api/v1/distributions/abc/machines/m-1/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "setup_T-101_abc.xlsx")

	w = doRequest(r, http.MethodGet, "/api/v1/distributions/abc/machines/m-9/export", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
